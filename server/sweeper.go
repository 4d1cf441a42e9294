package server

import (
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gokoo/ai-toolbox/chat"
	"github.com/gokoo/ai-toolbox/models"
	"github.com/gokoo/ai-toolbox/stores"
)

var sweeperLogger = log.New(os.Stdout, "[sweeper] ", log.LstdFlags)

// Sweeper periodically fails tool calls stuck in running longer than
// ttl, for example when the process died mid-call. Disabled when ttl
// is zero.
type Sweeper struct {
	store   *stores.Store
	tracker *chat.Tracker
	ttl     time.Duration
	cron    *cron.Cron
}

func NewSweeper(store *stores.Store, tracker *chat.Tracker, ttl time.Duration) *Sweeper {
	return &Sweeper{store: store, tracker: tracker, ttl: ttl, cron: cron.New()}
}

// Start schedules the sweep every minute. No-op when disabled.
func (s *Sweeper) Start() error {
	if s.ttl <= 0 {
		return nil
	}
	if _, err := s.cron.AddFunc("@every 1m", s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) sweep() {
	cutoff := time.Now().Add(-s.ttl)
	messages, err := s.store.StuckToolMessages(cutoff)
	if err != nil {
		sweeperLogger.Printf("failed to list stuck tool calls: %v", err)
		return
	}

	for _, message := range messages {
		for _, call := range message.Tools {
			if call.State.Terminal() || !call.UpdatedAt.Before(cutoff) {
				continue
			}
			if _, err := s.tracker.Resolve(message, call.ID, models.ToolStateError, nil,
				&models.ErrorPayload{Message: "tool call timed out", Code: 500}); err != nil {
				sweeperLogger.Printf("failed to finalize stuck tool %s on %s: %v", call.ID, message.ID, err)
			}
		}
	}
}
