package chat

import (
	"context"
	"log"
	"os"
	"sync"
)

var executorLogger = log.New(os.Stdout, "[executor] ", log.LstdFlags)

// Executor runs background chat jobs on a bounded pool of workers so a
// burst of messages cannot spawn unbounded goroutines.
type Executor struct {
	jobs   chan func(ctx context.Context)
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewExecutor(workers int) *Executor {
	if workers <= 0 {
		workers = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		jobs:   make(chan func(ctx context.Context), workers*8),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case job, ok := <-e.jobs:
			if !ok {
				return
			}
			e.run(job)
		}
	}
}

// run executes one job, containing panics so a bad job cannot take the
// worker down.
func (e *Executor) run(job func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			executorLogger.Printf("job panicked: %v", r)
		}
	}()
	job(e.ctx)
}

// Submit schedules a job. If the queue is full the job runs on the
// caller's goroutine rather than being dropped.
func (e *Executor) Submit(job func(ctx context.Context)) {
	select {
	case <-e.ctx.Done():
		return
	case e.jobs <- job:
	default:
		go e.run(job)
	}
}

// Shutdown stops accepting jobs and waits for in-flight ones.
func (e *Executor) Shutdown() {
	e.cancel()
	e.wg.Wait()
}
