package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
	"github.com/gokoo/ai-toolbox/stores"
)

// Tracker advances tool calls through their lifecycle. Transitions are
// monotonic: pending may move to running, running to success or error,
// and terminal states never change again. Updates are read-modify-write
// against the parent message; concurrent resolvers race and the last
// write wins.
type Tracker struct {
	store  *stores.Store
	events *Broadcaster
}

func NewTracker(store *stores.Store, events *Broadcaster) *Tracker {
	return &Tracker{store: store, events: events}
}

// toolIndex keys the message's tool calls by ID for constant lookups;
// the slice on the message stays the serialized form.
func toolIndex(message *models.Message) map[string]*models.ToolCall {
	index := make(map[string]*models.ToolCall, len(message.Tools))
	for i := range message.Tools {
		index[message.Tools[i].ID] = &message.Tools[i]
	}
	return index
}

// Start appends a running tool call to the message and persists it. A
// missing ID is generated.
func (t *Tracker) Start(message *models.Message, call models.ToolCall) (*models.Message, *models.ToolCall, error) {
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	call.State = models.ToolStateRunning
	call.CreatedAt = now
	call.UpdatedAt = now
	message.Tools = append(message.Tools, call)

	saved, err := t.store.SaveMessage(message)
	if err != nil {
		return nil, nil, err
	}
	t.events.Publish(Event{Type: EventMessageUpdated, SessionID: saved.SessionID, Message: saved})
	return saved, saved.FindTool(call.ID), nil
}

// Resolve moves the identified tool call to a terminal or later state
// and records its outcome. Resolving an already terminal call is a
// conflict; an unknown toolID is not found.
func (t *Tracker) Resolve(message *models.Message, toolID string, state models.ToolState, response map[string]interface{}, failure *models.ErrorPayload) (*models.Message, error) {
	call, ok := toolIndex(message)[toolID]
	if !ok {
		return nil, errs.NotFound("tool call not found: %s", toolID)
	}
	if call.State.Terminal() {
		return nil, errs.Conflict("tool call %s is already %s", toolID, call.State)
	}
	if state != call.State && !call.State.CanTransition(state) {
		return nil, errs.BadRequest("tool call cannot move from %s to %s", call.State, state)
	}

	call.State = state
	if response != nil {
		call.Response = response
	}
	if failure != nil {
		call.Error = failure
		if call.Error.Code == 0 {
			call.Error.Code = 500
		}
	}
	call.UpdatedAt = time.Now().UTC()

	saved, err := t.store.SaveMessage(message)
	if err != nil {
		return nil, err
	}
	t.events.Publish(Event{Type: EventMessageUpdated, SessionID: saved.SessionID, Message: saved})
	return saved, nil
}

// UpdateState is the HTTP-facing variant of Resolve: it loads the
// message with an ownership check and applies the requested update. An
// empty toolID selects the message's only tool call.
func (t *Tracker) UpdateState(userID, messageID, toolID string, req *models.UpdateToolStateRequest) (*models.Message, error) {
	message, _, err := t.store.MessageForUser(userID, messageID)
	if err != nil {
		return nil, err
	}

	if toolID == "" {
		if len(message.Tools) != 1 {
			return nil, errs.BadRequest("tool call id is required")
		}
		toolID = message.Tools[0].ID
	}

	state := req.State
	if state == "" {
		call, ok := toolIndex(message)[toolID]
		if !ok {
			return nil, errs.NotFound("tool call not found: %s", toolID)
		}
		state = call.State
		if req.Error != nil {
			state = models.ToolStateError
		}
	}
	return t.Resolve(message, toolID, state, req.Response, req.Error)
}
