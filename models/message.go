package models

import "time"

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

// ToolState is the lifecycle state of a single tool call.
// Transitions are one-directional: pending -> running -> success|error.
type ToolState string

const (
	ToolStatePending ToolState = "pending"
	ToolStateRunning ToolState = "running"
	ToolStateSuccess ToolState = "success"
	ToolStateError   ToolState = "error"
)

// Terminal reports whether the state permits no further transitions.
func (s ToolState) Terminal() bool {
	return s == ToolStateSuccess || s == ToolStateError
}

// CanTransition reports whether moving from s to next is permitted.
func (s ToolState) CanTransition(next ToolState) bool {
	switch s {
	case ToolStatePending:
		return next == ToolStateRunning || next == ToolStateSuccess || next == ToolStateError
	case ToolStateRunning:
		return next == ToolStateSuccess || next == ToolStateError
	}
	return false
}

// ErrorPayload is the error bag attached to messages and tool calls.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ToolCall is one invocation of a plugin API from within a message.
type ToolCall struct {
	ID        string                 `json:"id"`
	Type      PluginType             `json:"type"`
	Name      string                 `json:"name"`
	PluginID  string                 `json:"pluginId"`
	APIName   string                 `json:"apiName"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
	Response  map[string]interface{} `json:"response,omitempty"`
	State     ToolState              `json:"state"`
	Error     *ErrorPayload          `json:"error,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// File is an attachment reference carried by a message.
type File struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is a single entry in a session. Content is mutable: the
// assistant message is rewritten several times while a background
// completion or tool call runs.
type Message struct {
	ID        string        `json:"id"`
	SessionID string        `json:"sessionId"`
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	ParentID  string        `json:"parentId,omitempty"`
	QuotaID   string        `json:"quotaId,omitempty"`
	Files     []File        `json:"files,omitempty"`
	Error     *ErrorPayload `json:"error,omitempty"`
	Tools     []ToolCall    `json:"tools,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// FindTool returns a pointer to the tool call with the given id, or nil.
func (m *Message) FindTool(toolID string) *ToolCall {
	for i := range m.Tools {
		if m.Tools[i].ID == toolID {
			return &m.Tools[i]
		}
	}
	return nil
}
