package models

import "time"

// Session is a conversation thread owned by a single user.
type Session struct {
	ID                   string                 `json:"id"`
	UserID               string                 `json:"userId"`
	Topic                string                 `json:"topic"`
	AgentID              string                 `json:"agentId,omitempty"`
	Favorite             bool                   `json:"favorite"`
	Pinned               bool                   `json:"pinned"`
	Archived             bool                   `json:"archived"`
	LastMessageID        string                 `json:"lastMessageId,omitempty"`
	LastMessageCreatedAt *time.Time             `json:"lastMessageCreatedAt,omitempty"`
	Meta                 map[string]interface{} `json:"meta,omitempty"`
	CreatedAt            time.Time              `json:"createdAt"`
	UpdatedAt            time.Time              `json:"updatedAt"`
}

// DefaultTopic is assigned to sessions created without one.
const DefaultTopic = "New chat"
