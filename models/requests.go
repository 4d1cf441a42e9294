package models

// Request bodies for the REST surface. Pointer fields distinguish
// "absent" from zero values on partial updates.

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name        *string      `json:"name,omitempty"`
	Photo       *string      `json:"photo,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

type CreateSessionRequest struct {
	Topic   string                 `json:"topic,omitempty"`
	AgentID string                 `json:"agentId,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

type UpdateSessionRequest struct {
	Topic    *string                 `json:"topic,omitempty"`
	AgentID  *string                 `json:"agentId,omitempty"`
	Favorite *bool                   `json:"favorite,omitempty"`
	Pinned   *bool                   `json:"pinned,omitempty"`
	Archived *bool                   `json:"archived,omitempty"`
	Meta     *map[string]interface{} `json:"meta,omitempty"`
}

type CreateMessageRequest struct {
	SessionID string     `json:"sessionId" binding:"required"`
	Role      Role       `json:"role" binding:"required"`
	Content   string     `json:"content" binding:"required"`
	ParentID  string     `json:"parentId,omitempty"`
	QuotaID   string     `json:"quotaId,omitempty"`
	Files     []File     `json:"files,omitempty"`
	Tools     []ToolCall `json:"tools,omitempty"`
}

type UpdateMessageRequest struct {
	Content *string       `json:"content,omitempty"`
	Error   *ErrorPayload `json:"error,omitempty"`
	Tools   []ToolCall    `json:"tools,omitempty"`
}

type SendMessageRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Files     []File `json:"files,omitempty"`
	ParentID  string `json:"parentId,omitempty"`
	QuotaID   string `json:"quotaId,omitempty"`
}

type UsePluginRequest struct {
	PluginID  string                 `json:"pluginId" binding:"required"`
	APIName   string                 `json:"apiName,omitempty"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

type UpdateToolStateRequest struct {
	State    ToolState              `json:"state,omitempty"`
	Response map[string]interface{} `json:"response,omitempty"`
	Error    *ErrorPayload          `json:"error,omitempty"`
}

type InstallPluginRequest struct {
	Identifier   string                 `json:"identifier"`
	Manifest     *Manifest              `json:"manifest"`
	Meta         map[string]interface{} `json:"meta,omitempty"`
	CustomParams *CustomParams          `json:"customParams,omitempty"`
}

type UpdatePluginRequest struct {
	Manifest     *Manifest               `json:"manifest,omitempty"`
	Settings     *map[string]interface{} `json:"settings,omitempty"`
	Meta         *map[string]interface{} `json:"meta,omitempty"`
	CustomParams *CustomParams           `json:"customParams,omitempty"`
}

type TranslateTextRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage,omitempty"`
	TargetLanguage string `json:"targetLanguage"`
	Model          string `json:"model,omitempty"`
}

type GenerateCopyRequest struct {
	TemplateID string `json:"templateId"`
	Product    string `json:"product"`
	Audience   string `json:"audience,omitempty"`
	Tone       string `json:"tone,omitempty"`
	Keywords   string `json:"keywords,omitempty"`
}

type AnalyzeCopyRequest struct {
	Content  string `json:"content"`
	Audience string `json:"audience,omitempty"`
	Platform string `json:"platform,omitempty"`
}

type GeneratePrototypeRequest struct {
	TemplateID  string `json:"templateId"`
	Description string `json:"description"`
	Elements    string `json:"elements,omitempty"`
	Style       string `json:"style,omitempty"`
}
