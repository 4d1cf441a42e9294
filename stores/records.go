package stores

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/gokoo/ai-toolbox/models"
)

// Database records. Opaque bags (manifests, settings, tool calls,
// arguments) are stored as JSON columns; the ordered tool-call array is
// the serialized form of the tracker's id-keyed view.

type UserRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	Photo        string
	Role         string `gorm:"default:user"`
	PasswordHash string `gorm:"not null"`
	Active       bool   `gorm:"default:true"`
	Preferences  datatypes.JSON
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserRecord) TableName() string { return "users" }

type SessionRecord struct {
	ID                   string `gorm:"primaryKey;size:36"`
	UserID               string `gorm:"index;not null"`
	Topic                string
	AgentID              string
	Favorite             bool `gorm:"default:false"`
	Pinned               bool `gorm:"default:false"`
	Archived             bool `gorm:"default:false"`
	LastMessageID        string
	LastMessageCreatedAt *time.Time
	Meta                 datatypes.JSON
	CreatedAt            time.Time `gorm:"index"`
	UpdatedAt            time.Time
}

func (SessionRecord) TableName() string { return "sessions" }

type MessageRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	SessionID string `gorm:"index;not null"`
	// Seq orders messages within a session; createdAt alone can tie for
	// the user/assistant pair written back to back.
	Seq       int    `gorm:"not null"`
	Role      string `gorm:"not null"`
	Content   string `gorm:"type:text"`
	ParentID  string `gorm:"index"`
	QuotaID   string
	Files     datatypes.JSON
	Error     datatypes.JSON
	Tools     datatypes.JSON
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (MessageRecord) TableName() string { return "messages" }

type PluginRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	Identifier   string `gorm:"index:idx_plugin_user_identifier,unique;not null"`
	UserID       string `gorm:"index:idx_plugin_user_identifier,unique;not null"`
	Type         string `gorm:"default:plugin"`
	Manifest     datatypes.JSON
	Settings     datatypes.JSON
	Meta         datatypes.JSON
	CustomParams datatypes.JSON
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (PluginRecord) TableName() string { return "plugins" }

type TranslationRecord struct {
	ID             string `gorm:"primaryKey;size:36"`
	UserID         string `gorm:"index;not null"`
	Text           string `gorm:"type:text"`
	TranslatedText string `gorm:"type:text"`
	SourceLanguage string
	TargetLanguage string
	Model          string
	CreatedAt      time.Time
}

func (TranslationRecord) TableName() string { return "translations" }

type CopyRecord struct {
	ID         string `gorm:"primaryKey;size:36"`
	UserID     string `gorm:"index;not null"`
	TemplateID string
	Product    string
	Audience   string
	Tone       string
	Keywords   string
	Content    string `gorm:"type:text"`
	CreatedAt  time.Time
}

func (CopyRecord) TableName() string { return "copies" }

type PrototypeRecord struct {
	ID          string `gorm:"primaryKey;size:36"`
	UserID      string `gorm:"index;not null"`
	TemplateID  string
	Description string `gorm:"type:text"`
	Elements    string
	Style       string
	Status      string
	PreviewURL  string
	DownloadURL string
	CreatedAt   time.Time
}

func (PrototypeRecord) TableName() string { return "prototypes" }

func marshalJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return nil
	}
	return datatypes.JSON(data)
}

func unmarshalJSON(data datatypes.JSON, out interface{}) {
	if len(data) == 0 {
		return
	}
	// Corrupt JSON in a bag column is ignored rather than failing reads.
	_ = json.Unmarshal(data, out)
}

func (r *UserRecord) toModel() *models.User {
	u := &models.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Photo:        r.Photo,
		Role:         models.UserRole(r.Role),
		PasswordHash: r.PasswordHash,
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	unmarshalJSON(r.Preferences, &u.Preferences)
	return u
}

func userRecord(u *models.User) *UserRecord {
	return &UserRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Photo:        u.Photo,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		Active:       u.Active,
		Preferences:  marshalJSON(u.Preferences),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r *SessionRecord) toModel() *models.Session {
	s := &models.Session{
		ID:                   r.ID,
		UserID:               r.UserID,
		Topic:                r.Topic,
		AgentID:              r.AgentID,
		Favorite:             r.Favorite,
		Pinned:               r.Pinned,
		Archived:             r.Archived,
		LastMessageID:        r.LastMessageID,
		LastMessageCreatedAt: r.LastMessageCreatedAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	unmarshalJSON(r.Meta, &s.Meta)
	return s
}

func sessionRecord(s *models.Session) *SessionRecord {
	return &SessionRecord{
		ID:                   s.ID,
		UserID:               s.UserID,
		Topic:                s.Topic,
		AgentID:              s.AgentID,
		Favorite:             s.Favorite,
		Pinned:               s.Pinned,
		Archived:             s.Archived,
		LastMessageID:        s.LastMessageID,
		LastMessageCreatedAt: s.LastMessageCreatedAt,
		Meta:                 marshalJSON(s.Meta),
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func (r *MessageRecord) toModel() *models.Message {
	m := &models.Message{
		ID:        r.ID,
		SessionID: r.SessionID,
		Role:      models.Role(r.Role),
		Content:   r.Content,
		ParentID:  r.ParentID,
		QuotaID:   r.QuotaID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	unmarshalJSON(r.Files, &m.Files)
	unmarshalJSON(r.Error, &m.Error)
	unmarshalJSON(r.Tools, &m.Tools)
	return m
}

func messageRecord(m *models.Message, seq int) *MessageRecord {
	return &MessageRecord{
		ID:        m.ID,
		SessionID: m.SessionID,
		Seq:       seq,
		Role:      string(m.Role),
		Content:   m.Content,
		ParentID:  m.ParentID,
		QuotaID:   m.QuotaID,
		Files:     marshalJSON(m.Files),
		Error:     marshalJSON(m.Error),
		Tools:     marshalJSON(m.Tools),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (r *PluginRecord) toModel() *models.Plugin {
	p := &models.Plugin{
		ID:         r.ID,
		Identifier: r.Identifier,
		UserID:     r.UserID,
		Type:       models.PluginType(r.Type),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	unmarshalJSON(r.Manifest, &p.Manifest)
	unmarshalJSON(r.Settings, &p.Settings)
	unmarshalJSON(r.Meta, &p.Meta)
	unmarshalJSON(r.CustomParams, &p.CustomParams)
	return p
}

func pluginRecord(p *models.Plugin) *PluginRecord {
	return &PluginRecord{
		ID:           p.ID,
		Identifier:   p.Identifier,
		UserID:       p.UserID,
		Type:         string(p.Type),
		Manifest:     marshalJSON(p.Manifest),
		Settings:     marshalJSON(p.Settings),
		Meta:         marshalJSON(p.Meta),
		CustomParams: marshalJSON(p.CustomParams),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (r *TranslationRecord) toModel() *models.Translation {
	return &models.Translation{
		ID:             r.ID,
		UserID:         r.UserID,
		Text:           r.Text,
		TranslatedText: r.TranslatedText,
		SourceLanguage: r.SourceLanguage,
		TargetLanguage: r.TargetLanguage,
		Model:          r.Model,
		CreatedAt:      r.CreatedAt,
	}
}

func (r *CopyRecord) toModel() *models.Copy {
	return &models.Copy{
		ID:         r.ID,
		UserID:     r.UserID,
		TemplateID: r.TemplateID,
		Product:    r.Product,
		Audience:   r.Audience,
		Tone:       r.Tone,
		Keywords:   r.Keywords,
		Content:    r.Content,
		CreatedAt:  r.CreatedAt,
	}
}

func (r *PrototypeRecord) toModel() *models.Prototype {
	return &models.Prototype{
		ID:          r.ID,
		UserID:      r.UserID,
		TemplateID:  r.TemplateID,
		Description: r.Description,
		Elements:    r.Elements,
		Style:       r.Style,
		Status:      r.Status,
		PreviewURL:  r.PreviewURL,
		DownloadURL: r.DownloadURL,
		CreatedAt:   r.CreatedAt,
	}
}
