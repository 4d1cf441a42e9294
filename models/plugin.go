package models

import "time"

// PluginType distinguishes marketplace plugins from user-hosted ones.
type PluginType string

const (
	PluginTypeStandard PluginType = "plugin"
	PluginTypeCustom   PluginType = "customPlugin"
)

// ManifestAPI describes one callable endpoint declared by a plugin.
type ManifestAPI struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Method      string `json:"method,omitempty"`
	Description string `json:"description,omitempty"`
}

// Manifest is the structured description of a plugin: its API list, UI
// metadata, and configurable settings schema.
type Manifest struct {
	Identifier string                 `json:"identifier"`
	API        []ManifestAPI          `json:"api,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
	Settings   map[string]interface{} `json:"settings,omitempty"`
	Version    string                 `json:"version,omitempty"`
}

// FindAPI returns the API definition with an exact name match, or nil.
func (m *Manifest) FindAPI(name string) *ManifestAPI {
	for i := range m.API {
		if m.API[i].Name == name {
			return &m.API[i]
		}
	}
	return nil
}

// Title returns the manifest's display title, falling back to identifier.
func (m *Manifest) Title(identifier string) string {
	if m.Meta != nil {
		if t, ok := m.Meta["title"].(string); ok && t != "" {
			return t
		}
	}
	return identifier
}

// CustomParams configures a proxy-type plugin: where its API calls are
// forwarded and in which mode.
type CustomParams struct {
	BaseURL string `json:"baseUrl"`
	APIMode string `json:"apiMode"`
}

const APIModeProxy = "proxy"

// Plugin is an installed plugin record owned by a single user.
type Plugin struct {
	ID           string                 `json:"id"`
	Identifier   string                 `json:"identifier"`
	UserID       string                 `json:"userId"`
	Type         PluginType             `json:"type"`
	Manifest     Manifest               `json:"manifest"`
	Settings     map[string]interface{} `json:"settings,omitempty"`
	Meta         map[string]interface{} `json:"meta,omitempty"`
	CustomParams *CustomParams          `json:"customParams,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// Title returns the plugin's display title.
func (p *Plugin) Title() string {
	return p.Manifest.Title(p.Identifier)
}

// CatalogEntry is a plugin listed in the store catalog.
type CatalogEntry struct {
	Identifier  string                 `json:"identifier"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Author      string                 `json:"author"`
	Avatar      string                 `json:"avatar"`
	Homepage    string                 `json:"homepage"`
	Version     string                 `json:"version"`
	Tags        []string               `json:"tags"`
	Meta        map[string]interface{} `json:"meta"`
}
