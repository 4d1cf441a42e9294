package plugins

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
	"github.com/gokoo/ai-toolbox/stores"
)

// Registry manages installed plugin records, keyed by identifier within
// each user.
type Registry struct {
	store  *stores.Store
	client *http.Client
}

func NewRegistry(store *stores.Store, client *http.Client) *Registry {
	if client == nil {
		client = http.DefaultClient
	}
	return &Registry{store: store, client: client}
}

// Install creates the plugin or, when the identifier already exists for
// the user, overwrites manifest/meta/customParams on the existing record
// (upsert). The second return value reports whether a new record was
// created.
func (r *Registry) Install(userID string, req *models.InstallPluginRequest) (*models.Plugin, bool, error) {
	if req.Identifier == "" || req.Manifest == nil {
		return nil, false, errs.BadRequest("plugin identifier and manifest are required")
	}

	existing, err := r.store.PluginByIdentifier(userID, req.Identifier)
	if err == nil {
		existing.Manifest = *req.Manifest
		if req.Meta != nil {
			existing.Meta = req.Meta
		}
		if req.CustomParams != nil {
			existing.CustomParams = req.CustomParams
		}
		updated, err := r.store.SavePlugin(existing)
		if err != nil {
			return nil, false, err
		}
		return updated, false, nil
	}
	if errs.CodeOf(err) != http.StatusNotFound {
		return nil, false, err
	}

	pluginType := models.PluginTypeStandard
	if req.CustomParams != nil {
		pluginType = models.PluginTypeCustom
	}
	plugin := &models.Plugin{
		Identifier:   req.Identifier,
		Type:         pluginType,
		Manifest:     *req.Manifest,
		Meta:         req.Meta,
		CustomParams: req.CustomParams,
	}
	plugin, err = r.store.CreatePlugin(userID, plugin)
	if err != nil {
		return nil, false, err
	}
	return plugin, true, nil
}

// CreateCustom strictly creates a proxy-type plugin; a previously used
// identifier for the same user is a conflict.
func (r *Registry) CreateCustom(userID string, req *models.InstallPluginRequest) (*models.Plugin, error) {
	if req.Identifier == "" || req.Manifest == nil || req.CustomParams == nil {
		return nil, errs.BadRequest("identifier, manifest and customParams are required")
	}

	_, err := r.store.PluginByIdentifier(userID, req.Identifier)
	if err == nil {
		return nil, errs.Conflict("plugin identifier already exists: %s", req.Identifier)
	}
	if errs.CodeOf(err) != http.StatusNotFound {
		return nil, err
	}

	plugin := &models.Plugin{
		Identifier:   req.Identifier,
		Type:         models.PluginTypeCustom,
		Manifest:     *req.Manifest,
		Meta:         req.Meta,
		CustomParams: req.CustomParams,
	}
	return r.store.CreatePlugin(userID, plugin)
}

// Update applies the provided partial fields to an owned plugin.
func (r *Registry) Update(userID, id string, req *models.UpdatePluginRequest) (*models.Plugin, error) {
	plugin, err := r.store.PluginByID(userID, id)
	if err != nil {
		return nil, err
	}
	if req.Manifest != nil {
		plugin.Manifest = *req.Manifest
	}
	if req.Settings != nil {
		plugin.Settings = *req.Settings
	}
	if req.Meta != nil {
		plugin.Meta = *req.Meta
	}
	if req.CustomParams != nil {
		plugin.CustomParams = req.CustomParams
	}
	return r.store.SavePlugin(plugin)
}

// UpdateSettings replaces the plugin's user-supplied settings.
func (r *Registry) UpdateSettings(userID, id string, settings map[string]interface{}) (*models.Plugin, error) {
	if settings == nil {
		return nil, errs.BadRequest("plugin settings are required")
	}
	plugin, err := r.store.PluginByID(userID, id)
	if err != nil {
		return nil, err
	}
	plugin.Settings = settings
	return r.store.SavePlugin(plugin)
}

// UpdateManifest replaces the plugin's manifest.
func (r *Registry) UpdateManifest(userID, id string, manifest *models.Manifest) (*models.Plugin, error) {
	if manifest == nil {
		return nil, errs.BadRequest("plugin manifest is required")
	}
	plugin, err := r.store.PluginByID(userID, id)
	if err != nil {
		return nil, err
	}
	plugin.Manifest = *manifest
	return r.store.SavePlugin(plugin)
}

// List returns the user's installed plugins.
func (r *Registry) List(userID string) ([]*models.Plugin, error) {
	return r.store.ListPlugins(userID)
}

// Uninstall removes an owned plugin; deleting a missing one is a no-op.
func (r *Registry) Uninstall(userID, id string) error {
	return r.store.DeletePlugin(userID, id)
}

// RemoveAll removes every plugin of the user.
func (r *Registry) RemoveAll(userID string) error {
	return r.store.DeleteAllPlugins(userID)
}

// ResolveManifestFromURL fetches and parses a remote plugin manifest.
func (r *Registry) ResolveManifestFromURL(ctx context.Context, rawURL string) (*models.Manifest, error) {
	if !isAbsoluteURL(rawURL) {
		return nil, errs.BadRequest("a valid manifest URL is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.BadRequest("a valid manifest URL is required")
	}
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, errs.BadRequest("failed to fetch plugin manifest: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.BadRequest("failed to fetch plugin manifest: status %d", resp.StatusCode)
	}

	var manifest models.Manifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, errs.BadRequest("invalid plugin manifest")
	}
	if manifest.Identifier == "" {
		return nil, errs.BadRequest("invalid plugin manifest")
	}
	return &manifest, nil
}

// Catalog returns the static plugin-store listing.
func (r *Registry) Catalog() []models.CatalogEntry {
	return []models.CatalogEntry{
		{
			Identifier:  BuiltinPrototype,
			Name:        "AI Prototype",
			Description: "Generate UI/UX prototypes in multiple styles and export formats",
			Author:      "AI Toolbox",
			Avatar:      "🎨",
			Homepage:    "https://github.com/ai-toolkit/ai-prototype",
			Version:     "1.0.0",
			Tags:        []string{"design", "prototype", "ui/ux"},
			Meta:        map[string]interface{}{"title": "AI Prototype", "avatar": "🎨"},
		},
		{
			Identifier:  BuiltinCopywriting,
			Name:        "AI Copywriting",
			Description: "Generate marketing copy, product descriptions and social content",
			Author:      "AI Toolbox",
			Avatar:      "✍️",
			Homepage:    "https://github.com/ai-toolkit/ai-copywriting",
			Version:     "1.0.0",
			Tags:        []string{"copywriting", "marketing", "content"},
			Meta:        map[string]interface{}{"title": "AI Copywriting", "avatar": "✍️"},
		},
		{
			Identifier:  BuiltinTranslator,
			Name:        "i18n Translator",
			Description: "Multi-language translation for text and files",
			Author:      "AI Toolbox",
			Avatar:      "🌐",
			Homepage:    "https://github.com/ai-toolkit/i18n-translator",
			Version:     "1.0.0",
			Tags:        []string{"translation", "i18n"},
			Meta:        map[string]interface{}{"title": "i18n Translator", "avatar": "🌐"},
		},
	}
}

// isAbsoluteURL reports whether s parses as an absolute http(s) URL.
func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
