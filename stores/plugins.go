package stores

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
)

// CreatePlugin inserts a plugin owned by userID. A duplicate identifier
// for the same user maps to Conflict.
func (s *Store) CreatePlugin(userID string, plugin *models.Plugin) (*models.Plugin, error) {
	if plugin.ID == "" {
		plugin.ID = uuid.NewString()
	}
	plugin.UserID = userID
	now := time.Now()
	plugin.CreatedAt = now
	plugin.UpdatedAt = now

	if err := s.db.Create(pluginRecord(plugin)).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			return nil, errs.Conflict("plugin identifier already exists: %s", plugin.Identifier)
		}
		return nil, errors.Wrap(err, "create plugin")
	}
	return plugin, nil
}

// PluginByID returns the plugin only when it belongs to userID.
func (s *Store) PluginByID(userID, id string) (*models.Plugin, error) {
	var rec PluginRecord
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("plugin not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find plugin")
	}
	return rec.toModel(), nil
}

// PluginByIdentifier resolves a plugin by its user-unique identifier.
func (s *Store) PluginByIdentifier(userID, identifier string) (*models.Plugin, error) {
	var rec PluginRecord
	err := s.db.Where("identifier = ? AND user_id = ?", identifier, userID).First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("plugin not found: %s", identifier)
	}
	if err != nil {
		return nil, errors.Wrap(err, "find plugin by identifier")
	}
	return rec.toModel(), nil
}

// ListPlugins returns the user's installed plugins, newest first.
func (s *Store) ListPlugins(userID string) ([]*models.Plugin, error) {
	var recs []PluginRecord
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "list plugins")
	}
	plugins := make([]*models.Plugin, len(recs))
	for i := range recs {
		plugins[i] = recs[i].toModel()
	}
	return plugins, nil
}

// SavePlugin persists all mutable fields of an owned plugin.
func (s *Store) SavePlugin(plugin *models.Plugin) (*models.Plugin, error) {
	plugin.UpdatedAt = time.Now()
	if err := s.db.Save(pluginRecord(plugin)).Error; err != nil {
		return nil, errors.Wrap(err, "save plugin")
	}
	return plugin, nil
}

// DeletePlugin removes an owned plugin. Idempotent: deleting a missing
// plugin is not an error.
func (s *Store) DeletePlugin(userID, id string) error {
	err := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&PluginRecord{}).Error
	return errors.Wrap(err, "delete plugin")
}

// DeleteAllPlugins removes every plugin of a user.
func (s *Store) DeleteAllPlugins(userID string) error {
	err := s.db.Where("user_id = ?", userID).Delete(&PluginRecord{}).Error
	return errors.Wrap(err, "delete all plugins")
}
