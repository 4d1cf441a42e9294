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

// CreateUser inserts a new account. Duplicate emails map to Conflict.
func (s *Store) CreateUser(user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	user.Active = true
	user.Email = strings.ToLower(user.Email)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := s.db.Create(userRecord(user)).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			return nil, errs.Conflict("email already registered")
		}
		return nil, errors.Wrap(err, "create user")
	}
	return user, nil
}

// UserByEmail finds an active account by email.
func (s *Store) UserByEmail(email string) (*models.User, error) {
	var rec UserRecord
	err := s.db.Where("email = ? AND active = ?", strings.ToLower(email), true).First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("user not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by email")
	}
	return rec.toModel(), nil
}

// UserByID finds an active account by id.
func (s *Store) UserByID(id string) (*models.User, error) {
	var rec UserRecord
	err := s.db.Where("id = ? AND active = ?", id, true).First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("user not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user by id")
	}
	return rec.toModel(), nil
}

// SaveUser persists all mutable fields of an existing account.
func (s *Store) SaveUser(user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now()
	if err := s.db.Save(userRecord(user)).Error; err != nil {
		return nil, errors.Wrap(err, "save user")
	}
	return user, nil
}
