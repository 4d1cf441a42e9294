package stores

import (
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
)

// FindSession filters ListSessions. Nil fields match everything.
type FindSession struct {
	Favorite *bool
	Pinned   *bool
	Archived *bool
}

// CreateSession inserts a session owned by userID.
func (s *Store) CreateSession(userID string, session *models.Session) (*models.Session, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Topic == "" {
		session.Topic = models.DefaultTopic
	}
	session.UserID = userID
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	if err := s.db.Create(sessionRecord(session)).Error; err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	return session, nil
}

// SessionByID returns the session only when it belongs to userID.
// Cross-tenant reads come back NotFound, never Forbidden.
func (s *Store) SessionByID(userID, id string) (*models.Session, error) {
	var rec SessionRecord
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("session not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find session")
	}
	return rec.toModel(), nil
}

// ListSessions returns the user's sessions, newest first.
func (s *Store) ListSessions(userID string, find *FindSession) ([]*models.Session, error) {
	query := s.db.Where("user_id = ?", userID)
	if find != nil {
		if find.Favorite != nil {
			query = query.Where("favorite = ?", *find.Favorite)
		}
		if find.Pinned != nil {
			query = query.Where("pinned = ?", *find.Pinned)
		}
		if find.Archived != nil {
			query = query.Where("archived = ?", *find.Archived)
		}
	}

	var recs []SessionRecord
	if err := query.Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}

	sessions := make([]*models.Session, len(recs))
	for i := range recs {
		sessions[i] = recs[i].toModel()
	}
	return sessions, nil
}

// SaveSession persists all mutable fields of an owned session.
func (s *Store) SaveSession(session *models.Session) (*models.Session, error) {
	session.UpdatedAt = time.Now()
	if err := s.db.Save(sessionRecord(session)).Error; err != nil {
		return nil, errors.Wrap(err, "save session")
	}
	return session, nil
}

// TouchLastMessage updates the session's last-message pointer.
func (s *Store) TouchLastMessage(sessionID, messageID string, at time.Time) error {
	err := s.db.Model(&SessionRecord{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
		"last_message_id":         messageID,
		"last_message_created_at": at,
	}).Error
	return errors.Wrap(err, "touch last message")
}

// ClearLastMessage resets the session's last-message pointer.
func (s *Store) ClearLastMessage(sessionID string) error {
	err := s.db.Model(&SessionRecord{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
		"last_message_id":         "",
		"last_message_created_at": nil,
	}).Error
	return errors.Wrap(err, "clear last message")
}

// DeleteSession removes an owned session and cascades to its messages.
func (s *Store) DeleteSession(userID, id string) error {
	if _, err := s.SessionByID(userID, id); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&MessageRecord{}).Error; err != nil {
			return errors.Wrap(err, "delete session messages")
		}
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&SessionRecord{}).Error; err != nil {
			return errors.Wrap(err, "delete session")
		}
		return nil
	})
}
