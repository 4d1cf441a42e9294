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

// CreateMessage appends a message to its session, assigning the next
// sequence number within a transaction.
func (s *Store) CreateMessage(message *models.Message) (*models.Message, error) {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	now := time.Now()
	message.CreatedAt = now
	message.UpdatedAt = now

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&MessageRecord{}).Where("session_id = ?", message.SessionID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "count session messages")
		}
		if err := tx.Create(messageRecord(message, int(count)+1)).Error; err != nil {
			return errors.Wrap(err, "create message")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// MessageByID fetches a message without an ownership check. Callers that
// act on behalf of a user must pair it with SessionByID.
func (s *Store) MessageByID(id string) (*models.Message, error) {
	var rec MessageRecord
	err := s.db.Where("id = ?", id).First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("message not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find message")
	}
	return rec.toModel(), nil
}

// MessageForUser fetches a message and verifies the caller owns its
// session. Returns the message and its session.
func (s *Store) MessageForUser(userID, id string) (*models.Message, *models.Session, error) {
	message, err := s.MessageByID(id)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.SessionByID(userID, message.SessionID)
	if err != nil {
		// The message exists but belongs to someone else's session.
		return nil, nil, errs.Forbidden("no access to this message")
	}
	return message, session, nil
}

// ListMessages returns up to limit messages of a session in ascending
// order; before (a message id) pages backwards.
func (s *Store) ListMessages(sessionID string, limit int, before string) ([]*models.Message, error) {
	query := s.db.Where("session_id = ?", sessionID)

	if before != "" {
		var pivot MessageRecord
		err := s.db.Where("id = ?", before).First(&pivot).Error
		if err == nil {
			query = query.Where("seq < ?", pivot.Seq)
		} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(err, "find pivot message")
		}
	}

	var recs []MessageRecord
	query = query.Order("seq DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "list messages")
	}

	// Reverse into ascending order for the response.
	messages := make([]*models.Message, len(recs))
	for i := range recs {
		messages[len(recs)-1-i] = recs[i].toModel()
	}
	return messages, nil
}

// History returns the last limit messages of a session ascending,
// excluding excludeID (the in-flight assistant placeholder).
func (s *Store) History(sessionID, excludeID string, limit int) ([]*models.Message, error) {
	query := s.db.Where("session_id = ?", sessionID)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var recs []MessageRecord
	query = query.Order("seq DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "fetch history")
	}

	messages := make([]*models.Message, len(recs))
	for i := range recs {
		messages[len(recs)-1-i] = recs[i].toModel()
	}
	return messages, nil
}

// SaveMessage rewrites a message's mutable fields (content, error,
// tools). Single-document update; concurrent writers race and the last
// write wins.
func (s *Store) SaveMessage(message *models.Message) (*models.Message, error) {
	message.UpdatedAt = time.Now()
	err := s.db.Model(&MessageRecord{}).Where("id = ?", message.ID).Updates(map[string]interface{}{
		"content":    message.Content,
		"error":      marshalJSON(message.Error),
		"tools":      marshalJSON(message.Tools),
		"updated_at": message.UpdatedAt,
	}).Error
	if err != nil {
		return nil, errors.Wrap(err, "save message")
	}
	return message, nil
}

// DeleteMessage removes a single message.
func (s *Store) DeleteMessage(id string) error {
	return errors.Wrap(s.db.Where("id = ?", id).Delete(&MessageRecord{}).Error, "delete message")
}

// DeleteSessionMessages removes every message of a session.
func (s *Store) DeleteSessionMessages(sessionID string) error {
	return errors.Wrap(s.db.Where("session_id = ?", sessionID).Delete(&MessageRecord{}).Error, "delete session messages")
}

// LastMessage returns the newest message of a session, or nil when the
// session is empty.
func (s *Store) LastMessage(sessionID string) (*models.Message, error) {
	var rec MessageRecord
	err := s.db.Where("session_id = ?", sessionID).Order("seq DESC").First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find last message")
	}
	return rec.toModel(), nil
}

// StuckToolMessages returns messages updated before cutoff that still
// carry a running tool call. Used by the sweeper.
func (s *Store) StuckToolMessages(cutoff time.Time) ([]*models.Message, error) {
	var recs []MessageRecord
	err := s.db.Where("updated_at < ? AND tools LIKE ?", cutoff, "%\"running\"%").Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "find stuck tool messages")
	}
	messages := make([]*models.Message, 0, len(recs))
	for i := range recs {
		messages = append(messages, recs[i].toModel())
	}
	return messages, nil
}
