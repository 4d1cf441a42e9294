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

// History persistence for the builtin plugin engines. These replace the
// in-memory arrays the engines would otherwise hold.

func (s *Store) CreateTranslation(t *models.Translation) (*models.Translation, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now()
	rec := &TranslationRecord{
		ID:             t.ID,
		UserID:         t.UserID,
		Text:           t.Text,
		TranslatedText: t.TranslatedText,
		SourceLanguage: t.SourceLanguage,
		TargetLanguage: t.TargetLanguage,
		Model:          t.Model,
		CreatedAt:      t.CreatedAt,
	}
	if err := s.db.Create(rec).Error; err != nil {
		return nil, errors.Wrap(err, "create translation")
	}
	return t, nil
}

func (s *Store) ListTranslations(userID string) ([]*models.Translation, error) {
	var recs []TranslationRecord
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "list translations")
	}
	out := make([]*models.Translation, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

func (s *Store) TranslationByID(userID, id string) (*models.Translation, error) {
	var rec TranslationRecord
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("translation not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find translation")
	}
	return rec.toModel(), nil
}

func (s *Store) DeleteTranslation(userID, id string) error {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&TranslationRecord{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete translation")
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("translation not found")
	}
	return nil
}

func (s *Store) CreateCopy(c *models.Copy) (*models.Copy, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	rec := &CopyRecord{
		ID:         c.ID,
		UserID:     c.UserID,
		TemplateID: c.TemplateID,
		Product:    c.Product,
		Audience:   c.Audience,
		Tone:       c.Tone,
		Keywords:   c.Keywords,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
	if err := s.db.Create(rec).Error; err != nil {
		return nil, errors.Wrap(err, "create copy")
	}
	return c, nil
}

func (s *Store) ListCopies(userID string) ([]*models.Copy, error) {
	var recs []CopyRecord
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "list copies")
	}
	out := make([]*models.Copy, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

func (s *Store) CopyByID(userID, id string) (*models.Copy, error) {
	var rec CopyRecord
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("copy not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find copy")
	}
	return rec.toModel(), nil
}

func (s *Store) CreatePrototype(p *models.Prototype) (*models.Prototype, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()
	rec := &PrototypeRecord{
		ID:          p.ID,
		UserID:      p.UserID,
		TemplateID:  p.TemplateID,
		Description: p.Description,
		Elements:    p.Elements,
		Style:       p.Style,
		Status:      p.Status,
		PreviewURL:  p.PreviewURL,
		DownloadURL: p.DownloadURL,
		CreatedAt:   p.CreatedAt,
	}
	if err := s.db.Create(rec).Error; err != nil {
		return nil, errors.Wrap(err, "create prototype")
	}
	return p, nil
}

func (s *Store) ListPrototypes(userID string) ([]*models.Prototype, error) {
	var recs []PrototypeRecord
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "list prototypes")
	}
	out := make([]*models.Prototype, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

func (s *Store) PrototypeByID(userID, id string) (*models.Prototype, error) {
	var rec PrototypeRecord
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("prototype not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find prototype")
	}
	return rec.toModel(), nil
}
