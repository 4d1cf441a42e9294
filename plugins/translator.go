package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
	"github.com/gokoo/ai-toolbox/stores"
)

// Translator is the i18n-translator builtin. Translation itself is
// simulated; history is persisted through the store.
type Translator struct {
	store     *stores.Store
	languages []models.Language
}

func NewTranslator(store *stores.Store) *Translator {
	return &Translator{
		store: store,
		languages: []models.Language{
			{Code: "zh", Name: "Chinese"},
			{Code: "en", Name: "English"},
			{Code: "ja", Name: "Japanese"},
			{Code: "ko", Name: "Korean"},
			{Code: "fr", Name: "French"},
			{Code: "de", Name: "German"},
			{Code: "es", Name: "Spanish"},
			{Code: "ru", Name: "Russian"},
			{Code: "it", Name: "Italian"},
			{Code: "pt", Name: "Portuguese"},
		},
	}
}

// Plugin returns the dispatch-table registration.
func (t *Translator) Plugin() *BuiltinPlugin {
	return &BuiltinPlugin{
		Identifier: BuiltinTranslator,
		Title:      "i18n Translator",
		DefaultAPI: "getLanguages",
		APIs: map[string]BuiltinHandler{
			"getLanguages":      t.getLanguages,
			"translateText":     t.translateText,
			"translateFile":     t.translateFile,
			"getHistory":        t.getHistory,
			"getHistoryById":    t.getHistoryByID,
			"deleteHistory":     t.deleteHistory,
			"exportTranslation": t.exportTranslation,
		},
	}
}

func (t *Translator) supported(code string) bool {
	for _, lang := range t.languages {
		if lang.Code == code {
			return true
		}
	}
	return false
}

func (t *Translator) getLanguages(ctx context.Context, req *Request) (*Result, error) {
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{"languages": t.languages}}, nil
}

func (t *Translator) translateText(ctx context.Context, req *Request) (*Result, error) {
	var body models.TranslateTextRequest
	if len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, &body); err != nil {
			return nil, errs.BadRequest("invalid request body")
		}
	}
	if body.Text == "" {
		return nil, errs.BadRequest("text to translate is required")
	}
	if body.TargetLanguage == "" {
		return nil, errs.BadRequest("target language is required")
	}
	if !t.supported(body.TargetLanguage) {
		return nil, errs.BadRequest("unsupported target language: %s", body.TargetLanguage)
	}
	if body.SourceLanguage != "" && !t.supported(body.SourceLanguage) {
		return nil, errs.BadRequest("unsupported source language: %s", body.SourceLanguage)
	}

	source := body.SourceLanguage
	if source == "" {
		source = "auto"
	}
	model := body.Model
	if model == "" {
		model = "default"
	}

	translation := &models.Translation{
		UserID:         req.UserID,
		Text:           body.Text,
		TranslatedText: fmt.Sprintf("[%s] %s", body.TargetLanguage, body.Text),
		SourceLanguage: source,
		TargetLanguage: body.TargetLanguage,
		Model:          model,
	}
	translation, err := t.store.CreateTranslation(translation)
	if err != nil {
		return nil, err
	}
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{"translation": translation}}, nil
}

func (t *Translator) translateFile(ctx context.Context, req *Request) (*Result, error) {
	// File translation is not implemented; return a job stub.
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{
		"jobId": fmt.Sprintf("file-translation-%d", time.Now().UnixMilli()),
	}}, nil
}

func (t *Translator) getHistory(ctx context.Context, req *Request) (*Result, error) {
	translations, err := t.store.ListTranslations(req.UserID)
	if err != nil {
		return nil, err
	}
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{"translations": translations}}, nil
}

func (t *Translator) getHistoryByID(ctx context.Context, req *Request) (*Result, error) {
	id, err := historyID(req)
	if err != nil {
		return nil, err
	}
	translation, err := t.store.TranslationByID(req.UserID, id)
	if err != nil {
		return nil, err
	}
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{"translation": translation}}, nil
}

func (t *Translator) deleteHistory(ctx context.Context, req *Request) (*Result, error) {
	id, err := historyID(req)
	if err != nil {
		return nil, err
	}
	if err := t.store.DeleteTranslation(req.UserID, id); err != nil {
		return nil, err
	}
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{"deleted": true}}, nil
}

func (t *Translator) exportTranslation(ctx context.Context, req *Request) (*Result, error) {
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{
		"exportUrl": fmt.Sprintf("/exports/translation-%d.json", time.Now().UnixMilli()),
	}}, nil
}
