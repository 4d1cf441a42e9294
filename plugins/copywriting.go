package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
	"github.com/gokoo/ai-toolbox/stores"
)

// Copywriter is the ai-copywriting builtin. Generation is templated;
// history is persisted through the store.
type Copywriter struct {
	store     *stores.Store
	templates []models.Template
}

func NewCopywriter(store *stores.Store) *Copywriter {
	return &Copywriter{
		store: store,
		templates: []models.Template{
			{ID: "social-media", Name: "Social media post", Description: "Short copy for social platforms", Category: "social"},
			{ID: "product-description", Name: "Product description", Description: "Detailed copy covering product features and benefits", Category: "marketing"},
			{ID: "ad-copy", Name: "Ad copy", Description: "Copy that drives clicks or purchases", Category: "marketing"},
			{ID: "email-newsletter", Name: "Email newsletter", Description: "Copy suited for email campaigns", Category: "email"},
		},
	}
}

// Plugin returns the dispatch-table registration.
func (c *Copywriter) Plugin() *BuiltinPlugin {
	return &BuiltinPlugin{
		Identifier: BuiltinCopywriting,
		Title:      "AI Copywriting",
		DefaultAPI: "getTemplates",
		APIs: map[string]BuiltinHandler{
			"getTemplates":   c.getTemplates,
			"generateCopy":   c.generateCopy,
			"analyzeCopy":    c.analyzeCopy,
			"getHistory":     c.getHistory,
			"getHistoryById": c.getHistoryByID,
		},
	}
}

func (c *Copywriter) template(id string) *models.Template {
	for i := range c.templates {
		if c.templates[i].ID == id {
			return &c.templates[i]
		}
	}
	return nil
}

func (c *Copywriter) getTemplates(ctx context.Context, req *Request) (*Result, error) {
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{"templates": c.templates}}, nil
}

func (c *Copywriter) generateCopy(ctx context.Context, req *Request) (*Result, error) {
	var body models.GenerateCopyRequest
	if len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, &body); err != nil {
			return nil, errs.BadRequest("invalid request body")
		}
	}
	if body.TemplateID == "" || body.Product == "" {
		return nil, errs.BadRequest("templateId and product are required")
	}
	template := c.template(body.TemplateID)
	if template == nil {
		return nil, errs.NotFound("template not found: %s", body.TemplateID)
	}

	copyRecord := &models.Copy{
		UserID:     req.UserID,
		TemplateID: body.TemplateID,
		Product:    body.Product,
		Audience:   body.Audience,
		Tone:       body.Tone,
		Keywords:   body.Keywords,
		Content:    renderCopy(template.ID, &body),
	}
	copyRecord, err := c.store.CreateCopy(copyRecord)
	if err != nil {
		return nil, err
	}
	return &Result{Status: http.StatusCreated, Data: copyRecord}, nil
}

// renderCopy simulates copy generation from the template presets.
func renderCopy(templateID string, req *models.GenerateCopyRequest) string {
	audience := req.Audience
	if audience == "" {
		audience = "your audience"
	}
	keywords := req.Keywords
	if keywords == "" {
		keywords = "efficient, smart, convenient"
	}

	switch templateID {
	case "social-media":
		return fmt.Sprintf("%s just launched!\n\nBuilt for %s: %s. Order now and enjoy a limited-time discount.",
			req.Product, audience, keywords)
	case "product-description":
		return fmt.Sprintf("# %s\n\n## Overview\n\n%s is a %s product designed for %s.\n\n## Highlights\n\n- Easy to use\n- Reliable performance\n- Smart assistance\n- Secure by default",
			req.Product, req.Product, keywords, audience)
	case "ad-copy":
		return fmt.Sprintf("# The %s choice: %s\n\nLooking for a %s experience? %s has you covered. Act now!",
			orDefault(req.Tone, "professional"), req.Product, keywords, req.Product)
	case "email-newsletter":
		return fmt.Sprintf("Subject: What's new in %s\n\nDear %s,\n\n%s just shipped new features for a more %s experience. Update today!",
			req.Product, audience, req.Product, keywords)
	}
	return fmt.Sprintf("About %s\n\n%s is a great product for %s, featuring %s.", req.Product, req.Product, audience, keywords)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (c *Copywriter) analyzeCopy(ctx context.Context, req *Request) (*Result, error) {
	var body models.AnalyzeCopyRequest
	if len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, &body); err != nil {
			return nil, errs.BadRequest("invalid request body")
		}
	}
	if body.Content == "" {
		return nil, errs.BadRequest("copy content is required")
	}

	wordCount := len([]rune(body.Content))
	readingTime := (wordCount + 499) / 500

	sentiment := "neutral"
	lower := strings.ToLower(body.Content)
	switch {
	case strings.Contains(lower, "discount") || strings.Contains(lower, "amazing") || strings.Contains(lower, "great"):
		sentiment = "positive"
	case strings.Contains(lower, "problem") || strings.Contains(lower, "sorry") || strings.Contains(lower, "unfortunately"):
		sentiment = "negative"
	}

	analysis := &models.CopyAnalysis{
		Content:        body.Content,
		WordCount:      wordCount,
		ReadingTime:    readingTime,
		Sentiment:      sentiment,
		TargetAudience: orDefault(body.Audience, "general audience"),
		Platform:       orDefault(body.Platform, "general platform"),
		Analysis: fmt.Sprintf("## Copy analysis\n\n- Length: %d characters\n- Estimated reading time: %d min\n- Sentiment: %s",
			wordCount, readingTime, sentiment),
	}
	return &Result{Status: http.StatusOK, Data: analysis}, nil
}

func (c *Copywriter) getHistory(ctx context.Context, req *Request) (*Result, error) {
	copies, err := c.store.ListCopies(req.UserID)
	if err != nil {
		return nil, err
	}
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{"copies": copies}}, nil
}

func (c *Copywriter) getHistoryByID(ctx context.Context, req *Request) (*Result, error) {
	id, err := historyID(req)
	if err != nil {
		return nil, err
	}
	record, err := c.store.CopyByID(req.UserID, id)
	if err != nil {
		return nil, err
	}
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{"copy": record}}, nil
}
