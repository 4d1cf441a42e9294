package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
	"github.com/gokoo/ai-toolbox/stores"
)

// Prototyper is the ai-prototype builtin. Generation is simulated;
// history is persisted through the store.
type Prototyper struct {
	store     *stores.Store
	templates []models.Template
}

func NewPrototyper(store *stores.Store) *Prototyper {
	return &Prototyper{
		store: store,
		templates: []models.Template{
			{ID: "web-app", Name: "Web app", Description: "Web application interface prototypes", Category: "web"},
			{ID: "mobile-app", Name: "Mobile app", Description: "Mobile application interface prototypes", Category: "mobile"},
			{ID: "dashboard", Name: "Dashboard", Description: "Data visualization dashboard prototypes", Category: "web"},
			{ID: "landing-page", Name: "Landing page", Description: "Marketing landing page prototypes", Category: "web"},
		},
	}
}

// Plugin returns the dispatch-table registration.
func (p *Prototyper) Plugin() *BuiltinPlugin {
	return &BuiltinPlugin{
		Identifier: BuiltinPrototype,
		Title:      "AI Prototype",
		DefaultAPI: "getTemplates",
		APIs: map[string]BuiltinHandler{
			"getTemplates":      p.getTemplates,
			"generatePrototype": p.generatePrototype,
			"getHistory":        p.getHistory,
			"getHistoryById":    p.getHistoryByID,
		},
	}
}

func (p *Prototyper) template(id string) *models.Template {
	for i := range p.templates {
		if p.templates[i].ID == id {
			return &p.templates[i]
		}
	}
	return nil
}

func (p *Prototyper) getTemplates(ctx context.Context, req *Request) (*Result, error) {
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{"templates": p.templates}}, nil
}

func (p *Prototyper) generatePrototype(ctx context.Context, req *Request) (*Result, error) {
	var body models.GeneratePrototypeRequest
	if len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, &body); err != nil {
			return nil, errs.BadRequest("invalid request body")
		}
	}
	if body.TemplateID == "" || body.Description == "" {
		return nil, errs.BadRequest("templateId and description are required")
	}
	if p.template(body.TemplateID) == nil {
		return nil, errs.NotFound("template not found: %s", body.TemplateID)
	}

	prototype := &models.Prototype{
		UserID:      req.UserID,
		TemplateID:  body.TemplateID,
		Description: body.Description,
		Elements:    body.Elements,
		Style:       body.Style,
		Status:      "completed",
		PreviewURL:  fmt.Sprintf("https://example.com/prototypes/%s-preview.html", body.TemplateID),
		DownloadURL: fmt.Sprintf("https://example.com/prototypes/%s-download.zip", body.TemplateID),
	}
	prototype, err := p.store.CreatePrototype(prototype)
	if err != nil {
		return nil, err
	}
	return &Result{Status: http.StatusCreated, Data: prototype}, nil
}

func (p *Prototyper) getHistory(ctx context.Context, req *Request) (*Result, error) {
	prototypes, err := p.store.ListPrototypes(req.UserID)
	if err != nil {
		return nil, err
	}
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{"prototypes": prototypes}}, nil
}

func (p *Prototyper) getHistoryByID(ctx context.Context, req *Request) (*Result, error) {
	id, err := historyID(req)
	if err != nil {
		return nil, err
	}
	prototype, err := p.store.PrototypeByID(req.UserID, id)
	if err != nil {
		return nil, err
	}
	return &Result{Status: http.StatusOK, Data: map[string]interface{}{"prototype": prototype}}, nil
}
