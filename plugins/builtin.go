// Package plugins implements the plugin registry, the builtin plugin
// table, and the gateway dispatcher that routes (pluginId, apiName)
// pairs to an internal handler or an outbound proxy call.
package plugins

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/stores"
)

// Request carries the inbound call forwarded to a plugin API.
type Request struct {
	UserID string
	Method string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Result is a dispatched call's outcome. Raw, when set, is relayed to
// the client verbatim with ContentType (proxy responses); otherwise Data
// is wrapped in the standard envelope.
type Result struct {
	Status      int
	Raw         []byte
	ContentType string
	Data        interface{}
}

// BuiltinHandler executes one builtin plugin API.
type BuiltinHandler func(ctx context.Context, req *Request) (*Result, error)

// BuiltinPlugin is a plugin handled by code in this backend rather than
// proxied to an external endpoint.
type BuiltinPlugin struct {
	Identifier string
	Title      string
	// DefaultAPI is invoked when a caller names the plugin without an
	// api, such as a chat directive. It must accept an empty request.
	DefaultAPI string
	APIs       map[string]BuiltinHandler
}

// Reserved builtin identifiers. These are never resolved against a
// user's installed plugins, even when a custom plugin shadows the name.
const (
	BuiltinPrototype   = "ai-prototype"
	BuiltinCopywriting = "ai-copywriting"
	BuiltinTranslator  = "i18n-translator"
)

// BuiltinTable is the closed dispatch table, built once at startup from
// the static registration list below.
type BuiltinTable struct {
	plugins map[string]*BuiltinPlugin
}

// NewBuiltinTable registers the builtin plugins against the store.
func NewBuiltinTable(store *stores.Store) *BuiltinTable {
	table := &BuiltinTable{plugins: make(map[string]*BuiltinPlugin)}
	for _, p := range []*BuiltinPlugin{
		NewPrototyper(store).Plugin(),
		NewCopywriter(store).Plugin(),
		NewTranslator(store).Plugin(),
	} {
		table.plugins[p.Identifier] = p
	}
	return table
}

// Lookup returns the builtin plugin registered under identifier.
func (t *BuiltinTable) Lookup(identifier string) (*BuiltinPlugin, bool) {
	p, ok := t.plugins[identifier]
	return p, ok
}

// Reserved reports whether identifier belongs to the builtin set.
func (t *BuiltinTable) Reserved(identifier string) bool {
	_, ok := t.plugins[identifier]
	return ok
}

// historyID pulls the record id out of a history request.
func historyID(req *Request) (string, error) {
	id := req.Query.Get("id")
	if id == "" {
		return "", errs.BadRequest("history id is required")
	}
	return id, nil
}
