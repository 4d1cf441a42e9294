package plugins

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
	"github.com/gokoo/ai-toolbox/stores"
)

func newTestGateway(t *testing.T, store *stores.Store) *Gateway {
	t.Helper()
	return NewGateway(store, NewBuiltinTable(store), 5*time.Second)
}

func installProxy(t *testing.T, store *stores.Store, userID, identifier, baseURL string, settings map[string]interface{}) *models.Plugin {
	t.Helper()
	plugin, err := store.CreatePlugin(userID, &models.Plugin{
		Identifier: identifier,
		Type:       models.PluginTypeCustom,
		Manifest: models.Manifest{
			Identifier: identifier,
			API: []models.ManifestAPI{
				{Name: "search", URL: "/v1/search", Method: "GET"},
				{Name: "submit", URL: "/v1/submit", Method: "POST"},
			},
		},
		Settings:     settings,
		CustomParams: &models.CustomParams{BaseURL: baseURL, APIMode: models.APIModeProxy},
	})
	if err != nil {
		t.Fatalf("failed to install proxy plugin: %v", err)
	}
	return plugin
}

func TestDispatchProxyForwardsQueryHeadersAndSettings(t *testing.T) {
	var got *http.Request
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer downstream.Close()

	store := newTestStore(t)
	alice := newTestUser(t, store, "alice@example.com")
	plugin := installProxy(t, store, alice.ID, "search-api", downstream.URL,
		map[string]interface{}{"apiKey": "secret"})
	gateway := newTestGateway(t, store)

	req := &Request{
		UserID: alice.ID,
		Method: http.MethodPost, // manifest says GET; manifest wins
		Query:  url.Values{"q": {"golang"}},
		Header: http.Header{
			"X-Custom":      {"yes"},
			"Authorization": {"Bearer should-not-forward"},
		},
		Body: []byte(`{"ignored":"GET has no body"}`),
	}
	result, err := gateway.Dispatch(context.Background(), plugin.ID, "search", req)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if result.Status != http.StatusOK {
		t.Errorf("status = %d, want downstream 200 passthrough", result.Status)
	}
	if string(result.Raw) != `{"ok":true}` {
		t.Errorf("body = %s, want verbatim relay", result.Raw)
	}
	if got.Method != http.MethodGet {
		t.Errorf("method = %s, want manifest GET", got.Method)
	}
	if got.URL.Path != "/v1/search" {
		t.Errorf("path = %s, want /v1/search", got.URL.Path)
	}
	if got.URL.Query().Get("q") != "golang" {
		t.Error("query parameter not forwarded")
	}
	if got.Header.Get("X-Custom") != "yes" {
		t.Error("custom header not forwarded")
	}
	if got.Header.Get("Authorization") != "" {
		t.Error("caller authorization must not be forwarded")
	}

	var settings map[string]interface{}
	if err := json.Unmarshal([]byte(got.Header.Get("X-Plugin-Settings")), &settings); err != nil {
		t.Fatalf("settings header missing or invalid: %v", err)
	}
	if settings["apiKey"] != "secret" {
		t.Errorf("settings header = %v, want apiKey=secret", settings)
	}
}

func TestDispatchProxyForwardsBodyOnPost(t *testing.T) {
	var gotBody []byte
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{}`))
	}))
	defer downstream.Close()

	store := newTestStore(t)
	alice := newTestUser(t, store, "alice@example.com")
	plugin := installProxy(t, store, alice.ID, "submit-api", downstream.URL, nil)
	gateway := newTestGateway(t, store)

	body := []byte(`{"value":42}`)
	if _, err := gateway.Dispatch(context.Background(), plugin.ID, "submit", &Request{
		UserID: alice.ID,
		Body:   body,
	}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if string(gotBody) != string(body) {
		t.Errorf("downstream body = %s, want %s", gotBody, body)
	}
}

func TestDispatchProxyKeepsBasePathPrefix(t *testing.T) {
	var gotPath string
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer downstream.Close()

	store := newTestStore(t)
	alice := newTestUser(t, store, "alice@example.com")
	// The declared api path is appended to the base, so a base with a
	// path prefix keeps it.
	plugin := installProxy(t, store, alice.ID, "prefixed-api", downstream.URL+"/api/", nil)
	gateway := newTestGateway(t, store)

	if _, err := gateway.Dispatch(context.Background(), plugin.ID, "search", &Request{UserID: alice.ID}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if gotPath != "/api/v1/search" {
		t.Errorf("downstream path = %s, want /api/v1/search", gotPath)
	}
}

func TestDispatchProxyDownstreamFailureBecomesGatewayError(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message":"upstream exploded"}`))
	}))
	defer downstream.Close()

	store := newTestStore(t)
	alice := newTestUser(t, store, "alice@example.com")
	plugin := installProxy(t, store, alice.ID, "flaky-api", downstream.URL, nil)
	gateway := newTestGateway(t, store)

	_, err := gateway.Dispatch(context.Background(), plugin.ID, "search", &Request{UserID: alice.ID})
	if err == nil {
		t.Fatal("downstream failure must surface as an error")
	}
	if errs.CodeOf(err) != http.StatusBadGateway {
		t.Errorf("err code = %d, want downstream 502", errs.CodeOf(err))
	}
	var opErr *errs.Error
	if !errors.As(err, &opErr) {
		t.Fatalf("err = %T, want *errs.Error", err)
	}
	if opErr.Message != "upstream exploded" {
		t.Errorf("err message = %q, want downstream message", opErr.Message)
	}
}

func TestDispatchBuiltinPrecedenceOverShadowingPlugin(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("downstream must not be hit for a reserved builtin identifier")
	}))
	defer downstream.Close()

	store := newTestStore(t)
	alice := newTestUser(t, store, "alice@example.com")
	// A custom plugin shadowing the reserved builtin identifier.
	installProxy(t, store, alice.ID, BuiltinPrototype, downstream.URL, nil)
	gateway := newTestGateway(t, store)

	result, err := gateway.Dispatch(context.Background(), BuiltinPrototype, "getTemplates", &Request{UserID: alice.ID})
	if err != nil {
		t.Fatalf("builtin dispatch failed: %v", err)
	}
	if result.Data == nil {
		t.Fatal("builtin dispatch should return structured data")
	}
}

func TestDispatchUnknownPluginIsNotFound(t *testing.T) {
	store := newTestStore(t)
	alice := newTestUser(t, store, "alice@example.com")
	gateway := newTestGateway(t, store)

	_, err := gateway.Dispatch(context.Background(), "ghost", "run", &Request{UserID: alice.ID})
	if errs.CodeOf(err) != 404 {
		t.Fatalf("unknown plugin err = %v, want 404", err)
	}
}

func TestDispatchUnknownAPINameIsNotFound(t *testing.T) {
	store := newTestStore(t)
	alice := newTestUser(t, store, "alice@example.com")
	plugin := installProxy(t, store, alice.ID, "search-api", "https://api.example.com", nil)
	gateway := newTestGateway(t, store)

	_, err := gateway.Dispatch(context.Background(), plugin.ID, "nonexistent", &Request{UserID: alice.ID})
	if errs.CodeOf(err) != 404 {
		t.Fatalf("unknown api err = %v, want 404", err)
	}
}

func TestDispatchRejectsInvalidBaseURL(t *testing.T) {
	store := newTestStore(t)
	alice := newTestUser(t, store, "alice@example.com")
	plugin := installProxy(t, store, alice.ID, "broken", "not-a-url", nil)
	gateway := newTestGateway(t, store)

	_, err := gateway.Dispatch(context.Background(), plugin.ID, "search", &Request{UserID: alice.ID})
	if errs.CodeOf(err) != 400 {
		t.Fatalf("invalid baseUrl err = %v, want 400", err)
	}
}

func TestDispatchTranslatorRoundTrip(t *testing.T) {
	store := newTestStore(t)
	alice := newTestUser(t, store, "alice@example.com")
	gateway := newTestGateway(t, store)

	body, _ := json.Marshal(models.TranslateTextRequest{Text: "hello", TargetLanguage: "fr"})
	result, err := gateway.Dispatch(context.Background(), BuiltinTranslator, "translateText", &Request{
		UserID: alice.ID,
		Body:   body,
	})
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	data, ok := result.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("result data = %T, want map", result.Data)
	}
	translation, ok := data["translation"].(*models.Translation)
	if !ok {
		t.Fatalf("translation payload = %T", data["translation"])
	}
	if translation.TranslatedText != "[fr] hello" {
		t.Errorf("translated = %q, want [fr] hello", translation.TranslatedText)
	}

	// History is persisted through the store, not globals.
	history, err := store.ListTranslations(alice.ID)
	if err != nil {
		t.Fatalf("failed to list translations: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history len = %d, want 1", len(history))
	}
}

func TestDispatchTranslatorHistoryByIDAndDelete(t *testing.T) {
	store := newTestStore(t)
	alice := newTestUser(t, store, "alice@example.com")
	gateway := newTestGateway(t, store)

	body, _ := json.Marshal(models.TranslateTextRequest{Text: "hello", TargetLanguage: "de"})
	if _, err := gateway.Dispatch(context.Background(), BuiltinTranslator, "translateText", &Request{
		UserID: alice.ID,
		Body:   body,
	}); err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	history, err := store.ListTranslations(alice.ID)
	if err != nil || len(history) != 1 {
		t.Fatalf("history = %v (err %v), want one entry", history, err)
	}

	result, err := gateway.Dispatch(context.Background(), BuiltinTranslator, "getHistoryById", &Request{
		UserID: alice.ID,
		Query:  url.Values{"id": {history[0].ID}},
	})
	if err != nil {
		t.Fatalf("getHistoryById failed: %v", err)
	}
	data := result.Data.(map[string]interface{})
	translation, ok := data["translation"].(*models.Translation)
	if !ok || translation.ID != history[0].ID {
		t.Fatalf("getHistoryById payload = %v", data["translation"])
	}

	// Missing id is a client error, not a crash.
	_, err = gateway.Dispatch(context.Background(), BuiltinTranslator, "getHistoryById", &Request{
		UserID: alice.ID,
		Query:  url.Values{},
	})
	if errs.CodeOf(err) != 400 {
		t.Fatalf("missing id err = %v, want 400", err)
	}

	if _, err := gateway.Dispatch(context.Background(), BuiltinTranslator, "deleteHistory", &Request{
		UserID: alice.ID,
		Query:  url.Values{"id": {history[0].ID}},
	}); err != nil {
		t.Fatalf("deleteHistory failed: %v", err)
	}
	if remaining, _ := store.ListTranslations(alice.ID); len(remaining) != 0 {
		t.Fatalf("history after delete = %d entries, want 0", len(remaining))
	}

	// The deleted record is gone for good.
	_, err = gateway.Dispatch(context.Background(), BuiltinTranslator, "deleteHistory", &Request{
		UserID: alice.ID,
		Query:  url.Values{"id": {history[0].ID}},
	})
	if errs.CodeOf(err) != 404 {
		t.Fatalf("delete of deleted err = %v, want 404", err)
	}
}
