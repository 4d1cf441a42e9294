package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gokoo/ai-toolbox/auth"
	"github.com/gokoo/ai-toolbox/chat"
	"github.com/gokoo/ai-toolbox/models"
	"github.com/gokoo/ai-toolbox/plugins"
	"github.com/gokoo/ai-toolbox/stores"
)

type testEnv struct {
	store  *stores.Store
	jwt    *auth.JWTService
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := stores.NewSQLiteStore(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtService := auth.NewJWTService("test-secret", 1)
	builtins := plugins.NewBuiltinTable(store)
	registry := plugins.NewRegistry(store, nil)
	gateway := plugins.NewGateway(store, builtins, 5*time.Second)

	events := chat.NewBroadcaster()
	tracker := chat.NewTracker(store, events)
	executor := chat.NewExecutor(2)
	t.Cleanup(executor.Shutdown)
	completion := chat.NewCompletionClient("", "", "", 0, 0, 0)
	orchestrator := chat.NewOrchestrator(store, nil, gateway, builtins, completion, tracker, executor, events, 20)

	srv := NewServer(store, nil, jwtService, registry, builtins, gateway, orchestrator, tracker, events)
	return &testEnv{store: store, jwt: jwtService, router: srv.Router()}
}

func (e *testEnv) signup(t *testing.T, email string) (userID, token string) {
	t.Helper()
	user, err := e.store.CreateUser(&models.User{Name: "Tester", Email: email, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	token, _, err = e.jwt.GenerateToken(user.ID, user.Name)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return user.ID, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/sessions", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", models.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Data.Token == "" {
		t.Fatalf("login response lacks token: %s", rec.Body)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrongpassword",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", rec.Code)
	}
}

func TestForeignSessionReadIs404NotForbidden(t *testing.T) {
	env := newTestEnv(t)
	aliceID, _ := env.signup(t, "alice@example.com")
	_, bobToken := env.signup(t, "bob@example.com")

	session, err := env.store.CreateSession(aliceID, &models.Session{Topic: "private"})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/sessions/"+session.ID, bobToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign read status = %d, want 404 (never 403)", rec.Code)
	}
}

func TestInstallPluginStatusCodes(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "alice@example.com")

	install := models.InstallPluginRequest{
		Identifier: "weather",
		Manifest: &models.Manifest{
			Identifier: "weather",
			API:        []models.ManifestAPI{{Name: "now", URL: "https://weather.example.com/now"}},
		},
	}

	rec := env.do(t, http.MethodPost, "/api/v1/plugins", token, install)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first install status = %d, want 201; body %s", rec.Code, rec.Body)
	}
	rec = env.do(t, http.MethodPost, "/api/v1/plugins", token, install)
	if rec.Code != http.StatusOK {
		t.Fatalf("reinstall status = %d, want 200; body %s", rec.Code, rec.Body)
	}
}

func TestBuiltinGatewayOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "alice@example.com")

	rec := env.do(t, http.MethodPost, "/api/v1/plugin-gateway/builtin/i18n-translator/getLanguages", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("builtin dispatch status = %d, body %s", rec.Code, rec.Body)
	}

	var resp struct {
		Data struct {
			Languages []models.Language `json:"languages"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(resp.Data.Languages) == 0 {
		t.Error("language list is empty")
	}

	rec = env.do(t, http.MethodPost, "/api/v1/plugin-gateway/builtin/not-builtin/run", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("non-builtin on builtin route status = %d, want 404", rec.Code)
	}
}

func TestDeleteSessionCascadesOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	aliceID, token := env.signup(t, "alice@example.com")

	session, _ := env.store.CreateSession(aliceID, &models.Session{})
	for i := 0; i < 3; i++ {
		env.store.CreateMessage(&models.Message{
			SessionID: session.ID,
			Role:      models.RoleUser,
			Content:   "hi",
		})
	}

	rec := env.do(t, http.MethodDelete, "/api/v1/sessions/"+session.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	messages, err := env.store.ListMessages(session.ID, 0, "")
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("messages after delete = %d, want 0", len(messages))
	}
}

func TestUpdateToolStateOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	aliceID, token := env.signup(t, "alice@example.com")

	session, _ := env.store.CreateSession(aliceID, &models.Session{})
	message, _ := env.store.CreateMessage(&models.Message{
		SessionID: session.ID,
		Role:      models.RoleAssistant,
		Content:   "reply",
		Tools: []models.ToolCall{{
			ID:       "tool-1",
			Name:     "Weather",
			PluginID: "weather",
			APIName:  "now",
			State:    models.ToolStateRunning,
		}},
	})

	rec := env.do(t, http.MethodPatch, "/api/v1/messages/"+message.ID+"/tools/tool-1", token,
		models.UpdateToolStateRequest{
			State:    models.ToolStateSuccess,
			Response: map[string]interface{}{"temp": 21},
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}

	reloaded, _ := env.store.MessageByID(message.ID)
	if got := reloaded.FindTool("tool-1").State; got != models.ToolStateSuccess {
		t.Errorf("state = %s, want success", got)
	}

	// A second transition out of a terminal state is a conflict.
	rec = env.do(t, http.MethodPatch, "/api/v1/messages/"+message.ID+"/tools/tool-1", token,
		models.UpdateToolStateRequest{State: models.ToolStateRunning})
	if rec.Code != http.StatusConflict {
		t.Fatalf("terminal update status = %d, want 409", rec.Code)
	}
}
