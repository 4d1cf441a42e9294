package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
	"github.com/gokoo/ai-toolbox/plugins"
	"github.com/gokoo/ai-toolbox/stores"
)

func newTestOrchestrator(t *testing.T, store *stores.Store) *Orchestrator {
	t.Helper()
	builtins := plugins.NewBuiltinTable(store)
	gateway := plugins.NewGateway(store, builtins, 5*time.Second)
	events := NewBroadcaster()
	tracker := NewTracker(store, events)
	executor := NewExecutor(2)
	t.Cleanup(executor.Shutdown)
	completion := NewCompletionClient("", "", "", 0, 0, 0)
	return NewOrchestrator(store, nil, gateway, builtins, completion, tracker, executor, events, 20)
}

func seedSession(t *testing.T, store *stores.Store, email string) (userID, sessionID string) {
	t.Helper()
	user, err := store.CreateUser(&models.User{Name: "Tester", Email: email, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	session, err := store.CreateSession(user.ID, &models.Session{})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return user.ID, session.ID
}

// waitForContent polls until the message content leaves the placeholder
// or the deadline passes.
func waitForContent(t *testing.T, store *stores.Store, messageID string) *models.Message {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		message, err := store.MessageByID(messageID)
		if err != nil {
			t.Fatalf("failed to reload message: %v", err)
		}
		if message.Content != placeholderContent {
			return message
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("assistant message never left the placeholder")
	return nil
}

func TestSendMessageReturnsPairImmediately(t *testing.T) {
	store := newTestStore(t)
	orchestrator := newTestOrchestrator(t, store)
	userID, sessionID := seedSession(t, store, "alice@example.com")

	pair, err := orchestrator.SendMessage(userID, &models.SendMessageRequest{
		SessionID: sessionID,
		Content:   "hello there",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if pair.UserMessage.Role != models.RoleUser || pair.UserMessage.Content != "hello there" {
		t.Errorf("user message = %+v", pair.UserMessage)
	}
	if pair.AssistantMessage.Role != models.RoleAssistant {
		t.Errorf("assistant role = %s", pair.AssistantMessage.Role)
	}
	if pair.AssistantMessage.Content != placeholderContent {
		t.Errorf("assistant content = %q, want placeholder", pair.AssistantMessage.Content)
	}
	if pair.AssistantMessage.ParentID != pair.UserMessage.ID {
		t.Error("assistant message should point at its user message")
	}

	final := waitForContent(t, store, pair.AssistantMessage.ID)
	if final.Error != nil {
		t.Errorf("completion error = %+v, want none", final.Error)
	}

	// The session tip follows the assistant message. The pointer bump
	// lands just after the content write, so allow it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		session, err := store.SessionByID(userID, sessionID)
		if err != nil {
			t.Fatalf("failed to reload session: %v", err)
		}
		if session.LastMessageID == final.ID {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session tip = %q, want %q", session.LastMessageID, final.ID)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSendMessageToForeignSessionIsNotFound(t *testing.T) {
	store := newTestStore(t)
	orchestrator := newTestOrchestrator(t, store)
	_, sessionID := seedSession(t, store, "alice@example.com")
	bobID, _ := seedSession(t, store, "bob@example.com")

	_, err := orchestrator.SendMessage(bobID, &models.SendMessageRequest{
		SessionID: sessionID,
		Content:   "hi",
	})
	if errs.CodeOf(err) != 404 {
		t.Fatalf("foreign send err = %v, want 404", err)
	}
}

func TestPluginDirectiveResolvesToSuccess(t *testing.T) {
	store := newTestStore(t)
	orchestrator := newTestOrchestrator(t, store)
	userID, sessionID := seedSession(t, store, "alice@example.com")

	pair, err := orchestrator.SendMessage(userID, &models.SendMessageRequest{
		SessionID: sessionID,
		Content:   "use plugin: i18n-translator",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	final := waitForContent(t, store, pair.AssistantMessage.ID)
	if !strings.Contains(final.Content, "i18n-translator") {
		t.Errorf("content = %q, want a translator reference", final.Content)
	}
	if len(final.Tools) != 1 {
		t.Fatalf("tools len = %d, want 1", len(final.Tools))
	}
	if final.Tools[0].State != models.ToolStateSuccess {
		t.Errorf("tool state = %s, want success", final.Tools[0].State)
	}
	if final.Error != nil {
		t.Errorf("error = %+v, want none", final.Error)
	}
}

func TestChineseDirectiveIsDetected(t *testing.T) {
	identifier, ok := detectDirective("请帮我翻译，使用插件：i18n-translator")
	if !ok || identifier != "i18n-translator" {
		t.Fatalf("detect = %q, %v; want i18n-translator", identifier, ok)
	}
}

func TestDirectiveWithUnknownPluginWritesFallback(t *testing.T) {
	store := newTestStore(t)
	orchestrator := newTestOrchestrator(t, store)
	userID, sessionID := seedSession(t, store, "alice@example.com")

	pair, err := orchestrator.SendMessage(userID, &models.SendMessageRequest{
		SessionID: sessionID,
		Content:   "use plugin: ghost-plugin",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	final := waitForContent(t, store, pair.AssistantMessage.ID)
	if final.Content != fallbackContent {
		t.Errorf("content = %q, want fallback", final.Content)
	}
	if final.Error == nil || final.Error.Code != 404 {
		t.Errorf("error = %+v, want code 404", final.Error)
	}
}

func TestRegenerateValidatesRoleAndParent(t *testing.T) {
	store := newTestStore(t)
	orchestrator := newTestOrchestrator(t, store)
	userID, sessionID := seedSession(t, store, "alice@example.com")

	userMessage, err := store.CreateMessage(&models.Message{
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   "hello",
	})
	if err != nil {
		t.Fatalf("failed to create message: %v", err)
	}
	if _, err := orchestrator.Regenerate(userID, userMessage.ID); errs.CodeOf(err) != 400 {
		t.Fatalf("regenerate user message err = %v, want 400", err)
	}

	orphan, err := store.CreateMessage(&models.Message{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   "reply",
		ParentID:  "vanished",
	})
	if err != nil {
		t.Fatalf("failed to create message: %v", err)
	}
	if _, err := orchestrator.Regenerate(userID, orphan.ID); errs.CodeOf(err) != 404 {
		t.Fatalf("regenerate orphan err = %v, want 404", err)
	}
}

func TestRegenerateResetsAndRefills(t *testing.T) {
	store := newTestStore(t)
	orchestrator := newTestOrchestrator(t, store)
	userID, sessionID := seedSession(t, store, "alice@example.com")

	pair, err := orchestrator.SendMessage(userID, &models.SendMessageRequest{
		SessionID: sessionID,
		Content:   "hello",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	waitForContent(t, store, pair.AssistantMessage.ID)

	reset, err := orchestrator.Regenerate(userID, pair.AssistantMessage.ID)
	if err != nil {
		t.Fatalf("regenerate failed: %v", err)
	}
	if reset.Content != placeholderContent || reset.Error != nil || len(reset.Tools) != 0 {
		t.Errorf("reset message = %+v, want cleared placeholder", reset)
	}

	final := waitForContent(t, store, pair.AssistantMessage.ID)
	if final.Content == "" || final.Content == placeholderContent {
		t.Errorf("regenerated content = %q", final.Content)
	}
}

func TestUsePluginFailsBeforeBackgroundWork(t *testing.T) {
	store := newTestStore(t)
	orchestrator := newTestOrchestrator(t, store)
	userID, sessionID := seedSession(t, store, "alice@example.com")

	message, err := store.CreateMessage(&models.Message{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   "reply",
	})
	if err != nil {
		t.Fatalf("failed to create message: %v", err)
	}

	_, err = orchestrator.UsePlugin(userID, message.ID, &models.UsePluginRequest{PluginID: "ghost"})
	if errs.CodeOf(err) != 404 {
		t.Fatalf("unknown plugin err = %v, want 404", err)
	}

	// Nothing was attached synchronously or asynchronously.
	time.Sleep(50 * time.Millisecond)
	reloaded, _ := store.MessageByID(message.ID)
	if len(reloaded.Tools) != 0 {
		t.Errorf("tools = %d, want none after up-front rejection", len(reloaded.Tools))
	}
}

func TestUsePluginResolvesBuiltinInBackground(t *testing.T) {
	store := newTestStore(t)
	orchestrator := newTestOrchestrator(t, store)
	userID, sessionID := seedSession(t, store, "alice@example.com")

	message, err := store.CreateMessage(&models.Message{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   "reply",
	})
	if err != nil {
		t.Fatalf("failed to create message: %v", err)
	}

	updated, err := orchestrator.UsePlugin(userID, message.ID, &models.UsePluginRequest{
		PluginID: "i18n-translator",
		APIName:  "getLanguages",
	})
	if err != nil {
		t.Fatalf("use plugin failed: %v", err)
	}
	if len(updated.Tools) != 1 || updated.Tools[0].State != models.ToolStateRunning {
		t.Fatalf("tools = %+v, want one running call", updated.Tools)
	}

	toolID := updated.Tools[0].ID
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		reloaded, err := store.MessageByID(message.ID)
		if err != nil {
			t.Fatalf("failed to reload message: %v", err)
		}
		call := reloaded.FindTool(toolID)
		if call != nil && call.State.Terminal() {
			if call.State != models.ToolStateSuccess {
				t.Fatalf("tool state = %s (%+v), want success", call.State, call.Error)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("tool call never resolved")
}
