package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/gokoo/ai-toolbox/cache"
	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
	"github.com/gokoo/ai-toolbox/plugins"
	"github.com/gokoo/ai-toolbox/stores"
)

var chatLogger = log.New(os.Stdout, "[chat] ", log.LstdFlags)

const (
	// placeholderContent is the sentinel returned synchronously while
	// the assistant reply is generated in the background.
	placeholderContent = "..."

	// fallbackContent replaces the placeholder when generation fails.
	fallbackContent = "Sorry, I ran into a problem generating this reply. Please try again."

	systemPrompt = "You are a helpful assistant inside a multi-tool chat workspace. " +
		"Answer concisely and mention when a plugin produced part of the result."
)

// Plugin directives embedded in user text, in both the english and the
// chinese form: "use plugin: i18n-translator" / "使用插件：i18n-translator".
var directivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)use\s+plugin[:：]\s*([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`使用插件[:：]\s*([A-Za-z0-9_-]+)`),
}

// Orchestrator drives the message pipeline: it persists the user and
// placeholder assistant messages synchronously, then fills the
// assistant content in the background via either a plugin directive or
// the completion endpoint.
type Orchestrator struct {
	store        *stores.Store
	messageCache *cache.MessageCache
	gateway      *plugins.Gateway
	builtins     *plugins.BuiltinTable
	completion   *CompletionClient
	tracker      *Tracker
	executor     *Executor
	events       *Broadcaster
	historyLimit int
}

func NewOrchestrator(
	store *stores.Store,
	messageCache *cache.MessageCache,
	gateway *plugins.Gateway,
	builtins *plugins.BuiltinTable,
	completion *CompletionClient,
	tracker *Tracker,
	executor *Executor,
	events *Broadcaster,
	historyLimit int,
) *Orchestrator {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &Orchestrator{
		store:        store,
		messageCache: messageCache,
		gateway:      gateway,
		builtins:     builtins,
		completion:   completion,
		tracker:      tracker,
		executor:     executor,
		events:       events,
		historyLimit: historyLimit,
	}
}

// MessagePair is the synchronous response to a chat message: the stored
// user message and the placeholder assistant message being filled in
// the background.
type MessagePair struct {
	UserMessage      *models.Message `json:"userMessage"`
	AssistantMessage *models.Message `json:"assistantMessage"`
}

// SendMessage persists the user message and a placeholder assistant
// reply, bumps the session pointer, and schedules generation. The HTTP
// request never waits on the background phase.
func (o *Orchestrator) SendMessage(userID string, req *models.SendMessageRequest) (*MessagePair, error) {
	session, err := o.store.SessionByID(userID, req.SessionID)
	if err != nil {
		return nil, err
	}

	userMessage, err := o.store.CreateMessage(&models.Message{
		SessionID: session.ID,
		Role:      models.RoleUser,
		Content:   req.Content,
		ParentID:  req.ParentID,
		QuotaID:   req.QuotaID,
		Files:     req.Files,
	})
	if err != nil {
		return nil, err
	}
	if err := o.store.TouchLastMessage(session.ID, userMessage.ID, userMessage.CreatedAt); err != nil {
		return nil, err
	}

	assistantMessage, err := o.store.CreateMessage(&models.Message{
		SessionID: session.ID,
		Role:      models.RoleAssistant,
		Content:   placeholderContent,
		ParentID:  userMessage.ID,
		QuotaID:   req.QuotaID,
	})
	if err != nil {
		return nil, err
	}

	o.messageCache.Invalidate(context.Background(), session.ID)
	o.events.Publish(Event{Type: EventMessageCreated, SessionID: session.ID, Message: userMessage})
	o.events.Publish(Event{Type: EventMessageCreated, SessionID: session.ID, Message: assistantMessage})

	o.executor.Submit(func(ctx context.Context) {
		o.generate(ctx, userID, userMessage, assistantMessage)
	})

	return &MessagePair{UserMessage: userMessage, AssistantMessage: assistantMessage}, nil
}

// Regenerate resets an assistant message and re-runs generation from
// its parent user message. A still-running original generation is not
// cancelled; the last write wins.
func (o *Orchestrator) Regenerate(userID, messageID string) (*models.Message, error) {
	message, _, err := o.store.MessageForUser(userID, messageID)
	if err != nil {
		return nil, err
	}
	if message.Role != models.RoleAssistant {
		return nil, errs.BadRequest("only assistant messages can be regenerated")
	}
	if message.ParentID == "" {
		return nil, errs.NotFound("parent user message not found")
	}
	parent, err := o.store.MessageByID(message.ParentID)
	if err != nil || parent.Role != models.RoleUser {
		return nil, errs.NotFound("parent user message not found")
	}

	message.Content = placeholderContent
	message.Error = nil
	message.Tools = nil
	message, err = o.store.SaveMessage(message)
	if err != nil {
		return nil, err
	}

	o.messageCache.Invalidate(context.Background(), message.SessionID)
	o.events.Publish(Event{Type: EventMessageUpdated, SessionID: message.SessionID, Message: message})

	userMessage := parent
	assistantMessage := message
	o.executor.Submit(func(ctx context.Context) {
		o.generate(ctx, userID, userMessage, assistantMessage)
	})
	return message, nil
}

// UsePlugin attaches a running tool call for the named plugin to an
// assistant message and resolves it in the background. The plugin is
// resolved up front so an unknown pluginId fails before any background
// work starts.
func (o *Orchestrator) UsePlugin(userID, messageID string, req *models.UsePluginRequest) (*models.Message, error) {
	message, _, err := o.store.MessageForUser(userID, messageID)
	if err != nil {
		return nil, err
	}

	title, apiName, err := o.resolvePluginCall(userID, req.PluginID, req.APIName)
	if err != nil {
		return nil, err
	}

	call := models.ToolCall{
		ID:        uuid.NewString(),
		Type:      models.PluginTypeStandard,
		Name:      title,
		PluginID:  req.PluginID,
		APIName:   apiName,
		Arguments: req.Arguments,
	}
	message, started, err := o.tracker.Start(message, call)
	if err != nil {
		return nil, err
	}
	o.messageCache.Invalidate(context.Background(), message.SessionID)

	toolID := started.ID
	o.executor.Submit(func(ctx context.Context) {
		o.runTool(ctx, userID, message.ID, toolID, req.PluginID, apiName, req.Arguments)
	})
	return message, nil
}

// resolvePluginCall checks that the plugin exists and picks the api to
// invoke. Builtins take precedence over installed plugins.
func (o *Orchestrator) resolvePluginCall(userID, pluginID, apiName string) (title, api string, err error) {
	if builtin, ok := o.builtins.Lookup(pluginID); ok {
		if apiName == "" {
			apiName = builtin.DefaultAPI
		}
		if _, ok := builtin.APIs[apiName]; !ok {
			return "", "", errs.NotFound("api not found in plugin %s: %s", pluginID, apiName)
		}
		return builtin.Title, apiName, nil
	}

	plugin, err := o.store.PluginByID(userID, pluginID)
	if err != nil {
		plugin, err = o.store.PluginByIdentifier(userID, pluginID)
	}
	if err != nil {
		return "", "", errs.NotFound("plugin not installed: %s", pluginID)
	}
	if apiName == "" {
		if len(plugin.Manifest.API) == 0 {
			return "", "", errs.NotFound("plugin %s declares no apis", pluginID)
		}
		apiName = plugin.Manifest.API[0].Name
	} else if plugin.Manifest.FindAPI(apiName) == nil {
		return "", "", errs.NotFound("api not found in plugin %s: %s", pluginID, apiName)
	}
	return plugin.Title(), apiName, nil
}

// generate fills the assistant message in the background. Failures are
// folded into the message's error payload and never reach the caller.
func (o *Orchestrator) generate(ctx context.Context, userID string, userMessage, assistantMessage *models.Message) {
	content, toolErr := o.produce(ctx, userID, userMessage, assistantMessage)

	// The background phase may have raced a regenerate; reload so tool
	// calls written through the tracker are not clobbered.
	current, err := o.store.MessageByID(assistantMessage.ID)
	if err != nil {
		chatLogger.Printf("assistant message %s vanished mid-generation: %v", assistantMessage.ID, err)
		return
	}

	if toolErr != nil {
		current.Content = fallbackContent
		current.Error = errorPayload(toolErr)
	} else {
		current.Content = content
		current.Error = nil
	}

	saved, err := o.store.SaveMessage(current)
	if err != nil {
		chatLogger.Printf("failed to store assistant reply %s: %v", current.ID, err)
		return
	}
	if err := o.store.TouchLastMessage(saved.SessionID, saved.ID, time.Now().UTC()); err != nil {
		chatLogger.Printf("failed to bump session pointer for %s: %v", saved.SessionID, err)
	}

	o.messageCache.Invalidate(ctx, saved.SessionID)
	o.events.Publish(Event{Type: EventMessageUpdated, SessionID: saved.SessionID, Message: saved})
}

// produce computes the assistant content: a plugin directive in the
// user text wins over a completion call.
func (o *Orchestrator) produce(ctx context.Context, userID string, userMessage, assistantMessage *models.Message) (string, error) {
	if identifier, ok := detectDirective(userMessage.Content); ok {
		return o.runDirective(ctx, userID, assistantMessage, identifier)
	}

	history, err := o.store.History(userMessage.SessionID, assistantMessage.ID, o.historyLimit)
	if err != nil {
		return "", err
	}
	withPrompt := make([]*models.Message, 0, len(history)+1)
	withPrompt = append(withPrompt, &models.Message{Role: models.RoleSystem, Content: systemPrompt})
	withPrompt = append(withPrompt, history...)

	return o.completion.Complete(ctx, withPrompt)
}

// runDirective invokes the named plugin through the gateway, tracking
// the call on the assistant message, and renders a textual summary.
func (o *Orchestrator) runDirective(ctx context.Context, userID string, assistantMessage *models.Message, identifier string) (string, error) {
	title, apiName, err := o.resolvePluginCall(userID, identifier, "")
	if err != nil {
		return "", err
	}

	call := models.ToolCall{
		ID:       uuid.NewString(),
		Type:     models.PluginTypeStandard,
		Name:     title,
		PluginID: identifier,
		APIName:  apiName,
	}
	message, started, err := o.tracker.Start(assistantMessage, call)
	if err != nil {
		return "", err
	}

	result, err := o.gateway.Dispatch(ctx, identifier, apiName, &plugins.Request{UserID: userID})
	if err != nil {
		if _, rerr := o.tracker.Resolve(message, started.ID, models.ToolStateError, nil, errorPayload(err)); rerr != nil {
			chatLogger.Printf("failed to record tool error on %s: %v", message.ID, rerr)
		}
		return "", err
	}

	if _, err := o.tracker.Resolve(message, started.ID, models.ToolStateSuccess, resultPayload(result), nil); err != nil {
		chatLogger.Printf("failed to record tool result on %s: %v", message.ID, err)
	}
	return fmt.Sprintf("Plugin %s (%s) ran successfully via %s.", title, identifier, apiName), nil
}

// runTool resolves an explicitly requested tool call in the background.
func (o *Orchestrator) runTool(ctx context.Context, userID, messageID, toolID, pluginID, apiName string, arguments map[string]interface{}) {
	var body []byte
	if arguments != nil {
		body, _ = json.Marshal(arguments)
	}

	result, err := o.gateway.Dispatch(ctx, pluginID, apiName, &plugins.Request{UserID: userID, Body: body})

	message, derr := o.store.MessageByID(messageID)
	if derr != nil {
		chatLogger.Printf("message %s vanished while tool %s ran: %v", messageID, toolID, derr)
		return
	}

	if err != nil {
		if _, rerr := o.tracker.Resolve(message, toolID, models.ToolStateError, nil, errorPayload(err)); rerr != nil {
			chatLogger.Printf("failed to record tool error on %s: %v", messageID, rerr)
		}
	} else if _, rerr := o.tracker.Resolve(message, toolID, models.ToolStateSuccess, resultPayload(result), nil); rerr != nil {
		chatLogger.Printf("failed to record tool result on %s: %v", messageID, rerr)
	}
	o.messageCache.Invalidate(ctx, message.SessionID)
}

// detectDirective extracts the plugin identifier from a directive in
// the text, if any.
func detectDirective(text string) (string, bool) {
	for _, pattern := range directivePatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return match[1], true
		}
	}
	return "", false
}

// errorPayload converts an error into the stored message error bag.
func errorPayload(err error) *models.ErrorPayload {
	return &models.ErrorPayload{Message: err.Error(), Code: errs.CodeOf(err)}
}

// resultPayload shapes a gateway result for storage on the tool call.
func resultPayload(result *plugins.Result) map[string]interface{} {
	if result == nil {
		return nil
	}
	if result.Data != nil {
		if m, ok := result.Data.(map[string]interface{}); ok {
			return m
		}
		return map[string]interface{}{"data": result.Data}
	}
	var decoded map[string]interface{}
	if len(result.Raw) > 0 && json.Unmarshal(result.Raw, &decoded) == nil {
		return decoded
	}
	return map[string]interface{}{"raw": string(result.Raw), "status": result.Status}
}
