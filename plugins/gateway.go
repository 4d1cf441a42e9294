package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
	"github.com/gokoo/ai-toolbox/stores"
)

var gatewayLogger = log.New(os.Stdout, "[gateway] ", log.LstdFlags)

// settingsHeader carries the plugin's stored settings to the downstream
// service on proxied calls.
const settingsHeader = "X-Plugin-Settings"

// Gateway dispatches plugin API calls: builtin identifiers run in
// process, everything else is forwarded over HTTP according to the
// installed plugin's manifest.
type Gateway struct {
	store    *stores.Store
	builtins *BuiltinTable
	client   *http.Client
}

func NewGateway(store *stores.Store, builtins *BuiltinTable, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		store:    store,
		builtins: builtins,
		client:   &http.Client{Timeout: timeout},
	}
}

// Dispatch resolves pluginID and invokes apiName. Builtin identifiers
// take precedence over installed plugins; installed plugins are looked
// up by record ID, then by identifier. The returned Result carries the
// downstream status and body verbatim for proxied calls.
func (g *Gateway) Dispatch(ctx context.Context, pluginID, apiName string, req *Request) (*Result, error) {
	if builtin, ok := g.builtins.Lookup(pluginID); ok {
		return g.dispatchBuiltin(ctx, builtin, apiName, req)
	}

	plugin, err := g.resolvePlugin(req.UserID, pluginID)
	if err != nil {
		return nil, err
	}

	api := plugin.Manifest.FindAPI(apiName)
	if api == nil {
		return nil, errs.NotFound("api not found in plugin manifest: %s", apiName)
	}

	target, err := g.resolveTarget(plugin, api)
	if err != nil {
		return nil, err
	}
	return g.forward(ctx, plugin, api, target, req)
}

func (g *Gateway) dispatchBuiltin(ctx context.Context, builtin *BuiltinPlugin, apiName string, req *Request) (*Result, error) {
	handler, ok := builtin.APIs[apiName]
	if !ok {
		return nil, errs.NotFound("api not found in plugin %s: %s", builtin.Identifier, apiName)
	}
	return handler(ctx, req)
}

// resolvePlugin finds the caller's installed plugin by record ID first,
// then by identifier.
func (g *Gateway) resolvePlugin(userID, pluginID string) (*models.Plugin, error) {
	plugin, err := g.store.PluginByID(userID, pluginID)
	if err == nil {
		return plugin, nil
	}
	if errs.CodeOf(err) != http.StatusNotFound {
		return nil, err
	}
	plugin, err = g.store.PluginByIdentifier(userID, pluginID)
	if err != nil {
		return nil, errs.NotFound("plugin not installed: %s", pluginID)
	}
	return plugin, nil
}

// resolveTarget produces the absolute downstream URL for the call.
// Custom proxy plugins join their baseUrl with the API path; standard
// plugins must declare an absolute URL in the manifest.
func (g *Gateway) resolveTarget(plugin *models.Plugin, api *models.ManifestAPI) (string, error) {
	if plugin.Type == models.PluginTypeCustom && plugin.CustomParams != nil &&
		plugin.CustomParams.APIMode == models.APIModeProxy && plugin.CustomParams.BaseURL != "" {
		if !isAbsoluteURL(plugin.CustomParams.BaseURL) {
			return "", errs.BadRequest("plugin baseUrl is not a valid absolute URL")
		}
		// The final URL is base + declared path, keeping any path prefix
		// on the base.
		return strings.TrimSuffix(plugin.CustomParams.BaseURL, "/") + api.URL, nil
	}

	if !isAbsoluteURL(api.URL) {
		return "", errs.BadRequest("plugin api url must be absolute: %s", api.URL)
	}
	return api.URL, nil
}

// forward relays the call downstream and returns status, body and
// content type untouched.
func (g *Gateway) forward(ctx context.Context, plugin *models.Plugin, api *models.ManifestAPI, target string, req *Request) (*Result, error) {
	method := api.Method
	if method == "" {
		method = req.Method
	}
	if method == "" {
		method = http.MethodPost
	}
	method = strings.ToUpper(method)

	var body io.Reader
	if hasBody(method) && len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errs.BadRequest("invalid plugin request: %v", err)
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for key, values := range req.Query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	copyForwardHeaders(httpReq.Header, req.Header)
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if len(plugin.Settings) > 0 {
		if encoded, err := json.Marshal(plugin.Settings); err == nil {
			httpReq.Header.Set(settingsHeader, string(encoded))
		}
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		gatewayLogger.Printf("forward %s %s failed: %v", method, target, err)
		return nil, errs.Gateway(0, "plugin call failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Gateway(resp.StatusCode, "failed to read plugin response: %v", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errs.Gateway(resp.StatusCode, "%s", downstreamMessage(resp.StatusCode, raw))
	}

	return &Result{
		Status:      resp.StatusCode,
		Raw:         raw,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// downstreamMessage extracts the error message from a failed plugin
// response body, falling back to the status text.
func downstreamMessage(status int, raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		return body.Message
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 200 {
		return text
	}
	return http.StatusText(status)
}

// hasBody reports whether the request body is forwarded for the method.
func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// copyForwardHeaders copies client headers downstream, skipping hop
// scoped and auth headers that belong to this service.
func copyForwardHeaders(dst, src http.Header) {
	for key, values := range src {
		switch http.CanonicalHeaderKey(key) {
		case "Host", "Connection", "Content-Length", "Authorization", "Cookie", "Accept-Encoding":
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}
