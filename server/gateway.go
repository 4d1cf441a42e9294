package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/plugins"
)

// dispatchPlugin handles ANY /plugin-gateway/:pluginId/:apiName.
// Builtin identifiers run in process even here; everything else is
// proxied with the downstream status and body relayed untouched.
func (s *Server) dispatchPlugin(c *gin.Context) {
	s.dispatch(c, c.Param("pluginId"))
}

// dispatchBuiltin handles ANY /plugin-gateway/builtin/:pluginId/:apiName
// and only accepts reserved builtin identifiers.
func (s *Server) dispatchBuiltin(c *gin.Context) {
	pluginID := c.Param("pluginId")
	if !s.builtins.Reserved(pluginID) {
		respondError(c, errs.NotFound("builtin plugin not found: %s", pluginID))
		return
	}
	s.dispatch(c, pluginID)
}

func (s *Server) dispatch(c *gin.Context, pluginID string) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, errs.BadRequest("failed to read request body"))
		return
	}

	req := &plugins.Request{
		UserID: userID(c),
		Method: c.Request.Method,
		Query:  c.Request.URL.Query(),
		Header: c.Request.Header,
		Body:   body,
	}

	result, err := s.gateway.Dispatch(c.Request.Context(), pluginID, c.Param("apiName"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	relay(c, result)
}

// relay writes a gateway result: builtin handlers return structured
// data, proxied calls return the downstream body verbatim.
func relay(c *gin.Context, result *plugins.Result) {
	status := result.Status
	if status == 0 {
		status = http.StatusOK
	}
	if result.Data != nil {
		respond(c, status, result.Data)
		return
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(status, contentType, result.Raw)
}
