package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gokoo/ai-toolbox/auth"
	"github.com/gokoo/ai-toolbox/cache"
	"github.com/gokoo/ai-toolbox/chat"
	"github.com/gokoo/ai-toolbox/plugins"
	"github.com/gokoo/ai-toolbox/stores"
)

// Server wires the REST surface onto the domain components.
type Server struct {
	store        *stores.Store
	messageCache *cache.MessageCache
	jwt          *auth.JWTService
	registry     *plugins.Registry
	builtins     *plugins.BuiltinTable
	gateway      *plugins.Gateway
	orchestrator *chat.Orchestrator
	tracker      *chat.Tracker
	events       *chat.Broadcaster
}

func NewServer(
	store *stores.Store,
	messageCache *cache.MessageCache,
	jwt *auth.JWTService,
	registry *plugins.Registry,
	builtins *plugins.BuiltinTable,
	gateway *plugins.Gateway,
	orchestrator *chat.Orchestrator,
	tracker *chat.Tracker,
	events *chat.Broadcaster,
) *Server {
	return &Server{
		store:        store,
		messageCache: messageCache,
		jwt:          jwt,
		registry:     registry,
		builtins:     builtins,
		gateway:      gateway,
		orchestrator: orchestrator,
		tracker:      tracker,
		events:       events,
	}
}

// Router builds the gin engine with every /api/v1 route.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		if err := s.store.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, envelope{Status: "error", Message: "store unavailable"})
			return
		}
		respond(c, http.StatusOK, gin.H{"ok": true})
	})

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
	}

	api := v1.Group("", s.authRequired())
	{
		users := api.Group("/users")
		{
			users.GET("/me", s.currentUser)
			users.PATCH("/me", s.updateProfile)
			users.PATCH("/me/password", s.updatePassword)
		}

		sessions := api.Group("/sessions")
		{
			sessions.GET("", s.listSessions)
			sessions.POST("", s.createSession)
			sessions.GET("/:id", s.getSession)
			sessions.PATCH("/:id", s.updateSession)
			sessions.DELETE("/:id", s.deleteSession)
			sessions.GET("/:id/messages", s.listSessionMessages)
			sessions.DELETE("/:id/messages", s.clearSessionMessages)
		}

		messages := api.Group("/messages")
		{
			messages.POST("", s.createMessage)
			messages.GET("/:id", s.getMessage)
			messages.PATCH("/:id", s.updateMessage)
			messages.DELETE("/:id", s.deleteMessage)
			messages.PATCH("/:id/tools/:toolId", s.updateToolState)
		}

		chatGroup := api.Group("/chat")
		{
			chatGroup.POST("/message", s.sendMessage)
			chatGroup.POST("/regenerate/:id", s.regenerateMessage)
			chatGroup.POST("/plugin/:messageId", s.usePlugin)
			chatGroup.GET("/stream/:sessionId", s.streamSession)
		}

		pluginGroup := api.Group("/plugins")
		{
			pluginGroup.GET("", s.listPlugins)
			pluginGroup.POST("", s.installPlugin)
			pluginGroup.POST("/custom", s.createCustomPlugin)
			pluginGroup.GET("/store", s.pluginStore)
			pluginGroup.GET("/manifest", s.resolveManifest)
			pluginGroup.PATCH("/:id", s.updatePlugin)
			pluginGroup.PATCH("/:id/settings", s.updatePluginSettings)
			pluginGroup.PATCH("/:id/manifest", s.updatePluginManifest)
			pluginGroup.DELETE("/:id", s.uninstallPlugin)
			pluginGroup.DELETE("", s.uninstallAllPlugins)
		}

		api.Any("/plugin-gateway/builtin/:pluginId/:apiName", s.dispatchBuiltin)
		api.Any("/plugin-gateway/:pluginId/:apiName", s.dispatchPlugin)
	}

	return router
}
