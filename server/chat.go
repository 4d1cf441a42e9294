package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gokoo/ai-toolbox/models"
)

func (s *Server) sendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	pair, err := s.orchestrator.SendMessage(userID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, pair)
}

func (s *Server) regenerateMessage(c *gin.Context) {
	message, err := s.orchestrator.Regenerate(userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": message})
}

func (s *Server) usePlugin(c *gin.Context) {
	var req models.UsePluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	message, err := s.orchestrator.UsePlugin(userID(c), c.Param("messageId"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	// The freshly appended call is the last one on the message.
	tool := &message.Tools[len(message.Tools)-1]
	respond(c, http.StatusOK, gin.H{"tool": tool, "message": message})
}
