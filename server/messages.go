package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gokoo/ai-toolbox/chat"
	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
)

func (s *Server) createMessage(c *gin.Context) {
	var req models.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}
	if !req.Role.Valid() {
		respondError(c, errs.BadRequest("invalid message role: %s", req.Role))
		return
	}

	session, err := s.store.SessionByID(userID(c), req.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	message, err := s.store.CreateMessage(&models.Message{
		SessionID: session.ID,
		Role:      req.Role,
		Content:   req.Content,
		ParentID:  req.ParentID,
		QuotaID:   req.QuotaID,
		Files:     req.Files,
		Tools:     req.Tools,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.store.TouchLastMessage(session.ID, message.ID, message.CreatedAt); err != nil {
		respondError(c, err)
		return
	}

	s.messageCache.Invalidate(context.Background(), session.ID)
	s.events.Publish(chat.Event{Type: chat.EventMessageCreated, SessionID: session.ID, Message: message})
	respond(c, http.StatusCreated, gin.H{"message": message})
}

func (s *Server) getMessage(c *gin.Context) {
	message, _, err := s.store.MessageForUser(userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": message})
}

func (s *Server) updateMessage(c *gin.Context) {
	var req models.UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	message, _, err := s.store.MessageForUser(userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Content != nil {
		message.Content = *req.Content
	}
	if req.Error != nil {
		message.Error = req.Error
	}
	if req.Tools != nil {
		message.Tools = req.Tools
	}

	message, err = s.store.SaveMessage(message)
	if err != nil {
		respondError(c, err)
		return
	}

	s.messageCache.Invalidate(context.Background(), message.SessionID)
	s.events.Publish(chat.Event{Type: chat.EventMessageUpdated, SessionID: message.SessionID, Message: message})
	respond(c, http.StatusOK, gin.H{"message": message})
}

func (s *Server) deleteMessage(c *gin.Context) {
	message, session, err := s.store.MessageForUser(userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.store.DeleteMessage(message.ID); err != nil {
		respondError(c, err)
		return
	}

	// Keep the session pointer honest when its tip was removed.
	if session.LastMessageID == message.ID {
		last, err := s.store.LastMessage(session.ID)
		switch {
		case err != nil:
			serverLogger.Printf("failed to reload session tip for %s: %v", session.ID, err)
		case last == nil:
			if err := s.store.ClearLastMessage(session.ID); err != nil {
				serverLogger.Printf("failed to clear session tip for %s: %v", session.ID, err)
			}
		default:
			if err := s.store.TouchLastMessage(session.ID, last.ID, last.CreatedAt); err != nil {
				serverLogger.Printf("failed to move session tip for %s: %v", session.ID, err)
			}
		}
	}

	s.messageCache.Invalidate(context.Background(), session.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) updateToolState(c *gin.Context) {
	var req models.UpdateToolStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	toolID := c.Param("toolId")
	message, err := s.tracker.UpdateState(userID(c), c.Param("id"), toolID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	s.messageCache.Invalidate(context.Background(), message.SessionID)
	respond(c, http.StatusOK, gin.H{"tool": message.FindTool(toolID)})
}
