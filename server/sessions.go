package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gokoo/ai-toolbox/models"
	"github.com/gokoo/ai-toolbox/stores"
)

func (s *Server) listSessions(c *gin.Context) {
	find := &stores.FindSession{}
	if v, ok := boolQuery(c, "favorite"); ok {
		find.Favorite = &v
	}
	if v, ok := boolQuery(c, "pinned"); ok {
		find.Pinned = &v
	}
	if v, ok := boolQuery(c, "archived"); ok {
		find.Archived = &v
	}

	sessions, err := s.store.ListSessions(userID(c), find)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, http.StatusOK, len(sessions), gin.H{"sessions": sessions})
}

func (s *Server) createSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	session, err := s.store.CreateSession(userID(c), &models.Session{
		Topic:   req.Topic,
		AgentID: req.AgentID,
		Meta:    req.Meta,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"session": session})
}

func (s *Server) getSession(c *gin.Context) {
	session, err := s.store.SessionByID(userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"session": session})
}

func (s *Server) updateSession(c *gin.Context) {
	var req models.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	session, err := s.store.SessionByID(userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Topic != nil {
		session.Topic = *req.Topic
	}
	if req.AgentID != nil {
		session.AgentID = *req.AgentID
	}
	if req.Favorite != nil {
		session.Favorite = *req.Favorite
	}
	if req.Pinned != nil {
		session.Pinned = *req.Pinned
	}
	if req.Archived != nil {
		session.Archived = *req.Archived
	}
	if req.Meta != nil {
		session.Meta = *req.Meta
	}

	session, err = s.store.SaveSession(session)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"session": session})
}

func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.DeleteSession(userID(c), id); err != nil {
		respondError(c, err)
		return
	}
	s.messageCache.Invalidate(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}

// listSessionMessages pages through a session's messages oldest first,
// serving full uncapped reads from the redis cache when possible.
func (s *Server) listSessionMessages(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := s.store.SessionByID(userID(c), sessionID); err != nil {
		respondError(c, err)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	before := c.Query("before")

	ctx := c.Request.Context()
	if limit == 0 && before == "" {
		if cached, err := s.messageCache.GetMessages(ctx, sessionID); err == nil {
			respondList(c, http.StatusOK, len(cached), gin.H{"messages": cached})
			return
		}
	}

	messages, err := s.store.ListMessages(sessionID, limit, before)
	if err != nil {
		respondError(c, err)
		return
	}
	if limit == 0 && before == "" {
		if err := s.messageCache.SetMessages(ctx, sessionID, messages); err != nil {
			serverLogger.Printf("failed to cache messages for %s: %v", sessionID, err)
		}
	}
	respondList(c, http.StatusOK, len(messages), gin.H{"messages": messages})
}

func (s *Server) clearSessionMessages(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := s.store.SessionByID(userID(c), sessionID); err != nil {
		respondError(c, err)
		return
	}

	if err := s.store.DeleteSessionMessages(sessionID); err != nil {
		respondError(c, err)
		return
	}
	if err := s.store.ClearLastMessage(sessionID); err != nil {
		respondError(c, err)
		return
	}
	s.messageCache.Invalidate(context.Background(), sessionID)
	c.Status(http.StatusNoContent)
}

func boolQuery(c *gin.Context, name string) (bool, bool) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
