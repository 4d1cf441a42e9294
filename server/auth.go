package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gokoo/ai-toolbox/auth"
	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
)

func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := s.store.CreateUser(&models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	s.issueToken(c, http.StatusCreated, user)
}

func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	user, err := s.store.UserByEmail(req.Email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(c, errs.Unauthorized("incorrect email or password"))
		return
	}

	s.issueToken(c, http.StatusOK, user)
}

// issueToken signs the token, mirrors it into the jwt cookie, and
// responds with both token and user.
func (s *Server) issueToken(c *gin.Context, code int, user *models.User) {
	token, expiresAt, err := s.jwt.GenerateToken(user.ID, user.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetCookie("jwt", token, int(time.Until(expiresAt).Seconds()), "/", "", false, true)
	respond(c, code, gin.H{"token": token, "expiresAt": expiresAt, "user": user})
}
