package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gokoo/ai-toolbox/auth"
	"github.com/gokoo/ai-toolbox/errs"
	"github.com/gokoo/ai-toolbox/models"
)

func (s *Server) currentUser(c *gin.Context) {
	user, err := s.store.UserByID(userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user})
}

func (s *Server) updateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	user, err := s.store.UserByID(userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Photo != nil {
		user.Photo = *req.Photo
	}
	if req.Preferences != nil {
		user.Preferences = *req.Preferences
	}

	user, err = s.store.SaveUser(user)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user})
}

func (s *Server) updatePassword(c *gin.Context) {
	var req models.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBinding(c, err)
		return
	}

	user, err := s.store.UserByID(userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		respondError(c, errs.Unauthorized("current password is incorrect"))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	user.PasswordHash = hash
	if _, err := s.store.SaveUser(user); err != nil {
		respondError(c, err)
		return
	}

	// A new token so the client does not keep one minted before the
	// password change.
	s.issueToken(c, http.StatusOK, user)
}
