package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gokoo/ai-toolbox/errs"
)

const contextUserID = "userID"

// authRequired validates the bearer token (Authorization header or jwt
// cookie) and stores the caller's user id on the request context.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondError(c, errs.Unauthorized("you are not logged in"))
			c.Abort()
			return
		}

		claims, err := s.jwt.ValidateToken(token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		// The token may outlive the account.
		user, err := s.store.UserByID(claims.UserID)
		if err != nil {
			respondError(c, errs.Unauthorized("the user belonging to this token no longer exists"))
			c.Abort()
			return
		}

		c.Set(contextUserID, user.ID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("jwt"); err == nil {
		return cookie
	}
	return ""
}

func userID(c *gin.Context) string {
	return c.GetString(contextUserID)
}
