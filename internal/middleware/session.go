package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
)

const (
	// ContextSessionKey is where the loaded session lives on the gin context.
	ContextSessionKey = "online_session"
	// ContextUserIDKey mirrors the session's user id for handlers that
	// only need the id.
	ContextUserIDKey = "user_id"
)

// Session resolves the session cookie to a live online_sessions row and
// aborts unauthenticated requests. Browser requests get redirected to
// the login page; API requests get a 401.
func Session(sessions repository.SessionRepository, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			reject(c)
			return
		}

		session, err := sessions.GetByToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, models.ErrSessionNotFound) {
				reject(c)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
			return
		}

		c.Set(ContextSessionKey, session)
		c.Set(ContextUserIDKey, session.UserID)
		c.Next()
	}
}

func reject(c *gin.Context) {
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
	c.Abort()
}

func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// CurrentSession pulls the session the Session middleware stored.
func CurrentSession(c *gin.Context) (*models.OnlineSession, bool) {
	v, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*models.OnlineSession)
	return session, ok
}
