package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stopwatch-io/stopwatch-ce/internal/middleware"
)

// HandleLogin handles POST /login.
func (h *Handlers) HandleLogin(c *gin.Context) {
	var req struct {
		Name     string `json:"name" form:"name"`
		Password string `json:"password" form:"password"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		h.metrics.Logins.WithLabelValues("failure").Inc()
		respondError(c, err)
		return
	}
	h.metrics.Logins.WithLabelValues("success").Inc()

	c.SetCookie(h.cookie.Name, res.Session.Token, h.cookie.MaxAge, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{"id": res.User.ID, "name": res.User.Name},
		"urls": res.URLs,
	})
}

// HandleLogout handles POST /logout. An open timer is stopped before the
// session goes away.
func (h *Handlers) HandleLogout(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if err := h.timer.Logout(c.Request.Context(), sess); err != nil {
		respondError(c, err)
		return
	}
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
