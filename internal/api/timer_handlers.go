package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stopwatch-io/stopwatch-ce/internal/middleware"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// HandleToggleTimer handles POST /action_items/:id/timer. One endpoint
// drives the whole state machine: a timing session stops its interval,
// an idle session starts one against the project's current phase
// (creating phase 1 if the project has none).
func (h *Handlers) HandleToggleTimer(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	actionItemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action item id"})
		return
	}
	ctx := c.Request.Context()

	if sess.IsTiming() {
		rec, err := h.timer.StopTiming(ctx, sess)
		if err != nil {
			respondError(c, err)
			return
		}
		h.metrics.TimerStops.Inc()
		c.JSON(http.StatusOK, gin.H{"state": "idle", "record": rec})
		return
	}

	rec, err := h.timer.EnsurePhaseThenStart(ctx, sess, actionItemID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.metrics.TimerStarts.Inc()
	c.JSON(http.StatusOK, gin.H{"state": "timing", "record": rec})
}

// HandleAddPhase handles POST /phases: the next number on the session's
// currently viewed project, never reusing an old one. A session that
// has not expanded a project yet has nothing to number against.
func (h *Handlers) HandleAddPhase(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if sess.ViewingProjectID == nil {
		respondError(c, models.ErrNoProjectSelected)
		return
	}
	phase, err := h.sequencer.NextPhase(c.Request.Context(), *sess.ViewingProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, phase)
}

// HandleAddActionItem handles POST /projects/:id/action_items.
func (h *Handlers) HandleAddActionItem(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}
	var req struct {
		Name   string `json:"name" form:"name"`
		TypeID int64  `json:"type_id" form:"type_id"`
		RateID int64  `json:"rate_id" form:"rate_id"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	item := &models.ActionItem{
		Name:      req.Name,
		ProjectID: projectID,
		TypeID:    req.TypeID,
		RateID:    req.RateID,
	}
	if err := h.catalog.UpsertActionItem(c.Request.Context(), item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}
