package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xeonx/timeago"

	"github.com/stopwatch-io/stopwatch-ce/internal/middleware"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// HandleMyProjects handles GET /my_projects: the session user's
// non-closed projects with their recorded minutes.
func (h *Handlers) HandleMyProjects(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	projects, err := h.projects.ListActiveByUser(c.Request.Context(), sess.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// HandleAddProject handles POST /projects: a blank active project whose
// details are filled in later.
func (h *Handlers) HandleAddProject(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	project, err := h.projects.Create(c.Request.Context(), sess.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// HandleExpandProject handles POST /projects/:id/expand: switches the
// session's viewing context and returns the expanded view, with phases
// newest first and only un-archived action items.
func (h *Handlers) HandleExpandProject(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}
	ctx := c.Request.Context()

	project, err := h.projects.GetByID(ctx, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.timer.SwitchProject(ctx, sess, projectID); err != nil {
		respondError(c, err)
		return
	}

	phases, err := h.phases.ListByProject(ctx, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	for i := range phases {
		if phases[i].LastStart != nil {
			phases[i].LastActivity = timeago.English.Format(*phases[i].LastStart)
		}
	}
	items, err := h.catalog.ListOpenItems(ctx, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project":      project,
		"phases":       phases,
		"action_items": items,
	})
}

// HandleUpdateDetails handles POST /projects/:id/details. The tracking
// number arrives as text from the form and must be numeric or blank;
// blank clears it.
func (h *Handlers) HandleUpdateDetails(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}
	var req struct {
		TTNumber     string `json:"tt_number" form:"tt_number"`
		OfficeSerial string `json:"office_serial" form:"office_serial"`
		Description  string `json:"description" form:"description"`
		Notes        string `json:"notes" form:"notes"`
		StatusID     int64  `json:"status_id" form:"status_id"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	ctx := c.Request.Context()

	project, err := h.projects.GetByID(ctx, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	ttRaw := strings.TrimSpace(req.TTNumber)
	if ttRaw == "" {
		project.TTNumber = nil
	} else {
		tt, err := strconv.ParseInt(ttRaw, 10, 64)
		if err != nil {
			respondError(c, &models.ValidationError{Field: "tt_number", Reason: "must be numeric or blank"})
			return
		}
		project.TTNumber = &tt
	}
	project.OfficeSerial = optional(req.OfficeSerial)
	project.Description = optional(req.Description)
	project.Notes = optional(req.Notes)
	if req.StatusID != 0 {
		project.StatusID = req.StatusID
	}

	if err := h.projects.UpdateDetails(ctx, project); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// HandleProjectStatuses handles GET /project_statuses for the details
// editor's dropdown.
func (h *Handlers) HandleProjectStatuses(c *gin.Context) {
	statuses, err := h.projects.ListStatuses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
