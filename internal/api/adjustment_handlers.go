package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// recordView is a time record with its timestamps shifted into the
// display timezone for the adjustments editor.
type recordView struct {
	ID           int64  `json:"id"`
	ActionItemID int64  `json:"action_item_id"`
	PhaseID      int64  `json:"phase_id"`
	Start        string `json:"start"`
	Stop         string `json:"stop,omitempty"`
}

func (h *Handlers) recordViews(records []models.TimeRecord) []recordView {
	out := make([]recordView, 0, len(records))
	for _, rec := range records {
		v := recordView{
			ID:           rec.ID,
			ActionItemID: rec.ActionItemID,
			PhaseID:      rec.PhaseID,
			Start:        h.clk.ToLocal(rec.Start),
		}
		if rec.Stop != nil {
			v.Stop = h.clk.ToLocal(*rec.Stop)
		}
		out = append(out, v)
	}
	return out
}

// HandleListRecords handles GET /phases/:id/records: the phase's
// intervals in local display time, ready for manual adjustment.
func (h *Handlers) HandleListRecords(c *gin.Context) {
	phaseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phase id"})
		return
	}
	if _, err := h.phases.GetByID(c.Request.Context(), phaseID); err != nil {
		respondError(c, err)
		return
	}
	records, err := h.records.ListByPhase(c.Request.Context(), phaseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": h.recordViews(records)})
}

// HandleEditRecord handles POST /time_records/:id. Start and stop arrive
// in the display timezone; both must parse and stop must not precede
// start before anything is written. The refreshed record set of the
// record's phase comes back for immediate redisplay.
func (h *Handlers) HandleEditRecord(c *gin.Context) {
	recordID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}
	var req struct {
		Start   string `json:"start" form:"start"`
		Stop    string `json:"stop" form:"stop"`
		PhaseID int64  `json:"phase_id" form:"phase_id"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	records, err := h.timer.EditRecord(c.Request.Context(), recordID, req.Start, req.Stop, req.PhaseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": h.recordViews(records)})
}
