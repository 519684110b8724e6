package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stopwatch-io/stopwatch-ce/internal/auth"
	"github.com/stopwatch-io/stopwatch-ce/internal/email"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
)

// HandleListRates handles GET /admin/rates.
func (h *Handlers) HandleListRates(c *gin.Context) {
	rates, err := h.catalog.ListRates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rates": rates})
}

// HandleEditRate handles POST /admin/rates: id 0 creates, anything else
// updates. A blank description falls back to the placeholder title; edits
// take effect retroactively on every unbilled phase.
func (h *Handlers) HandleEditRate(c *gin.Context) {
	var req struct {
		ID          int64   `json:"id" form:"id"`
		Description string  `json:"description" form:"description"`
		FeePerHour  float64 `json:"fee_per_hour" form:"fee_per_hour"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	rate := &models.ItemRate{
		ID:          req.ID,
		Description: strings.TrimSpace(req.Description),
		FeePerHour:  req.FeePerHour,
	}
	if err := h.catalog.UpsertRate(c.Request.Context(), rate); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

// HandleListTypes handles GET /admin/types.
func (h *Handlers) HandleListTypes(c *gin.Context) {
	types, err := h.catalog.ListTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"types": types})
}

// HandleEditType handles POST /admin/types.
func (h *Handlers) HandleEditType(c *gin.Context) {
	var req struct {
		ID          int64  `json:"id" form:"id"`
		Description string `json:"description" form:"description"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	typ := &models.ItemType{ID: req.ID, Description: strings.TrimSpace(req.Description)}
	if err := h.catalog.UpsertType(c.Request.Context(), typ); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, typ)
}

// HandleAddUser handles POST /admin/users. The password is generated,
// never chosen: it goes straight to the new user by email and the
// response carries only the account identity.
func (h *Handlers) HandleAddUser(c *gin.Context) {
	var req struct {
		Name        string `json:"name" form:"name"`
		Email       string `json:"email" form:"email"`
		UsergroupID int64  `json:"usergroup_id" form:"usergroup_id"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	name := strings.TrimSpace(req.Name)
	address := email.TrimAddress(req.Email)
	if name == "" || address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and email required"})
		return
	}

	password := auth.RandomPassword()
	user := &models.User{
		Name:        name,
		Email:       address,
		UsergroupID: req.UsergroupID,
		CreateTime:  h.clk.Now(),
	}
	if err := user.SetPassword(password); err != nil {
		respondError(c, err)
		return
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	msg := &email.Message{
		To:      address,
		Subject: "Your time tracking account",
		Body:    "Account: " + name + "\r\nPassword: " + password + "\r\n",
	}
	if err := h.mailer.Send(msg); err != nil {
		// The account exists either way; the admin can reset and resend.
		c.JSON(http.StatusCreated, gin.H{"user": user, "credentials_sent": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "credentials_sent": true})
}

// HandleArchive handles POST /admin/archive/:kind/:id. Archived rows
// disappear from open listings but keep billing: history stays intact.
func (h *Handlers) HandleArchive(c *gin.Context) {
	h.setArchived(c, true)
}

// HandleRetrieve handles POST /admin/retrieve/:kind/:id.
func (h *Handlers) HandleRetrieve(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *Handlers) setArchived(c *gin.Context, archive bool) {
	kind, err := repository.ParseArchivableKind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if archive {
		err = h.archiver.Archive(c.Request.Context(), kind, id)
	} else {
		err = h.archiver.Retrieve(c.Request.Context(), kind, id)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "id": id, "archived": archive})
}
