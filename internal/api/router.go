package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stopwatch-io/stopwatch-ce/internal/metrics"
	"github.com/stopwatch-io/stopwatch-ce/internal/middleware"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
)

// NewRouter assembles the gin engine: open endpoints, the session-
// protected application surface and the admin editors.
func NewRouter(h *Handlers, sessions repository.SessionRepository, m *metrics.Metrics, metricsPath string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Instrument(m))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsPath != "" {
		r.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}

	r.POST("/login", h.HandleLogin)

	authed := r.Group("/")
	authed.Use(middleware.Session(sessions, h.cookie.Name))
	{
		authed.POST("/logout", h.HandleLogout)

		authed.GET("/my_projects", h.HandleMyProjects)
		authed.POST("/projects", h.HandleAddProject)
		authed.POST("/projects/:id/expand", h.HandleExpandProject)
		authed.POST("/projects/:id/details", h.HandleUpdateDetails)
		authed.POST("/projects/:id/action_items", h.HandleAddActionItem)
		authed.POST("/phases", h.HandleAddPhase)
		authed.GET("/project_statuses", h.HandleProjectStatuses)

		authed.POST("/action_items/:id/timer", h.HandleToggleTimer)

		authed.GET("/phases/:id/bill", h.HandlePhaseBill)
		authed.GET("/phases/:id/invoice", h.HandlePreviewInvoice)
		authed.POST("/phases/:id/invoice/send", h.HandleSendInvoice)
		authed.GET("/phases/:id/invoice.xlsx", h.HandleExportInvoiceXLSX)

		authed.GET("/phases/:id/records", h.HandleListRecords)
		authed.POST("/time_records/:id", h.HandleEditRecord)

		admin := authed.Group("/admin")
		{
			admin.GET("/rates", h.HandleListRates)
			admin.POST("/rates", h.HandleEditRate)
			admin.GET("/types", h.HandleListTypes)
			admin.POST("/types", h.HandleEditType)
			admin.POST("/users", h.HandleAddUser)
			admin.POST("/archive/:kind/:id", h.HandleArchive)
			admin.POST("/retrieve/:kind/:id", h.HandleRetrieve)
		}
	}

	return r
}
