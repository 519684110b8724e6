// Package api exposes the HTTP surface: timer control, project and
// catalog management, billing previews, invoice delivery and the admin
// editors.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stopwatch-io/stopwatch-ce/internal/auth"
	"github.com/stopwatch-io/stopwatch-ce/internal/billing"
	"github.com/stopwatch-io/stopwatch-ce/internal/clock"
	"github.com/stopwatch-io/stopwatch-ce/internal/database"
	"github.com/stopwatch-io/stopwatch-ce/internal/email"
	"github.com/stopwatch-io/stopwatch-ce/internal/invoice"
	"github.com/stopwatch-io/stopwatch-ce/internal/metrics"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
	"github.com/stopwatch-io/stopwatch-ce/internal/timer"
)

// ProjectStore is the project persistence the handlers need.
type ProjectStore interface {
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	Create(ctx context.Context, userID int64) (*models.Project, error)
	UpdateDetails(ctx context.Context, p *models.Project) error
	ListActiveByUser(ctx context.Context, userID int64) ([]models.ProjectSummary, error)
	ListStatuses(ctx context.Context) ([]models.ProjectStatus, error)
}

// CatalogStore covers action items, rates and types.
type CatalogStore interface {
	ListOpenItems(ctx context.Context, projectID int64) ([]models.ActionItemDetail, error)
	GetActionItem(ctx context.Context, id int64) (*models.ActionItem, error)
	UpsertActionItem(ctx context.Context, item *models.ActionItem) error
	ListRates(ctx context.Context) ([]models.ItemRate, error)
	GetRate(ctx context.Context, id int64) (*models.ItemRate, error)
	UpsertRate(ctx context.Context, rate *models.ItemRate) error
	ListTypes(ctx context.Context) ([]models.ItemType, error)
	UpsertType(ctx context.Context, typ *models.ItemType) error
}

// ArchiveStore flips soft-delete state across the archivable entities.
type ArchiveStore interface {
	Archive(ctx context.Context, kind repository.ArchivableKind, id int64) error
	Retrieve(ctx context.Context, kind repository.ArchivableKind, id int64) error
}

// UserStore is the slice of user persistence the admin handlers need.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
}

// CookieSettings shape the session cookie the login handler issues.
type CookieSettings struct {
	Name   string
	Secure bool
	MaxAge int
}

type Handlers struct {
	auth      *auth.Service
	timer     *timer.Service
	sequencer *timer.Sequencer
	bills     *billing.Aggregator
	invoices  *invoice.Assembler
	mailer    email.Deliverer
	projects  ProjectStore
	catalog   CatalogStore
	phases    repository.PhaseRepository
	records   repository.TimeRecordRepository
	sessions  repository.SessionRepository
	users     UserStore
	archiver  ArchiveStore
	metrics   *metrics.Metrics
	clk       *clock.Converter
	cookie    CookieSettings
}

type Deps struct {
	Auth      *auth.Service
	Timer     *timer.Service
	Sequencer *timer.Sequencer
	Bills     *billing.Aggregator
	Invoices  *invoice.Assembler
	Mailer    email.Deliverer
	Projects  ProjectStore
	Catalog   CatalogStore
	Phases    repository.PhaseRepository
	Records   repository.TimeRecordRepository
	Sessions  repository.SessionRepository
	Users     UserStore
	Archiver  ArchiveStore
	Metrics   *metrics.Metrics
	Clock     *clock.Converter
	Cookie    CookieSettings
}

func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		auth:      d.Auth,
		timer:     d.Timer,
		sequencer: d.Sequencer,
		bills:     d.Bills,
		invoices:  d.Invoices,
		mailer:    d.Mailer,
		projects:  d.Projects,
		catalog:   d.Catalog,
		phases:    d.Phases,
		records:   d.Records,
		sessions:  d.Sessions,
		users:     d.Users,
		archiver:  d.Archiver,
		metrics:   d.Metrics,
		clk:       d.Clock,
		cookie:    d.Cookie,
	}
}

// respondError translates domain errors into HTTP statuses. State
// machine violations are conflicts, not client mistakes: the request was
// well-formed, the session just is not in the right state.
func respondError(c *gin.Context, err error) {
	var vErr *models.ValidationError
	var tsErr *models.InvalidTimestampError

	switch {
	case errors.As(err, &vErr), errors.As(err, &tsErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrPhaseNotFound),
		errors.Is(err, models.ErrRecordNotFound),
		errors.Is(err, models.ErrProjectNotFound),
		errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrRateNotFound),
		errors.Is(err, models.ErrTypeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNoProjectSelected),
		errors.Is(err, models.ErrAlreadyTiming),
		errors.Is(err, models.ErrNotCurrentlyTiming),
		errors.Is(err, models.ErrCannotSwitchWhileTiming):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case database.IsConnectionError(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
