package repository

import (
	"context"
	"time"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// SessionRepository persists online sessions. One row per logged-in
// user; destroyed on logout or replaced by the next login.
// DeleteOlderThan is the cron cleanup's entry point: it may only remove
// rows whose time_record_id is null, because a timing session's row IS
// the pointer half of the open-interval pairing. A stale timing session
// is cleared by login replacement instead, which stops the interval
// before deleting the row.
type SessionRepository interface {
	Create(ctx context.Context, session *models.OnlineSession) error
	GetByToken(ctx context.Context, token string) (*models.OnlineSession, error)
	GetByUserID(ctx context.Context, userID int64) (*models.OnlineSession, error)
	SetViewingProject(ctx context.Context, sessionID int64, projectID *int64) error
	Delete(ctx context.Context, sessionID int64) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PhaseRepository owns phase numbering. CreateNext assigns
// max(number)+1 (or 1) in a single statement so numbers stay gapless
// and are never reused even under concurrent callers.
type PhaseRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Phase, error)
	Latest(ctx context.Context, projectID int64) (*models.Phase, error)
	CreateNext(ctx context.Context, projectID int64) (*models.Phase, error)
	ListByProject(ctx context.Context, projectID int64) ([]models.PhaseSummary, error)
}

// TimeRecordRepository reads and edits persisted intervals. Creation and
// closing of open intervals go through TimerStore, which pairs them with
// the session pointer transactionally.
type TimeRecordRepository interface {
	GetByID(ctx context.Context, id int64) (*models.TimeRecord, error)
	ListByPhase(ctx context.Context, phaseID int64) ([]models.TimeRecord, error)
	ListByProject(ctx context.Context, projectID int64) ([]models.TimeRecord, error)
	UpdateInterval(ctx context.Context, id int64, start, stop time.Time, phaseID int64) error
}

// TimerStore applies the two paired timer mutations atomically. Start
// inserts the open record and sets the session pointer; Stop closes the
// record and clears the pointer. Neither effect may be observed without
// the other.
type TimerStore interface {
	StartTiming(ctx context.Context, sessionID, actionItemID, projectID, phaseID int64, now time.Time) (*models.TimeRecord, error)
	StopTiming(ctx context.Context, sessionID int64, now time.Time) (*models.TimeRecord, error)
}

// IntervalReader feeds the billing aggregator: every closed interval of
// a phase joined with its action item and the rate's current fee. The
// fee is read here, at aggregation time, which is what makes rate edits
// retroactive for unbilled phases.
type IntervalReader interface {
	ClosedIntervalsByPhase(ctx context.Context, phaseID int64) ([]models.BilledInterval, error)
}
