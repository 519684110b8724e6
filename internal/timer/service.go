package timer

import (
	"context"
	"time"

	"github.com/stopwatch-io/stopwatch-ce/internal/clock"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
)

// Service is the timer state machine. All preconditions are checked
// before any mutation; the paired mutations themselves are delegated to
// the TimerStore, which applies them atomically.
type Service struct {
	sessions  repository.SessionRepository
	records   repository.TimeRecordRepository
	store     repository.TimerStore
	sequencer *Sequencer
	clk       *clock.Converter
}

func NewService(
	sessions repository.SessionRepository,
	records repository.TimeRecordRepository,
	store repository.TimerStore,
	sequencer *Sequencer,
	clk *clock.Converter,
) *Service {
	return &Service{
		sessions:  sessions,
		records:   records,
		store:     store,
		sequencer: sequencer,
		clk:       clk,
	}
}

// StartTiming opens an interval on the given action item and phase.
// Valid only from Idle with a project selected.
func (s *Service) StartTiming(ctx context.Context, sess *models.OnlineSession, actionItemID, phaseID int64) (*models.TimeRecord, error) {
	if sess.ViewingProjectID == nil {
		return nil, models.ErrNoProjectSelected
	}
	if sess.IsTiming() {
		return nil, models.ErrAlreadyTiming
	}
	rec, err := s.store.StartTiming(ctx, sess.ID, actionItemID, *sess.ViewingProjectID, phaseID, s.clk.Now())
	if err != nil {
		return nil, err
	}
	id := rec.ID
	sess.TimeRecordID = &id
	return rec, nil
}

// EnsurePhaseThenStart resolves the project's current phase, creating
// phase 1 if the project has none, then starts timing against it. This
// is the composed form of the original implicit first-phase shortcut.
func (s *Service) EnsurePhaseThenStart(ctx context.Context, sess *models.OnlineSession, actionItemID int64) (*models.TimeRecord, error) {
	if sess.ViewingProjectID == nil {
		return nil, models.ErrNoProjectSelected
	}
	if sess.IsTiming() {
		return nil, models.ErrAlreadyTiming
	}
	phase, err := s.sequencer.CurrentOrNewPhase(ctx, *sess.ViewingProjectID)
	if err != nil {
		return nil, err
	}
	return s.StartTiming(ctx, sess, actionItemID, phase.ID)
}

// StopTiming closes the open interval and clears the session pointer,
// both in the store's single transaction.
func (s *Service) StopTiming(ctx context.Context, sess *models.OnlineSession) (*models.TimeRecord, error) {
	if !sess.IsTiming() {
		return nil, models.ErrNotCurrentlyTiming
	}
	rec, err := s.store.StopTiming(ctx, sess.ID, s.clk.Now())
	if err != nil {
		return nil, err
	}
	sess.TimeRecordID = nil
	return rec, nil
}

// SwitchProject changes the session's viewing context. Rejected while
// timing so the open interval can never dangle against a project the
// session no longer views.
func (s *Service) SwitchProject(ctx context.Context, sess *models.OnlineSession, projectID int64) error {
	if sess.IsTiming() {
		return models.ErrCannotSwitchWhileTiming
	}
	if err := s.sessions.SetViewingProject(ctx, sess.ID, &projectID); err != nil {
		return err
	}
	sess.ViewingProjectID = &projectID
	return nil
}

// Logout stops any open interval first, then destroys the session, so
// no session ever leaves an orphaned open record behind.
func (s *Service) Logout(ctx context.Context, sess *models.OnlineSession) error {
	if sess.IsTiming() {
		if _, err := s.StopTiming(ctx, sess); err != nil {
			return err
		}
	}
	return s.sessions.Delete(ctx, sess.ID)
}

// EditRecord applies a manual adjustment: local-time start and stop are
// validated and converted to absolute time before anything is written,
// and the refreshed record set for the phase is returned.
func (s *Service) EditRecord(ctx context.Context, recordID int64, startLocal, stopLocal string, phaseID int64) ([]models.TimeRecord, error) {
	start, err := s.clk.ToAbsolute("start", startLocal)
	if err != nil {
		return nil, err
	}
	stop, err := s.clk.ToAbsolute("stop", stopLocal)
	if err != nil {
		return nil, err
	}
	if stop.Before(start) {
		return nil, &models.ValidationError{Field: "stop", Reason: "must not precede start"}
	}
	if err := s.records.UpdateInterval(ctx, recordID, start, stop, phaseID); err != nil {
		return nil, err
	}
	return s.records.ListByPhase(ctx, phaseID)
}

// Now exposes the service clock's current instant for callers that need
// a consistent timestamp source.
func (s *Service) Now() time.Time { return s.clk.Now() }
