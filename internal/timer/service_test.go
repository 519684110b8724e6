package timer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stopwatch-io/stopwatch-ce/internal/clock"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
)

type fixture struct {
	svc      *Service
	sessions *repository.MemorySessionRepository
	records  *repository.MemoryTimeRecordRepository
	phases   *repository.MemoryPhaseRepository
	sess     *models.OnlineSession
}

func newFixture(t *testing.T, projectID *int64) *fixture {
	t.Helper()
	sessions := repository.NewMemorySessionRepository()
	records := repository.NewMemoryTimeRecordRepository()
	phases := repository.NewMemoryPhaseRepository(records)
	store := repository.NewMemoryTimerStore(sessions, records)
	svc := NewService(sessions, records, store, NewSequencer(phases), clock.Fixed(time.UTC))

	sess := &models.OnlineSession{UserID: 1, Token: "tok", CreateTime: time.Now().UTC()}
	require.NoError(t, sessions.Create(context.Background(), sess))
	if projectID != nil {
		require.NoError(t, sessions.SetViewingProject(context.Background(), sess.ID, projectID))
		sess.ViewingProjectID = projectID
	}
	return &fixture{svc: svc, sessions: sessions, records: records, phases: phases, sess: sess}
}

func projectRef(id int64) *int64 { return &id }

func TestStartTimingRequiresProject(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.EnsurePhaseThenStart(context.Background(), f.sess, 10)
	assert.ErrorIs(t, err, models.ErrNoProjectSelected)
	assert.Zero(t, f.records.OpenCount())
}

func TestStartStopPairing(t *testing.T) {
	f := newFixture(t, projectRef(7))
	ctx := context.Background()

	rec, err := f.svc.EnsurePhaseThenStart(ctx, f.sess, 10)
	require.NoError(t, err)
	assert.True(t, rec.IsOpen())
	assert.True(t, f.sess.IsTiming())
	assert.Equal(t, rec.ID, *f.sess.TimeRecordID)

	closed, err := f.svc.StopTiming(ctx, f.sess)
	require.NoError(t, err)
	assert.NotNil(t, closed.Stop)
	assert.False(t, f.sess.IsTiming())

	// Both effects applied: record closed and pointer cleared.
	stored, err := f.records.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.Stop)
	reloaded, err := f.sessions.GetByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, reloaded.TimeRecordID)
}

func TestAtMostOneOpenRecord(t *testing.T) {
	f := newFixture(t, projectRef(7))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.EnsurePhaseThenStart(ctx, f.sess, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, f.records.OpenCount())

		_, err = f.svc.EnsurePhaseThenStart(ctx, f.sess, 11)
		assert.ErrorIs(t, err, models.ErrAlreadyTiming)
		assert.Equal(t, 1, f.records.OpenCount())

		_, err = f.svc.StopTiming(ctx, f.sess)
		require.NoError(t, err)
		assert.Zero(t, f.records.OpenCount())
	}
}

func TestStopWhileIdle(t *testing.T) {
	f := newFixture(t, projectRef(7))

	_, err := f.svc.StopTiming(context.Background(), f.sess)
	assert.ErrorIs(t, err, models.ErrNotCurrentlyTiming)
}

func TestSwitchProjectWhileTimingRejected(t *testing.T) {
	f := newFixture(t, projectRef(7))
	ctx := context.Background()

	rec, err := f.svc.EnsurePhaseThenStart(ctx, f.sess, 10)
	require.NoError(t, err)

	err = f.svc.SwitchProject(ctx, f.sess, 8)
	assert.ErrorIs(t, err, models.ErrCannotSwitchWhileTiming)

	// Open record untouched, viewing project unchanged.
	stored, err := f.records.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsOpen())
	assert.Equal(t, int64(7), *f.sess.ViewingProjectID)
}

func TestSwitchProjectWhileIdle(t *testing.T) {
	f := newFixture(t, projectRef(7))

	err := f.svc.SwitchProject(context.Background(), f.sess, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(8), *f.sess.ViewingProjectID)
}

func TestLogoutStopsOpenTimer(t *testing.T) {
	f := newFixture(t, projectRef(7))
	ctx := context.Background()

	rec, err := f.svc.EnsurePhaseThenStart(ctx, f.sess, 10)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, f.sess))

	stored, err := f.records.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.Stop, "logout must close the open interval")

	_, err = f.sessions.GetByToken(ctx, "tok")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestImplicitFirstPhase(t *testing.T) {
	f := newFixture(t, projectRef(7))
	ctx := context.Background()

	rec, err := f.svc.EnsurePhaseThenStart(ctx, f.sess, 10)
	require.NoError(t, err)

	phase, err := f.phases.GetByID(ctx, rec.PhaseID)
	require.NoError(t, err)
	assert.Equal(t, 1, phase.Number)
}

func TestPhaseNumberingMonotonic(t *testing.T) {
	records := repository.NewMemoryTimeRecordRepository()
	phases := repository.NewMemoryPhaseRepository(records)
	seq := NewSequencer(phases)
	ctx := context.Background()

	for want := 1; want <= 5; want++ {
		p, err := seq.NextPhase(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, want, p.Number)

		// Interleaved reads never mint a number.
		cur, err := seq.CurrentOrNewPhase(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, want, cur.Number)
	}

	// Another project numbers independently from 1.
	p, err := seq.NextPhase(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Number)
}

func TestCurrentOrNewPhaseCreatesFirst(t *testing.T) {
	records := repository.NewMemoryTimeRecordRepository()
	phases := repository.NewMemoryPhaseRepository(records)
	seq := NewSequencer(phases)

	p, err := seq.CurrentOrNewPhase(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Number)
}

func TestEditRecord(t *testing.T) {
	f := newFixture(t, projectRef(7))
	ctx := context.Background()

	stop := time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC)
	id := f.records.Add(models.TimeRecord{
		ActionItemID: 10, ProjectID: 7, PhaseID: 1,
		Start: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Stop:  &stop,
	})

	t.Run("Valid", func(t *testing.T) {
		recs, err := f.svc.EditRecord(ctx, id, "2024-03-15 09:00:00", "2024-03-15 09:45:00", 1)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), recs[0].Start)
		assert.Equal(t, 45.0, recs[0].Minutes())
	})

	t.Run("InvalidStartField", func(t *testing.T) {
		_, err := f.svc.EditRecord(ctx, id, "not a time", "2024-03-15 09:45:00", 1)
		var tsErr *models.InvalidTimestampError
		require.True(t, errors.As(err, &tsErr))
		assert.Equal(t, "start", tsErr.Field)
	})

	t.Run("InvalidStopField", func(t *testing.T) {
		_, err := f.svc.EditRecord(ctx, id, "2024-03-15 09:00:00", "bogus", 1)
		var tsErr *models.InvalidTimestampError
		require.True(t, errors.As(err, &tsErr))
		assert.Equal(t, "stop", tsErr.Field)
	})

	t.Run("StopBeforeStart", func(t *testing.T) {
		_, err := f.svc.EditRecord(ctx, id, "2024-03-15 09:00:00", "2024-03-15 08:00:00", 1)
		var vErr *models.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "stop", vErr.Field)
	})

	t.Run("UnknownRecord", func(t *testing.T) {
		_, err := f.svc.EditRecord(ctx, 9999, "2024-03-15 09:00:00", "2024-03-15 09:45:00", 1)
		assert.ErrorIs(t, err, models.ErrRecordNotFound)
	})
}

func TestEditRejectsOpenInterval(t *testing.T) {
	f := newFixture(t, projectRef(7))
	ctx := context.Background()

	rec, err := f.svc.EnsurePhaseThenStart(ctx, f.sess, 10)
	require.NoError(t, err)

	_, err = f.svc.EditRecord(ctx, rec.ID, "2024-03-15 09:00:00", "2024-03-15 09:45:00", rec.PhaseID)
	var vErr *models.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "record", vErr.Field)

	// The record stays open and the session pointer stays valid, so the
	// state machine can still stop and log out.
	stored, err := f.records.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsOpen())
	assert.True(t, f.sess.IsTiming())

	_, err = f.svc.StopTiming(ctx, f.sess)
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, f.sess))
}
