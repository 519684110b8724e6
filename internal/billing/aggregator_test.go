package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stopwatch-io/stopwatch-ce/internal/clock"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
)

type fixture struct {
	agg     *Aggregator
	catalog *repository.MemoryCatalogRepository
	records *repository.MemoryTimeRecordRepository
	phases  *repository.MemoryPhaseRepository
	phaseID int64
	itemID  int64
	rateID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	records := repository.NewMemoryTimeRecordRepository()
	catalog := repository.NewMemoryCatalogRepository()
	phases := repository.NewMemoryPhaseRepository(records)

	rate := &models.ItemRate{Description: "Standard", FeePerHour: 60}
	require.NoError(t, catalog.UpsertRate(ctx, rate))
	typ := &models.ItemType{Description: "Development"}
	require.NoError(t, catalog.UpsertType(ctx, typ))
	item := &models.ActionItem{Name: "Implement parser", ProjectID: 7, TypeID: typ.ID, RateID: rate.ID}
	require.NoError(t, catalog.UpsertActionItem(ctx, item))

	phase, err := phases.CreateNext(ctx, 7)
	require.NoError(t, err)

	agg := NewAggregator(phases, repository.NewMemoryIntervalReader(records, catalog), clock.Fixed(time.UTC))
	return &fixture{
		agg: agg, catalog: catalog, records: records, phases: phases,
		phaseID: phase.ID, itemID: item.ID, rateID: rate.ID,
	}
}

func (f *fixture) addClosed(start time.Time, minutes int) {
	stop := start.Add(time.Duration(minutes) * time.Minute)
	f.records.Add(models.TimeRecord{
		ActionItemID: f.itemID, ProjectID: 7, PhaseID: f.phaseID,
		Start: start, Stop: &stop,
	})
}

func TestAggregationScenario(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	f.addClosed(base, 30)
	f.addClosed(base.Add(2*time.Hour), 90)
	// Open interval in the same phase contributes nothing.
	f.records.Add(models.TimeRecord{
		ActionItemID: f.itemID, ProjectID: 7, PhaseID: f.phaseID,
		Start: base.Add(5 * time.Hour),
	})

	bill, err := f.agg.BillForPhase(context.Background(), f.phaseID)
	require.NoError(t, err)
	require.Len(t, bill.Lines, 1)

	line := bill.Lines[0]
	assert.Equal(t, "Implement parser", line.Name)
	assert.Equal(t, "Development", line.TypeDescription)
	assert.Equal(t, "2024-03-15", line.Date)
	assert.Equal(t, 120.0, line.Minutes)
	assert.Equal(t, 120.0, line.Money)
	assert.Equal(t, 120.0, bill.TotalMinutes)
	assert.Equal(t, 120.0, bill.TotalMoney)
}

func TestLiveRateLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addClosed(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), 120)

	before, err := f.agg.BillForPhase(ctx, f.phaseID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, before.TotalMoney)

	// Halve the fee; the same phase now bills half.
	require.NoError(t, f.catalog.UpsertRate(ctx, &models.ItemRate{
		ID: f.rateID, Description: "Standard", FeePerHour: 30,
	}))

	after, err := f.agg.BillForPhase(ctx, f.phaseID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, after.TotalMoney)
}

func TestEmptyPhase(t *testing.T) {
	f := newFixture(t)

	bill, err := f.agg.BillForPhase(context.Background(), f.phaseID)
	require.NoError(t, err)
	assert.Empty(t, bill.Lines)
	assert.Zero(t, bill.TotalMinutes)
	assert.Zero(t, bill.TotalMoney)
}

func TestUnknownPhase(t *testing.T) {
	f := newFixture(t)

	_, err := f.agg.BillForPhase(context.Background(), 9999)
	assert.ErrorIs(t, err, models.ErrPhaseNotFound)
}

func TestArchivedItemStillBills(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addClosed(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), 60)

	require.NoError(t, f.catalog.ArchiveActionItem(ctx, f.itemID))

	// Hidden from the open listing...
	open, err := f.catalog.ListOpenItems(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, open)

	// ...but history still aggregates.
	bill, err := f.agg.BillForPhase(ctx, f.phaseID)
	require.NoError(t, err)
	require.Len(t, bill.Lines, 1)
	assert.Equal(t, 60.0, bill.Lines[0].Minutes)
	assert.Equal(t, 60.0, bill.Lines[0].Money)
}

func TestFractionalMinutesRetained(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	stop := start.Add(90 * time.Second)
	f.records.Add(models.TimeRecord{
		ActionItemID: f.itemID, ProjectID: 7, PhaseID: f.phaseID,
		Start: start, Stop: &stop,
	})

	bill, err := f.agg.BillForPhase(context.Background(), f.phaseID)
	require.NoError(t, err)
	require.Len(t, bill.Lines, 1)
	assert.InDelta(t, 1.5, bill.Lines[0].Minutes, 1e-9)
	assert.InDelta(t, 1.5, bill.Lines[0].Money, 1e-9)
}

func TestGroupDateIsLocalToConverter(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	records := repository.NewMemoryTimeRecordRepository()
	catalog := repository.NewMemoryCatalogRepository()
	phases := repository.NewMemoryPhaseRepository(records)

	rate := &models.ItemRate{Description: "Standard", FeePerHour: 60}
	require.NoError(t, catalog.UpsertRate(context.Background(), rate))
	typ := &models.ItemType{Description: "Development"}
	require.NoError(t, catalog.UpsertType(context.Background(), typ))
	item := &models.ActionItem{Name: "Late night work", ProjectID: 7, TypeID: typ.ID, RateID: rate.ID}
	require.NoError(t, catalog.UpsertActionItem(context.Background(), item))
	phase, err := phases.CreateNext(context.Background(), 7)
	require.NoError(t, err)

	// 03:30 UTC on the 15th is the evening of the 14th in Chicago.
	start := time.Date(2024, 3, 15, 3, 30, 0, 0, time.UTC)
	stop := start.Add(30 * time.Minute)
	records.Add(models.TimeRecord{
		ActionItemID: item.ID, ProjectID: 7, PhaseID: phase.ID,
		Start: start, Stop: &stop,
	})

	agg := NewAggregator(phases, repository.NewMemoryIntervalReader(records, catalog), clock.Fixed(loc))
	bill, err := agg.BillForPhase(context.Background(), phase.ID)
	require.NoError(t, err)
	require.Len(t, bill.Lines, 1)
	assert.Equal(t, "2024-03-14", bill.Lines[0].Date)
}
