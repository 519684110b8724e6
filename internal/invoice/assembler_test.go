package invoice

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stopwatch-io/stopwatch-ce/internal/billing"
	"github.com/stopwatch-io/stopwatch-ce/internal/clock"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
)

type stubProjects struct {
	project *models.Project
}

func (s *stubProjects) GetByID(_ context.Context, id int64) (*models.Project, error) {
	if s.project == nil || s.project.ID != id {
		return nil, models.ErrProjectNotFound
	}
	return s.project, nil
}

func buildAssembler(t *testing.T) (*Assembler, int64) {
	t.Helper()
	ctx := context.Background()
	records := repository.NewMemoryTimeRecordRepository()
	catalog := repository.NewMemoryCatalogRepository()
	phases := repository.NewMemoryPhaseRepository(records)

	rate := &models.ItemRate{Description: "Standard", FeePerHour: 60}
	require.NoError(t, catalog.UpsertRate(ctx, rate))
	typ := &models.ItemType{Description: "Consulting"}
	require.NoError(t, catalog.UpsertType(ctx, typ))
	item := &models.ActionItem{Name: "Site visit", ProjectID: 7, TypeID: typ.ID, RateID: rate.ID}
	require.NoError(t, catalog.UpsertActionItem(ctx, item))

	phase, err := phases.CreateNext(ctx, 7)
	require.NoError(t, err)

	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	stop := start.Add(2 * time.Hour)
	records.Add(models.TimeRecord{
		ActionItemID: item.ID, ProjectID: 7, PhaseID: phase.ID,
		Start: start, Stop: &stop,
	})

	serial := "OF-4417"
	tt := int64(90210)
	agg := billing.NewAggregator(phases, repository.NewMemoryIntervalReader(records, catalog), clock.Fixed(time.UTC))
	asm := NewAssembler(agg, &stubProjects{project: &models.Project{
		ID: 7, UserID: 1, OfficeSerial: &serial, TTNumber: &tt, StatusID: models.StatusActive,
	}})
	return asm, phase.ID
}

func TestAssemble(t *testing.T) {
	asm, phaseID := buildAssembler(t)
	at := time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC)

	doc, err := asm.Assemble(context.Background(), phaseID, at)
	require.NoError(t, err)
	assert.Equal(t, "OF-4417", doc.OfficeSerial)
	require.NotNil(t, doc.TTNumber)
	assert.Equal(t, int64(90210), *doc.TTNumber)
	assert.Equal(t, 1, doc.PhaseNumber)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, 120.0, doc.TotalMinutes)
	assert.Equal(t, 120.0, doc.TotalMoney)
}

func TestAssembleUnknownPhase(t *testing.T) {
	asm, _ := buildAssembler(t)

	_, err := asm.Assemble(context.Background(), 9999, time.Now())
	assert.ErrorIs(t, err, models.ErrPhaseNotFound)
}

func TestPreviewAndSendContentIdentical(t *testing.T) {
	asm, phaseID := buildAssembler(t)
	at := time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	docPreview, err := asm.Assemble(ctx, phaseID, at)
	require.NoError(t, err)
	docSend, err := asm.Assemble(ctx, phaseID, at)
	require.NoError(t, err)

	htmlPreview, err := RenderHTML(docPreview)
	require.NoError(t, err)
	htmlSend, err := RenderHTML(docSend)
	require.NoError(t, err)
	assert.Equal(t, htmlPreview, htmlSend)
}

func TestRenderHTML(t *testing.T) {
	asm, phaseID := buildAssembler(t)
	doc, err := asm.Assemble(context.Background(), phaseID, time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	out, err := RenderHTML(doc)
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, "OF-4417")
	assert.Contains(t, html, "90210")
	assert.Contains(t, html, "Site visit")
	assert.Contains(t, html, "Consulting")
	assert.Contains(t, html, "2024-03-15")
	assert.Contains(t, html, "$120.00")
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
}

func TestRenderXLSX(t *testing.T) {
	asm, phaseID := buildAssembler(t)
	doc, err := asm.Assemble(context.Background(), phaseID, time.Now())
	require.NoError(t, err)

	out, err := RenderXLSX(doc)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	// XLSX files are zip archives.
	assert.Equal(t, []byte{'P', 'K'}, out[:2])
}
