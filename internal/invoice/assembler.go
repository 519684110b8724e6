// Package invoice packages aggregated billing data with project office
// metadata into a deliverable document. Preview and send share this
// assembly path; only delivery differs.
package invoice

import (
	"context"
	"time"

	"github.com/stopwatch-io/stopwatch-ce/internal/billing"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// ProjectReader is the slice of the project repository the assembler
// needs: office metadata for the billed phase's project.
type ProjectReader interface {
	GetByID(ctx context.Context, id int64) (*models.Project, error)
}

// Document is the assembled invoice, ready for rendering and delivery.
type Document struct {
	PhaseID      int64
	PhaseNumber  int
	OfficeSerial string
	TTNumber     *int64
	Lines        []billing.LineItem
	TotalMinutes float64
	TotalMoney   float64
	GeneratedAt  time.Time
}

type Assembler struct {
	aggregator *billing.Aggregator
	projects   ProjectReader
}

func NewAssembler(aggregator *billing.Aggregator, projects ProjectReader) *Assembler {
	return &Assembler{aggregator: aggregator, projects: projects}
}

// Assemble aggregates the phase and attaches the owning project's
// office serial and tracking number. The caller supplies the instant so
// preview and send of the same phase at the same moment are identical.
func (a *Assembler) Assemble(ctx context.Context, phaseID int64, at time.Time) (*Document, error) {
	bill, err := a.aggregator.BillForPhase(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	project, err := a.projects.GetByID(ctx, bill.ProjectID)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		PhaseID:      bill.PhaseID,
		PhaseNumber:  bill.PhaseNumber,
		TTNumber:     project.TTNumber,
		Lines:        bill.Lines,
		TotalMinutes: bill.TotalMinutes,
		TotalMoney:   bill.TotalMoney,
		GeneratedAt:  at,
	}
	if project.OfficeSerial != nil {
		doc.OfficeSerial = *project.OfficeSerial
	}
	return doc, nil
}
