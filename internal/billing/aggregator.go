// Package billing collapses a phase's closed intervals into per-action-
// item line items and grand totals. Rates are read at aggregation time,
// so two runs over the same phase can legitimately differ if an admin
// edited a fee in between.
package billing

import (
	"context"
	"sort"

	"github.com/stopwatch-io/stopwatch-ce/internal/clock"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
)

// LineItem is one action item's share of a phase bill.
type LineItem struct {
	ActionItemID    int64   `json:"action_item_id"`
	Name            string  `json:"name"`
	TypeDescription string  `json:"type"`
	Date            string  `json:"date"` // local calendar date of the group's first interval
	Minutes         float64 `json:"minutes"`
	Money           float64 `json:"money"`
}

// Bill is the aggregation result for one phase.
type Bill struct {
	PhaseID      int64      `json:"phase_id"`
	ProjectID    int64      `json:"project_id"`
	PhaseNumber  int        `json:"phase_number"`
	Lines        []LineItem `json:"lines"`
	TotalMinutes float64    `json:"total_minutes"`
	TotalMoney   float64    `json:"total_money"`
}

type Aggregator struct {
	phases    repository.PhaseRepository
	intervals repository.IntervalReader
	clk       *clock.Converter
}

func NewAggregator(phases repository.PhaseRepository, intervals repository.IntervalReader, clk *clock.Converter) *Aggregator {
	return &Aggregator{phases: phases, intervals: intervals, clk: clk}
}

// BillForPhase aggregates the phase. A phase with no closed intervals
// yields an empty line list and zero totals; an unknown phase id is
// ErrPhaseNotFound.
func (a *Aggregator) BillForPhase(ctx context.Context, phaseID int64) (*Bill, error) {
	phase, err := a.phases.GetByID(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	intervals, err := a.intervals.ClosedIntervalsByPhase(ctx, phaseID)
	if err != nil {
		return nil, err
	}

	groups := make(map[int64]*LineItem)
	first := make(map[int64]models.BilledInterval)
	var order []int64
	for _, iv := range intervals {
		line, ok := groups[iv.ActionItemID]
		if !ok {
			line = &LineItem{
				ActionItemID:    iv.ActionItemID,
				Name:            iv.ActionItemName,
				TypeDescription: iv.TypeDescription,
				Date:            a.clk.LocalDate(iv.Start),
			}
			groups[iv.ActionItemID] = line
			first[iv.ActionItemID] = iv
			order = append(order, iv.ActionItemID)
		}
		// Whole seconds to fractional minutes, unrounded.
		seconds := iv.Stop.Sub(iv.Start).Seconds()
		line.Minutes += seconds / 60.0
	}

	bill := &Bill{PhaseID: phase.ID, ProjectID: phase.ProjectID, PhaseNumber: phase.Number}
	sort.Slice(order, func(i, j int) bool {
		return first[order[i]].Start.Before(first[order[j]].Start)
	})
	for _, id := range order {
		line := groups[id]
		// The fee arrives on every interval row from the live join; any
		// row of the group carries the current value.
		line.Money = (first[id].FeePerHour / 60.0) * line.Minutes
		bill.Lines = append(bill.Lines, *line)
		bill.TotalMinutes += line.Minutes
		bill.TotalMoney += line.Money
	}
	return bill, nil
}
