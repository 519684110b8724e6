// Package timer holds the start/stop state machine and the phase
// sequencer. Each session is Idle or Timing; Timing means exactly one
// open time record, bound to an action item and a phase.
package timer

import (
	"context"
	"errors"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
	"github.com/stopwatch-io/stopwatch-ce/internal/repository"
)

// Sequencer assigns phase numbers for a project: 1 for the first phase,
// max+1 after that. Numbers are never reused.
type Sequencer struct {
	phases repository.PhaseRepository
}

func NewSequencer(phases repository.PhaseRepository) *Sequencer {
	return &Sequencer{phases: phases}
}

// CurrentOrNewPhase returns the highest-numbered phase of the project,
// creating phase 1 when none exists yet. StartTiming uses it when no
// phase context is supplied.
func (s *Sequencer) CurrentOrNewPhase(ctx context.Context, projectID int64) (*models.Phase, error) {
	phase, err := s.phases.Latest(ctx, projectID)
	if errors.Is(err, models.ErrPhaseNotFound) {
		return s.phases.CreateNext(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}
	return phase, nil
}

// NextPhase always creates a new phase with the next number.
func (s *Sequencer) NextPhase(ctx context.Context, projectID int64) (*models.Phase, error) {
	return s.phases.CreateNext(ctx, projectID)
}
