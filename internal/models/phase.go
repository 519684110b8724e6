package models

import "time"

// Phase is a numbered container of time records within a project, the
// unit of billing. Numbers are unique per project, strictly increasing,
// and never reused; phases are permanent once created.
type Phase struct {
	ID        int64 `json:"id" db:"id"`
	ProjectID int64 `json:"project_id" db:"project_id"`
	Number    int   `json:"number" db:"number"`
}

// PhaseSummary is a phase decorated with its recorded minutes and last
// activity, as shown in the project view (most recent number first).
// LastActivity is filled in by the presentation layer from LastStart.
type PhaseSummary struct {
	ID           int64      `json:"id" db:"id"`
	ProjectID    int64      `json:"project_id" db:"project_id"`
	Number       int        `json:"number" db:"number"`
	TotalMinutes float64    `json:"total_minutes" db:"total_minutes"`
	LastStart    *time.Time `json:"-" db:"-"`
	LastActivity string     `json:"last_activity,omitempty" db:"-"`
}
