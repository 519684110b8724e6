package models

// Project status ids. Status 1 hides a project from the owner's active
// list; any other status is a display label with no engine semantics.
const (
	StatusClosed int64 = 1
	StatusActive int64 = 2
)

type Project struct {
	ID           int64   `json:"id" db:"id"`
	UserID       int64   `json:"user_id" db:"user_id"`
	TTNumber     *int64  `json:"tt_number,omitempty" db:"tt_number"`
	OfficeSerial *string `json:"office_serial,omitempty" db:"office_serial"`
	Description  *string `json:"description,omitempty" db:"description"`
	Notes        *string `json:"notes,omitempty" db:"notes"`
	StatusID     int64   `json:"status_id" db:"status_id"`
}

func (p *Project) IsClosed() bool { return p.StatusID == StatusClosed }

type ProjectStatus struct {
	ID          int64  `json:"id" db:"id"`
	Description string `json:"description" db:"description"`
}

// ProjectSummary is a project row decorated with its recorded minutes,
// as shown on the owner's project list.
type ProjectSummary struct {
	ID           int64   `json:"id" db:"id"`
	Description  *string `json:"description,omitempty" db:"description"`
	TotalMinutes float64 `json:"total_minutes" db:"total_minutes"`
}
