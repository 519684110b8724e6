package models

// ActionItem is a billable task definition within a project, tagged with
// a type and an hourly rate. Archived items keep their historical time
// records but are excluded from listings offered for new timing.
type ActionItem struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	ProjectID int64  `json:"project_id" db:"project_id"`
	TypeID    int64  `json:"type_id" db:"type_id"`
	RateID    int64  `json:"rate_id" db:"rate_id"`
	ValidID   int    `json:"valid_id" db:"valid_id"`
}

func (a *ActionItem) IsArchived() bool { return a.ValidID != ValidID }

type ItemType struct {
	ID          int64  `json:"id" db:"id"`
	Description string `json:"description" db:"description"`
	ValidID     int    `json:"valid_id" db:"valid_id"`
}

// ItemRate carries the fee applied per hour of recorded time. The fee is
// read at aggregation time, never frozen onto intervals, so edits apply
// retroactively to anything not yet billed.
type ItemRate struct {
	ID          int64   `json:"id" db:"id"`
	Description string  `json:"description" db:"description"`
	FeePerHour  float64 `json:"fee_per_hour" db:"fee_per_hour"`
	ValidID     int     `json:"valid_id" db:"valid_id"`
}

// ActionItemDetail is the joined listing row: item plus the descriptions
// and fee of its type and rate.
type ActionItemDetail struct {
	ID              int64   `json:"id" db:"id"`
	Name            string  `json:"name" db:"name"`
	TypeDescription string  `json:"type" db:"type_description"`
	RateDescription string  `json:"rate" db:"rate_description"`
	FeePerHour      float64 `json:"fee_per_hour" db:"fee_per_hour"`
}
