package models

import "time"

// TimeRecord is one start/stop pair of absolute (UTC) timestamps for
// work on an action item. Stop is nil while the interval is open; at
// most one record per user has a nil stop at any moment.
type TimeRecord struct {
	ID           int64      `json:"id" db:"id"`
	ActionItemID int64      `json:"action_item_id" db:"action_item_id"`
	ProjectID    int64      `json:"project_id" db:"project_id"`
	PhaseID      int64      `json:"phase_id" db:"phase_id"`
	Start        time.Time  `json:"start" db:"start"`
	Stop         *time.Time `json:"stop,omitempty" db:"stop"`
}

func (r *TimeRecord) IsOpen() bool { return r.Stop == nil }

// Minutes returns the closed interval length in fractional minutes.
// Open records contribute nothing.
func (r *TimeRecord) Minutes() float64 {
	if r.Stop == nil {
		return 0
	}
	return r.Stop.Sub(r.Start).Seconds() / 60.0
}

// BilledInterval is the aggregation input row: a closed interval joined
// with its action item, type description and the rate's current fee.
type BilledInterval struct {
	ActionItemID    int64     `db:"action_item_id"`
	ActionItemName  string    `db:"action_item_name"`
	TypeDescription string    `db:"type_description"`
	FeePerHour      float64   `db:"fee_per_hour"`
	Start           time.Time `db:"start"`
	Stop            time.Time `db:"stop"`
}
