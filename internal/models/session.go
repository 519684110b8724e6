package models

import "time"

// OnlineSession is one logged-in session: an opaque token tied to a
// user, the project currently being viewed, and the open time record if
// the user is timing. TimeRecordID is non-nil iff that record's stop is
// null; the two facts are updated in the same transaction and must
// never diverge. A user has at most one session row at a time.
type OnlineSession struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	Token            string    `json:"-" db:"session_id"`
	TimeRecordID     *int64    `json:"time_record_id,omitempty" db:"time_record_id"`
	ViewingProjectID *int64    `json:"viewing_project_id,omitempty" db:"viewing_project_id"`
	CreateTime       time.Time `json:"create_time" db:"create_time"`
}

// IsTiming reports whether the session has an open interval.
func (s *OnlineSession) IsTiming() bool { return s.TimeRecordID != nil }
