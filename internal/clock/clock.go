// Package clock converts between absolute (UTC) storage time and local
// wall-clock display time. All persisted timestamps are UTC; every
// human-facing read converts to local, every human-entered write parses
// local and converts back before persisting.
package clock

import (
	"time"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// Layout is the canonical local timestamp form accepted from and shown
// to users.
const Layout = "2006-01-02 15:04:05"

// DateLayout is the calendar-date form used on invoice line items.
const DateLayout = "2006-01-02"

// Converter is a pure, stateless converter pinned to one location.
type Converter struct {
	loc *time.Location
}

// New builds a converter for the named IANA zone, e.g. "America/Chicago".
// An empty name means the system's local zone.
func New(zone string) (*Converter, error) {
	if zone == "" {
		return &Converter{loc: time.Local}, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, err
	}
	return &Converter{loc: loc}, nil
}

// Fixed builds a converter for an explicit location, used by tests.
func Fixed(loc *time.Location) *Converter { return &Converter{loc: loc} }

// Location returns the converter's zone.
func (c *Converter) Location() *time.Location { return c.loc }

// Now returns the current instant in UTC, the form all writes persist.
func (c *Converter) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// ToLocal formats an absolute instant as a canonical local string.
func (c *Converter) ToLocal(t time.Time) string {
	return t.In(c.loc).Format(Layout)
}

// ToAbsolute parses a canonical local string into the UTC instant it
// names. ToLocal(ToAbsolute(s)) == s for any canonical s. During a
// backward daylight-saving transition an ambiguous local string resolves
// to the first occurrence, per time.ParseInLocation.
func (c *Converter) ToAbsolute(field, value string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, value, c.loc)
	if err != nil {
		return time.Time{}, &models.InvalidTimestampError{Field: field, Value: value, Err: err}
	}
	return t.UTC(), nil
}

// LocalDate returns the local calendar date of an absolute instant.
func (c *Converter) LocalDate(t time.Time) string {
	return t.In(c.loc).Format(DateLayout)
}
