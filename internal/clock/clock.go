package clock

import (
	"sync"
	"time"
)

// DateLayout is the calendar-date format used in learner records.
const DateLayout = "2006-01-02"

// Date is a calendar day in YYYY-MM-DD form. The zero value means "unset".
type Date string

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == "" }

// Valid reports whether d parses as a calendar date.
func (d Date) Valid() bool {
	_, err := time.Parse(DateLayout, string(d))
	return err == nil
}

// DaysUntil returns the number of whole calendar days from d to other.
// Negative when other is before d. Both dates must be valid.
func (d Date) DaysUntil(other Date) int {
	a, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return 0
	}
	b, err := time.Parse(DateLayout, string(other))
	if err != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}

// Clock supplies the current time to the engine.
type Clock interface {
	Now() time.Time
}

// Today returns the calendar date of c.Now().
func Today(c Clock) Date {
	return DateOf(c.Now())
}

// System is the wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Manual is a settable clock for tests and replays.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a Manual clock set to t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
