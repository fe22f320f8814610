// Package aggregator derives dashboard metrics from already-fetched outlet
// records: trend deltas, RAG classification, day buckets, grouping and
// action filtering. Everything here is synchronous and side-effect free
// apart from warn-level logging of skipped records.
package aggregator

import (
	"time"

	"outlet-insights-go/internal/logger"
)

var log = logger.New().WithField("component", "aggregator")

// DayLayout is the calendar-day key used for buckets and sales dates.
const DayLayout = "2006-01-02"

// Scope is the selection an aggregation runs under. Callers build one per
// request; nothing in this package reads selection from shared state.
type Scope struct {
	Outlet   string
	Now      time.Time
	Location *time.Location
}

// NewScope returns a Scope for outlet at now, in loc (UTC when nil).
func NewScope(outlet string, now time.Time, loc *time.Location) Scope {
	return Scope{Outlet: outlet, Now: now, Location: loc}
}

func (s Scope) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// Today is local midnight of Now.
func (s Scope) Today() time.Time {
	return startOfDay(s.Now.In(s.loc()))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// parseTimestamp accepts RFC3339 (with or without fractional seconds), the
// space-separated form Postgres emits, and bare dates. Values without an
// offset are wall-clock times in loc.
func parseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	for _, l := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999-07",
		"2006-01-02 15:04:05.999999-07:00",
	} {
		if t, err := time.Parse(l, raw); err == nil {
			return t.In(loc), true
		}
	}
	for _, l := range []string{
		"2006-01-02T15:04:05.999999",
		"2006-01-02 15:04:05.999999",
		DayLayout,
	} {
		if t, err := time.ParseInLocation(l, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
