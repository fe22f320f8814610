package aggregator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"outlet-insights-go/internal/types"
)

// Window names a predefined time range.
type Window string

const (
	WindowToday      Window = "today"
	WindowThisWeek   Window = "this_week"
	WindowThisMonth  Window = "this_month"
	WindowLast30Days Window = "last_30_days"
	WindowAllTime    Window = "all_time"
)

// maxChartDays bounds the all-time series.
const maxChartDays = 30

var ErrUnknownWindow = errors.New("unknown window")

// ParseWindow accepts the window names plus a few UI spellings
// ("this week", "last-30-days").
func ParseWindow(s string) (Window, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch Window(norm) {
	case WindowToday, WindowThisWeek, WindowThisMonth, WindowLast30Days, WindowAllTime:
		return Window(norm), nil
	case "":
		return WindowAllTime, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWindow, s)
}

// TimeRange is an inclusive range of calendar days; Start and End are
// local midnights.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CustomRange builds a range from two instants, normalised to whole days.
func CustomRange(start, end time.Time) (TimeRange, error) {
	s, e := startOfDay(start), startOfDay(end.In(start.Location()))
	if s.After(e) {
		return TimeRange{}, fmt.Errorf("range start %s after end %s", s.Format(DayLayout), e.Format(DayLayout))
	}
	return TimeRange{Start: s, End: e}, nil
}

// Days is the number of calendar days in the range.
func (r TimeRange) Days() int {
	n := 0
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// Contains reports whether t falls on a day inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	day := startOfDay(t.In(r.Start.Location()))
	return !day.Before(r.Start) && !day.After(r.End)
}

// ResolveWindow turns a window into a concrete day range ending today.
// All time starts at the earliest parseable record, or today when there
// are none.
func ResolveWindow(w Window, scope Scope, records []types.ActionRecord) TimeRange {
	today := scope.Today()
	switch w {
	case WindowToday:
		return TimeRange{Start: today, End: today}
	case WindowThisWeek:
		offset := (int(today.Weekday()) + 6) % 7 // Monday start
		return TimeRange{Start: today.AddDate(0, 0, -offset), End: today}
	case WindowThisMonth:
		return TimeRange{Start: today.AddDate(0, 0, 1-today.Day()), End: today}
	case WindowLast30Days:
		return TimeRange{Start: today.AddDate(0, 0, -(maxChartDays - 1)), End: today}
	}

	start := today
	for _, r := range records {
		t, ok := parseTimestamp(r.CreatedAt, scope.loc())
		if !ok {
			continue
		}
		if d := startOfDay(t); d.Before(start) {
			start = d
		}
	}
	return TimeRange{Start: start, End: today}
}
