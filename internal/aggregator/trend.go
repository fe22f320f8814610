package aggregator

import (
	"math"

	"outlet-insights-go/internal/types"
)

// PercentChange is the period-over-period delta in percent. A move from
// zero counts as +100 and zero-to-zero as flat. Not rounded.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// Round1 rounds to one decimal place for display.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// WeeklyComparison is the trailing-week delta for one sales field.
type WeeklyComparison struct {
	Field        string  `json:"field"`
	PreviousWeek float64 `json:"previous_week"`
	LastWeek     float64 `json:"last_week"`
	Change       float64 `json:"change"`
}

const weekLen = 7

// CompareWeeks splits the trailing 14 records by position into two halves
// and compares the field sums. Gaps in dates are ignored. With fewer than
// 14 records the last 7 are still "last week" and the remainder, possibly
// empty, is "previous week".
func CompareWeeks(records []types.SalesRecord, field string) WeeklyComparison {
	window := records
	if len(window) > 2*weekLen {
		window = window[len(window)-2*weekLen:]
	}
	split := len(window) - weekLen
	if split < 0 {
		split = 0
	}

	var prev, last float64
	for i, r := range window {
		if i < split {
			prev += r.Value(field)
		} else {
			last += r.Value(field)
		}
	}
	return WeeklyComparison{
		Field:        field,
		PreviousWeek: prev,
		LastWeek:     last,
		Change:       PercentChange(last, prev),
	}
}

// WeeklyTrends runs CompareWeeks for each field in order.
func WeeklyTrends(records []types.SalesRecord, fields ...string) []WeeklyComparison {
	out := make([]WeeklyComparison, 0, len(fields))
	for _, f := range fields {
		out = append(out, CompareWeeks(records, f))
	}
	return out
}

// SumField totals a field over all records.
func SumField(records []types.SalesRecord, field string) float64 {
	var total float64
	for _, r := range records {
		total += r.Value(field)
	}
	return total
}
