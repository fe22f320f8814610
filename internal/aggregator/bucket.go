package aggregator

import (
	"time"

	"github.com/sirupsen/logrus"

	"outlet-insights-go/internal/types"
)

// BucketByDay produces one bucket per calendar day of the resolved window,
// in ascending order. An all-time range longer than 30 days is cut to the
// trailing 30 days ending today.
func BucketByDay(records []types.ActionRecord, w Window, scope Scope) []types.Bucket {
	r := ResolveWindow(w, scope, records)
	if w == WindowAllTime && r.Days() > maxChartDays {
		r.Start = r.End.AddDate(0, 0, -(maxChartDays - 1))
	}
	return BucketRange(records, r, scope.loc())
}

// BucketRange counts records per day over r. Days without records are
// zero-filled; records outside r are dropped; unparseable timestamps are
// logged and skipped.
func BucketRange(records []types.ActionRecord, r TimeRange, loc *time.Location) []types.Bucket {
	if loc == nil {
		loc = time.UTC
	}
	buckets := []types.Bucket{}
	index := map[string]int{}
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		key := d.Format(DayLayout)
		index[key] = len(buckets)
		buckets = append(buckets, types.Bucket{Date: key})
	}

	for _, rec := range records {
		t, ok := parseTimestamp(rec.CreatedAt, loc)
		if !ok {
			log.WithFields(logrus.Fields{
				"action_id":  rec.ID,
				"created_at": rec.CreatedAt,
			}).Warn("skipping action with unparseable timestamp")
			continue
		}
		i, ok := index[t.Format(DayLayout)]
		if !ok {
			continue
		}
		if rec.Completed {
			buckets[i].Completed++
		} else {
			buckets[i].Pending++
		}
	}
	return buckets
}
