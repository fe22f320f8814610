package aggregator

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outlet-insights-go/internal/types"
)

// Friday 16 October 2026, mid-afternoon.
var testNow = time.Date(2026, 10, 16, 15, 4, 5, 0, time.UTC)

func testScope() Scope {
	return NewScope("The Long Hall", testNow, time.UTC)
}

func action(id string, completed bool, created string) types.ActionRecord {
	return types.ActionRecord{ID: id, Text: "follow up " + id, Completed: completed, Outlet: "The Long Hall", CreatedAt: created}
}

func countAll(t *testing.T, bs []types.Bucket) int {
	t.Helper()
	n := 0
	for _, b := range bs {
		assert.GreaterOrEqual(t, b.Completed, 0)
		assert.GreaterOrEqual(t, b.Pending, 0)
		n += b.Completed + b.Pending
	}
	return n
}

func TestResolveWindow(t *testing.T) {
	s := testScope()
	day := func(d int) time.Time { return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC) }

	assert.Equal(t, TimeRange{Start: day(16), End: day(16)}, ResolveWindow(WindowToday, s, nil))
	assert.Equal(t, TimeRange{Start: day(12), End: day(16)}, ResolveWindow(WindowThisWeek, s, nil))
	assert.Equal(t, TimeRange{Start: day(1), End: day(16)}, ResolveWindow(WindowThisMonth, s, nil))

	last30 := ResolveWindow(WindowLast30Days, s, nil)
	assert.Equal(t, time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC), last30.Start)
	assert.Equal(t, 30, last30.Days())

	all := ResolveWindow(WindowAllTime, s, []types.ActionRecord{
		action("a", false, "2026-10-10T09:00:00Z"),
		action("b", false, "not a date"),
		action("c", true, "2026-10-03T18:30:00Z"),
	})
	assert.Equal(t, day(3), all.Start)
	assert.Equal(t, day(16), all.End)

	empty := ResolveWindow(WindowAllTime, s, nil)
	assert.Equal(t, 1, empty.Days())
}

func TestResolveWindow_MondayIsWeekStart(t *testing.T) {
	monday := NewScope("x", time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC), time.UTC)
	r := ResolveWindow(WindowThisWeek, monday, nil)
	assert.Equal(t, 1, r.Days())

	sunday := NewScope("x", time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC), time.UTC)
	r = ResolveWindow(WindowThisWeek, sunday, nil)
	assert.Equal(t, 7, r.Days())
}

func TestBucketByDay_LengthMatchesWindow(t *testing.T) {
	s := testScope()
	for w, want := range map[Window]int{
		WindowToday:      1,
		WindowThisWeek:   5,
		WindowThisMonth:  16,
		WindowLast30Days: 30,
	} {
		got := BucketByDay(nil, w, s)
		assert.Len(t, got, want, string(w))
		for _, b := range got {
			assert.Zero(t, b.Completed)
			assert.Zero(t, b.Pending)
		}
	}
}

func TestBucketByDay_ZeroFillsAndCounts(t *testing.T) {
	recs := []types.ActionRecord{
		action("1", true, "2026-10-12T10:00:00Z"),
		action("2", false, "2026-10-12T11:00:00Z"),
		action("3", false, "2026-10-14T09:00:00Z"),
		action("4", true, "2026-10-01T09:00:00Z"), // before this week
	}

	got := BucketByDay(recs, WindowThisWeek, testScope())

	require.Len(t, got, 5)
	assert.Equal(t, types.Bucket{Date: "2026-10-12", Completed: 1, Pending: 1}, got[0])
	assert.Equal(t, types.Bucket{Date: "2026-10-13"}, got[1])
	assert.Equal(t, types.Bucket{Date: "2026-10-14", Pending: 1}, got[2])
	assert.Equal(t, "2026-10-16", got[4].Date)
	assert.Equal(t, 3, countAll(t, got))
	assert.Less(t, countAll(t, got), len(recs))
}

func TestBucketByDay_AllTimeCollapsesToTrailingThirty(t *testing.T) {
	recs := []types.ActionRecord{
		action("old", true, "2025-01-05T10:00:00Z"),
		action("recent", false, "2026-10-15T10:00:00Z"),
	}

	got := BucketByDay(recs, WindowAllTime, testScope())

	require.Len(t, got, 30)
	assert.Equal(t, "2026-09-17", got[0].Date)
	assert.Equal(t, "2026-10-16", got[29].Date)
	assert.Equal(t, 1, countAll(t, got))
}

func TestBucketByDay_AllTimeShortHistoryKeepsDataRange(t *testing.T) {
	recs := []types.ActionRecord{
		action("1", true, "2026-10-10T10:00:00Z"),
		action("2", false, "2026-10-16T10:00:00Z"),
	}

	got := BucketByDay(recs, WindowAllTime, testScope())

	require.Len(t, got, 7)
	assert.Equal(t, "2026-10-10", got[0].Date)
	assert.Equal(t, len(recs), countAll(t, got))
}

func TestBucketByDay_MalformedTimestampSkipped(t *testing.T) {
	recs := []types.ActionRecord{
		action("bad", true, "16/10/2026"),
		action("empty", true, ""),
		action("good", true, "2026-10-16 09:15:00.123+00"),
	}

	got := BucketByDay(recs, WindowToday, testScope())

	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Completed)
}

func TestBucketByDay_UsesLocalDay(t *testing.T) {
	dublin, err := time.LoadLocation("Europe/Dublin")
	require.NoError(t, err)
	s := NewScope("x", testNow, dublin)

	// 23:30 UTC on the 15th is 00:30 on the 16th in Dublin (IST, UTC+1).
	got := BucketByDay([]types.ActionRecord{action("late", false, "2026-10-15T23:30:00Z")}, WindowToday, s)

	require.Len(t, got, 1)
	assert.Equal(t, "2026-10-16", got[0].Date)
	assert.Equal(t, 1, got[0].Pending)
}

func TestBucketRange_ZonelessTimestampIsLocalWallClock(t *testing.T) {
	dublin, err := time.LoadLocation("Europe/Dublin")
	require.NoError(t, err)
	r, err := CustomRange(time.Date(2024, 7, 1, 0, 0, 0, 0, dublin), time.Date(2024, 7, 2, 0, 0, 0, 0, dublin))
	require.NoError(t, err)

	got := BucketRange([]types.ActionRecord{
		action("naive", false, "2024-07-01 23:30:00"),
		action("naive-t", true, "2024-07-01T23:30:00"),
		action("offset", true, "2024-07-01 23:30:00+00"),
	}, r, dublin)

	require.Len(t, got, 2)
	assert.Equal(t, types.Bucket{Date: "2024-07-01", Completed: 1, Pending: 1}, got[0])
	assert.Equal(t, types.Bucket{Date: "2024-07-02", Completed: 1}, got[1], "offset-bearing value shifts to the next local day")
}

func TestBucketRange_Custom(t *testing.T) {
	r, err := CustomRange(time.Date(2026, 10, 1, 13, 0, 0, 0, time.UTC), time.Date(2026, 10, 3, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	got := BucketRange([]types.ActionRecord{action("1", true, "2026-10-02T00:00:00Z")}, r, time.UTC)

	require.Len(t, got, 3)
	assert.Equal(t, 1, got[1].Completed)

	_, err = CustomRange(testNow, testNow.AddDate(0, 0, -2))
	assert.Error(t, err)
}
