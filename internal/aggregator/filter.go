package aggregator

import (
	"errors"
	"fmt"
	"strings"

	"outlet-insights-go/internal/types"
)

// StatusFilter narrows actions by completion.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusCompleted StatusFilter = "completed"
	StatusPending   StatusFilter = "pending"
)

var ErrUnknownStatus = errors.New("unknown status filter")

// ParseStatus defaults to all for an empty value.
func ParseStatus(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return StatusAll, nil
	case StatusAll, StatusCompleted, StatusPending:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (f StatusFilter) match(r types.ActionRecord) bool {
	switch f {
	case StatusCompleted:
		return r.Completed
	case StatusPending:
		return !r.Completed
	}
	return true
}

// ActionView is a filtered action list. Stats describes Items; WindowStats
// describes the time-scoped population before the status filter.
type ActionView struct {
	Window      Window               `json:"window"`
	Status      StatusFilter         `json:"status"`
	Range       TimeRange            `json:"range"`
	Items       []types.ActionRecord `json:"items"`
	Stats       types.ActionStats    `json:"stats"`
	WindowStats types.ActionStats    `json:"window_stats"`
}

// FilterActions applies the window filter, then the status filter.
func FilterActions(records []types.ActionRecord, w Window, status StatusFilter, scope Scope) ActionView {
	r := ResolveWindow(w, scope, records)
	inWindow := []types.ActionRecord{}
	for _, rec := range records {
		if w == WindowAllTime {
			inWindow = append(inWindow, rec)
			continue
		}
		t, ok := parseTimestamp(rec.CreatedAt, scope.loc())
		if ok && r.Contains(t) {
			inWindow = append(inWindow, rec)
		}
	}

	items := []types.ActionRecord{}
	for _, rec := range inWindow {
		if status.match(rec) {
			items = append(items, rec)
		}
	}
	return ActionView{
		Window:      w,
		Status:      status,
		Range:       r,
		Items:       items,
		Stats:       Stats(items),
		WindowStats: Stats(inWindow),
	}
}

// Stats counts completed and pending actions.
func Stats(records []types.ActionRecord) types.ActionStats {
	s := types.ActionStats{Total: len(records)}
	for _, r := range records {
		if r.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Total) * 100
	}
	return s
}
