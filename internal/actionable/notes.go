package actionable

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"outlet-insights-go/internal/aggregator"
	"outlet-insights-go/internal/types"
)

var (
	bulletPrefix   = regexp.MustCompile(`^(?:[-*•]+\s*|\d+[.)]\s+)`)
	checkboxPrefix = regexp.MustCompile(`^\[( |x|X)\]\s*`)
)

// FromNote splits a visit note into action items, one per line or
// semicolon-separated clause. "[x]" marks an item already done.
func FromNote(note string, scope aggregator.Scope) []types.ActionRecord {
	stamp := scope.Now.UTC().Format(time.RFC3339)
	out := []types.ActionRecord{}
	for _, line := range strings.Split(note, "\n") {
		for _, clause := range strings.Split(line, ";") {
			text, done := cleanItem(clause)
			if text == "" {
				continue
			}
			out = append(out, types.ActionRecord{
				ID:        uuid.New().String(),
				Text:      text,
				Completed: done,
				Outlet:    scope.Outlet,
				CreatedAt: stamp,
				UpdatedAt: stamp,
			})
		}
	}
	return out
}

func cleanItem(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = bulletPrefix.ReplaceAllString(s, "")
	done := false
	if m := checkboxPrefix.FindStringSubmatch(s); m != nil {
		done = strings.EqualFold(m[1], "x")
		s = s[len(m[0]):]
	}
	return strings.TrimSpace(s), done
}
