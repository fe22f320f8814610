package narrative

import (
	"fmt"
	"math"
	"strings"

	"outlet-insights-go/internal/aggregator"
)

// LeaderRule names the highest-volume category and the runner-up.
func LeaderRule(f Facts) (string, bool) {
	if len(f.Shares) == 0 {
		return "", false
	}
	lead := f.Shares[0]
	s := fmt.Sprintf("%s (%.1f%% of total volume) leads the product mix", lead.Entry.Name, lead.Percent)
	if len(f.Shares) > 1 {
		second := f.Shares[1]
		s += fmt.Sprintf(", followed by %s (%.1f%%)", second.Entry.Name, second.Percent)
	}
	return s + ".", true
}

// TopGrowthRule calls out the fastest grower when anything moved.
func TopGrowthRule(f Facts) (string, bool) {
	top, ok := aggregator.TopMover(f.Input.Categories)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s showed the strongest growth at %+.1f%%.", top.Name, top.GrowthPercent), true
}

// DecliningRule flags the weakest product still on sale, if it fell.
func DecliningRule(f Facts) (string, bool) {
	low, ok := aggregator.BottomMover(f.Input.Categories)
	if !ok || low.GrowthPercent >= 0 {
		return "", false
	}
	return fmt.Sprintf("%s declined the most at %.1f%%.", low.Name, low.GrowthPercent), true
}

func groupShare(f Facts, g CategoryGroup) float64 {
	var total float64
	for _, s := range f.Shares {
		if g.Matches(s.Entry.Name) {
			total += s.Percent
		}
	}
	return total
}

// CompositionRule names the first group over its threshold, or calls the
// mix balanced.
func CompositionRule(f Facts) (string, bool) {
	if len(f.Profile.Groups) == 0 {
		return "", false
	}
	for _, g := range f.Profile.Groups {
		if share := groupShare(f, g); share > g.Threshold {
			return fmt.Sprintf("The portfolio is %s-dominant (%.1f%% %s).", g.Name, share, g.Name), true
		}
	}
	names := make([]string, 0, len(f.Profile.Groups))
	for _, g := range f.Profile.Groups {
		names = append(names, g.Name)
	}
	return fmt.Sprintf("The outlet carries a balanced mix of %s.", joinAnd(names)), true
}

// MinorCategoryRule calls out the minor group once it is a real share.
func MinorCategoryRule(f Facts) (string, bool) {
	m := f.Profile.Minor
	if m.Name == "" {
		return "", false
	}
	share := groupShare(f, m)
	if share <= m.Threshold {
		return "", false
	}
	return fmt.Sprintf("%s accounts for %.1f%% of volume, a meaningful share worth protecting.", capitalize(m.Name), share), true
}

// TrendRule compares the summed first and last periods.
func TrendRule(f Facts) (string, bool) {
	if f.Input.Periods < 2 {
		return "", false
	}
	var first, last float64
	for _, c := range f.Input.Categories {
		first += c.FirstValue
		last += c.LastValue
	}
	change := aggregator.PercentChange(last, first)
	if math.Abs(change) <= f.Profile.StabilityThreshold {
		return "Overall volume remained stable across the period.", true
	}
	dir := "increased"
	if change < 0 {
		dir = "decreased"
	}
	return fmt.Sprintf("Overall volume %s by %.1f%% from the first to the latest period.", dir, math.Abs(change)), true
}

func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
