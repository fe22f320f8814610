package aggregator

import (
	"math"
	"sort"

	"outlet-insights-go/internal/types"
)

// palette colours are handed out to categories by first-occurrence index.
var palette = []string{
	"#1F2A44", "#C8A165", "#2E7D32", "#0277BD", "#AD1457",
	"#6A1B9A", "#EF6C00", "#00838F", "#5D4037", "#9E9D24",
}

// Periods returns the distinct periods of trades in ascending order.
func Periods(trades []types.TradeRecord) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range trades {
		if !seen[t.Period] {
			seen[t.Period] = true
			out = append(out, t.Period)
		}
	}
	sort.Strings(out)
	return out
}

// BuildGrowth computes one GrowthEntry per product, in first-occurrence
// order, comparing the first and last period totals.
func BuildGrowth(trades []types.TradeRecord) []types.GrowthEntry {
	periods := Periods(trades)
	if len(periods) == 0 {
		return []types.GrowthEntry{}
	}
	first, last := periods[0], periods[len(periods)-1]

	groups := GroupBy(trades, func(t types.TradeRecord) string { return t.Product })
	out := make([]types.GrowthEntry, 0, len(groups))
	for i, g := range groups {
		e := types.GrowthEntry{Name: g.Key, Color: palette[i%len(palette)]}
		for _, t := range g.Items {
			v := t.Volume
			if math.IsNaN(v) {
				v = 0
			}
			e.Volume += v
			if t.Period == first {
				e.FirstValue += v
			}
			if t.Period == last {
				e.LastValue += v
			}
		}
		e.GrowthPercent = PercentChange(e.LastValue, e.FirstValue)
		out = append(out, e)
	}
	return out
}

// TotalVolume sums Volume across entries.
func TotalVolume(entries []types.GrowthEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Volume
	}
	return total
}

// RankByVolume returns a copy ordered by LastValue, highest first.
func RankByVolume(entries []types.GrowthEntry) []types.GrowthEntry {
	out := append([]types.GrowthEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastValue > out[j].LastValue })
	return out
}

// RankByGrowth returns a copy ordered by GrowthPercent.
func RankByGrowth(entries []types.GrowthEntry, desc bool) []types.GrowthEntry {
	out := append([]types.GrowthEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].GrowthPercent > out[j].GrowthPercent
		}
		return out[i].GrowthPercent < out[j].GrowthPercent
	})
	return out
}

// TopMover is the highest-growth entry; ok is false when nothing moved.
func TopMover(entries []types.GrowthEntry) (types.GrowthEntry, bool) {
	ranked := RankByGrowth(entries, true)
	if len(ranked) == 0 || ranked[0].GrowthPercent == 0 {
		return types.GrowthEntry{}, false
	}
	return ranked[0], true
}

// BottomMover is the lowest-growth entry among those with volume. Absent
// products are skipped so they are never reported as declining.
func BottomMover(entries []types.GrowthEntry) (types.GrowthEntry, bool) {
	var best types.GrowthEntry
	found := false
	for _, e := range entries {
		if e.Volume == 0 {
			continue
		}
		if !found || e.GrowthPercent < best.GrowthPercent {
			best = e
			found = true
		}
	}
	return best, found
}
