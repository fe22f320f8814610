package aggregator

import (
	"sort"
	"strings"

	"outlet-insights-go/internal/types"
)

// Group is one key and its members in input order.
type Group[K comparable, T any] struct {
	Key   K   `json:"key"`
	Items []T `json:"items"`
}

// GroupBy partitions items by key. Keys appear in first-occurrence order;
// nothing is sorted.
func GroupBy[T any, K comparable](items []T, key func(T) K) []Group[K, T] {
	out := []Group[K, T]{}
	index := map[K]int{}
	for _, it := range items {
		k := key(it)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Group[K, T]{Key: k})
		}
		out[i].Items = append(out[i].Items, it)
	}
	return out
}

// CategoryVolume is the summed trade volume of one category.
type CategoryVolume struct {
	Category string  `json:"category"`
	Volume   float64 `json:"volume"`
	Products int     `json:"products"`
}

// CategoryVolumes totals trades per category in first-occurrence order.
// Blank categories are reported as "Other".
func CategoryVolumes(trades []types.TradeRecord) []CategoryVolume {
	groups := GroupBy(trades, func(t types.TradeRecord) string {
		if c := strings.TrimSpace(t.Category); c != "" {
			return c
		}
		return "Other"
	})
	out := make([]CategoryVolume, 0, len(groups))
	for _, g := range groups {
		cv := CategoryVolume{Category: g.Key}
		products := map[string]bool{}
		for _, t := range g.Items {
			cv.Volume += clean(t.Volume)
			products[t.Product] = true
		}
		cv.Products = len(products)
		out = append(out, cv)
	}
	return out
}

// SortByVolumeDesc ranks category volumes, keeping input order on ties.
func SortByVolumeDesc(in []CategoryVolume) []CategoryVolume {
	out := append([]CategoryVolume(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Volume > out[j].Volume })
	return out
}
