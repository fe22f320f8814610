package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outlet-insights-go/internal/types"
)

func trade(period, product, category string, volume float64) types.TradeRecord {
	return types.TradeRecord{Outlet: "Kehoe's", Period: period, Product: product, Category: category, Volume: volume}
}

func TestGroupBy_FirstOccurrenceOrder(t *testing.T) {
	in := []types.TradeRecord{
		trade("2026-01", "Carlsberg", "Lager", 1),
		trade("2026-01", "Guinness Draught", "Stout", 2),
		trade("2026-02", "Carlsberg", "Lager", 3),
		trade("2026-01", "Rockshore Cider", "Cider", 4),
		trade("2026-02", "Guinness Draught", "Stout", 5),
	}

	groups := GroupBy(in, func(r types.TradeRecord) string { return r.Product })

	require.Len(t, groups, 3)
	assert.Equal(t, "Carlsberg", groups[0].Key)
	assert.Equal(t, "Guinness Draught", groups[1].Key)
	assert.Equal(t, "Rockshore Cider", groups[2].Key)
	assert.Equal(t, []float64{1, 3}, []float64{groups[0].Items[0].Volume, groups[0].Items[1].Volume})
	assert.Equal(t, []float64{2, 5}, []float64{groups[1].Items[0].Volume, groups[1].Items[1].Volume})
}

func TestGroupBy_Empty(t *testing.T) {
	groups := GroupBy([]int(nil), func(i int) bool { return i > 0 })
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestCategoryVolumes(t *testing.T) {
	in := []types.TradeRecord{
		trade("2026-01", "Hop House 13", "Lager", 10),
		trade("2026-01", "Guinness Draught", "Stout", 40),
		trade("2026-01", "Carlsberg", "Lager", 15),
		trade("2026-01", "Mystery Keg", "", 2),
	}

	got := CategoryVolumes(in)

	require.Len(t, got, 3)
	assert.Equal(t, CategoryVolume{Category: "Lager", Volume: 25, Products: 2}, got[0])
	assert.Equal(t, "Other", got[2].Category)

	ranked := SortByVolumeDesc(got)
	assert.Equal(t, "Stout", ranked[0].Category)
	assert.Equal(t, "Lager", got[0].Category, "input slice is not reordered")
}

func TestBuildGrowth(t *testing.T) {
	in := []types.TradeRecord{
		trade("2026-02", "Guinness Draught", "Stout", 120),
		trade("2026-01", "Guinness Draught", "Stout", 100),
		trade("2026-01", "Carlsberg", "Lager", 50),
		trade("2026-02", "Carlsberg", "Lager", 40),
		trade("2026-02", "Guinness 0.0", "Stout", 5),
		trade("2026-01", "Smithwick's", "Ale", 0),
	}

	got := BuildGrowth(in)

	require.Len(t, got, 4)
	assert.Equal(t, "Guinness Draught", got[0].Name)
	assert.Equal(t, 220.0, got[0].Volume)
	assert.Equal(t, 100.0, got[0].FirstValue)
	assert.Equal(t, 120.0, got[0].LastValue)
	assert.Equal(t, 20.0, got[0].GrowthPercent)
	assert.Equal(t, -20.0, got[1].GrowthPercent)
	assert.Equal(t, 100.0, got[2].GrowthPercent, "new product counts as full swing")
	assert.Equal(t, 0.0, got[3].GrowthPercent)
	assert.NotEqual(t, got[0].Color, got[1].Color)
	assert.Equal(t, 315.0, TotalVolume(got))
}

func TestRankingAndMovers(t *testing.T) {
	entries := []types.GrowthEntry{
		{Name: "Carlsberg", Volume: 90, LastValue: 40, GrowthPercent: -20},
		{Name: "Guinness Draught", Volume: 220, LastValue: 120, GrowthPercent: 20},
		{Name: "Smithwick's", Volume: 0, LastValue: 0, GrowthPercent: -100},
	}

	byVol := RankByVolume(entries)
	assert.Equal(t, "Guinness Draught", byVol[0].Name)
	assert.Equal(t, "Carlsberg", entries[0].Name, "ranking copies")

	asc := RankByGrowth(entries, false)
	assert.Equal(t, "Smithwick's", asc[0].Name)

	top, ok := TopMover(entries)
	require.True(t, ok)
	assert.Equal(t, "Guinness Draught", top.Name)

	bottom, ok := BottomMover(entries)
	require.True(t, ok)
	assert.Equal(t, "Carlsberg", bottom.Name, "zero-volume products are never the bottom mover")

	_, ok = TopMover([]types.GrowthEntry{{Name: "flat", Volume: 3}})
	assert.False(t, ok)
	_, ok = BottomMover(nil)
	assert.False(t, ok)
}
