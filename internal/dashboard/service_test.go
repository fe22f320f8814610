package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outlet-insights-go/internal/aggregator"
	"outlet-insights-go/internal/assistant"
	"outlet-insights-go/internal/narrative"
	"outlet-insights-go/internal/store"
	"outlet-insights-go/internal/types"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu       sync.Mutex
	outlets  map[string]types.Outlet
	sales    []types.SalesRecord
	actions  []types.ActionRecord
	trades   []types.TradeRecord
	kpi      *types.OutletKPI
	dist     []types.ProductDistribution
	failures map[string]error
	inserted []types.ActionRecord
	toggled  map[string]bool
}

func (f *fakeSource) Outlet(_ context.Context, name string) (types.Outlet, error) {
	o, ok := f.outlets[name]
	if !ok {
		return types.Outlet{}, fmt.Errorf("outlet %q: %w", name, store.ErrNotFound)
	}
	return o, nil
}

func (f *fakeSource) ListOutlets(context.Context) ([]types.Outlet, error) {
	var out []types.Outlet
	for _, o := range f.outlets {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeSource) SalesForOutlet(_ context.Context, _ string, _ int) ([]types.SalesRecord, error) {
	return f.sales, f.failures[SourceSales]
}

func (f *fakeSource) ActionsForOutlet(context.Context, string) ([]types.ActionRecord, error) {
	return f.actions, f.failures[SourceActions]
}

func (f *fakeSource) TradesForOutlet(context.Context, string) ([]types.TradeRecord, error) {
	if err := f.failures[SourceTrades]; err != nil {
		return nil, err
	}
	return f.trades, nil
}

func (f *fakeSource) KPIForOutlet(context.Context, string) (types.OutletKPI, error) {
	if err := f.failures[SourceKPIs]; err != nil {
		return types.OutletKPI{}, err
	}
	if f.kpi == nil {
		return types.OutletKPI{}, store.ErrNotFound
	}
	return *f.kpi, nil
}

func (f *fakeSource) DistributionForOutlet(context.Context, string) ([]types.ProductDistribution, error) {
	return f.dist, f.failures[SourceDistribution]
}

func (f *fakeSource) InsertActions(_ context.Context, actions []types.ActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, actions...)
	return nil
}

func (f *fakeSource) SetActionCompleted(_ context.Context, id string, completed bool, _ time.Time) error {
	if _, ok := f.toggled[id]; !ok {
		return store.ErrNotFound
	}
	f.toggled[id] = completed
	return nil
}

type downClient struct{}

func (downClient) Chat(context.Context, string, []string) (string, error) {
	return "", errors.New("gateway down")
}

type echoClient struct{ lines []string }

func (c *echoClient) Chat(_ context.Context, message string, lines []string) (string, error) {
	c.lines = lines
	return "echo: " + message, nil
}

func newSource() *fakeSource {
	f := &fakeSource{
		outlets: map[string]types.Outlet{
			"Kehoe's": {Name: "Kehoe's", Persona: "Sports Bar", Cluster: "City Centre"},
		},
		kpi:      &types.OutletKPI{Outlet: "Kehoe's", CallCompliance: 50, CallsPerDay: 5, DaysInTrade: 45},
		failures: map[string]error{},
		toggled:  map[string]bool{"a1": false},
	}
	start := testNow.AddDate(0, 0, -13)
	for i := 0; i < 14; i++ {
		v := 10.0
		if i >= 7 {
			v = 20
		}
		f.sales = append(f.sales, types.SalesRecord{
			Outlet: "Kehoe's", Date: start.AddDate(0, 0, i).Format("2006-01-02"),
			Volumes: map[string]float64{"guinness": v},
		})
	}
	f.trades = []types.TradeRecord{
		{Outlet: "Kehoe's", Period: "2026-09", Product: "Guinness Draught", Category: "Stout", Volume: 80},
		{Outlet: "Kehoe's", Period: "2026-09", Product: "Carlsberg", Category: "Lager", Volume: 20},
	}
	f.actions = []types.ActionRecord{
		{ID: "a1", Text: "Tap clean", Outlet: "Kehoe's", Completed: true, CreatedAt: "2026-10-15T09:00:00Z"},
		{ID: "a2", Text: "POS kit", Outlet: "Kehoe's", CreatedAt: "2026-10-16T08:00:00Z"},
		{ID: "a3", Text: "Old", Outlet: "Kehoe's", CreatedAt: "2025-01-01T08:00:00Z"},
	}
	target := 4.0
	f.dist = []types.ProductDistribution{{Outlet: "Kehoe's", Product: "Guinness 0.0", Distributed: 4, Target: &target}}
	return f
}

func newService(src Source, c assistant.Client) *Service {
	return New(src, assistant.New(c), Options{TrendFields: []string{"guinness"}})
}

func scope() aggregator.Scope {
	return aggregator.NewScope("Kehoe's", testNow, time.UTC)
}

func TestBuild_AllSources(t *testing.T) {
	svc := newService(newSource(), downClient{})

	v, err := svc.Build(context.Background(), scope(), aggregator.WindowLast30Days)
	require.NoError(t, err)

	assert.Nil(t, v.Errors)
	require.Len(t, v.Trends, 1)
	assert.Equal(t, 100.0, v.Trends[0].Change)

	require.Len(t, v.KPIs, 3)
	assert.Equal(t, aggregator.StatusRed, v.KPIs[0].Status)
	require.Len(t, v.Distribution, 1)
	assert.Equal(t, aggregator.StatusGreen, v.Distribution[0].Status)
	require.NotEmpty(t, v.Cards)
	assert.Equal(t, aggregator.MetricCallCompliance, v.Cards[0].Metric)

	assert.Len(t, v.Buckets, 30)
	assert.Equal(t, types.ActionStats{Total: 2, Completed: 1, Pending: 1, CompletionRate: 50}, v.ActionStats)

	require.Len(t, v.Growth, 2)
	assert.Equal(t, "Guinness Draught", v.Growth[0].Name)
	assert.Contains(t, v.Summary, "Guinness Draught (80.0% of total volume)")
	assert.Contains(t, v.Summary, "followed by Carlsberg (20.0%)")
}

func TestBuild_SourceFailureIsIsolated(t *testing.T) {
	src := newSource()
	src.failures[SourceTrades] = errors.New("relation trade_volumes does not exist")
	src.failures[SourceKPIs] = errors.New("timeout")
	svc := newService(src, downClient{})

	v, err := svc.Build(context.Background(), scope(), aggregator.WindowAllTime)
	require.NoError(t, err)

	assert.Contains(t, v.Errors[SourceTrades], "trade_volumes")
	assert.Equal(t, "timeout", v.Errors[SourceKPIs])
	assert.Empty(t, v.Growth)
	assert.Empty(t, v.KPIs)
	assert.Equal(t, narrative.NoDataText, v.Summary)
	assert.Len(t, v.Trends, 1, "sales still render")
	assert.Equal(t, 3, v.ActionStats.Total)
}

func TestBuild_MissingKPIsIsNotAnError(t *testing.T) {
	src := newSource()
	src.kpi = nil
	src.dist = nil
	v, err := newService(src, downClient{}).Build(context.Background(), scope(), aggregator.WindowToday)
	require.NoError(t, err)
	assert.Nil(t, v.Errors)
	assert.Empty(t, v.Cards)
	assert.Len(t, v.Buckets, 1)
}

func TestBuild_UnknownOutlet(t *testing.T) {
	svc := newService(newSource(), downClient{})
	_, err := svc.Build(context.Background(), aggregator.NewScope("Nowhere", testNow, time.UTC), aggregator.WindowToday)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestActions(t *testing.T) {
	svc := newService(newSource(), downClient{})
	view, err := svc.Actions(context.Background(), scope(), aggregator.WindowAllTime, aggregator.StatusPending)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 3, view.WindowStats.Total)
}

func TestCaptureNote(t *testing.T) {
	src := newSource()
	svc := newService(src, downClient{})

	got, err := svc.CaptureNote(context.Background(), scope(), "- Order Guinness 0.0 POS\n[x] Called owner")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, got, src.inserted)
	assert.Equal(t, "Kehoe's", got[0].Outlet)
	assert.True(t, got[1].Completed)

	_, err = svc.CaptureNote(context.Background(), scope(), "  \n ; ")
	assert.ErrorIs(t, err, ErrEmptyNote)
}

func TestToggleAction(t *testing.T) {
	src := newSource()
	svc := newService(src, downClient{})

	require.NoError(t, svc.ToggleAction(context.Background(), "a1", true, testNow))
	assert.True(t, src.toggled["a1"])
	assert.ErrorIs(t, svc.ToggleAction(context.Background(), "zz", true, testNow), store.ErrNotFound)
}

func TestChat(t *testing.T) {
	t.Run("fallback uses persona", func(t *testing.T) {
		reply, err := newService(newSource(), downClient{}).Chat(context.Background(), scope(), "What next?")
		require.NoError(t, err)
		assert.True(t, reply.Fallback)
		assert.Contains(t, reply.Text, "for a Sports Bar outlet")
	})

	t.Run("context lines", func(t *testing.T) {
		c := &echoClient{}
		reply, err := newService(newSource(), c).Chat(context.Background(), scope(), "What next?")
		require.NoError(t, err)
		assert.Equal(t, "echo: What next?", reply.Text)
		assert.Contains(t, c.lines, "Persona: Sports Bar")
		assert.Contains(t, c.lines, "guinness: last week 140.0 vs previous 70.0 (+100.0%)")
		assert.Contains(t, c.lines, "Guinness 0.0: 4.0, 100% of target (green)")
		assert.Contains(t, c.lines, "Call compliance: 50.0 (red)")
	})
}

func TestContextLines_Distribution(t *testing.T) {
	target := 20.0
	lines := ContextLines(View{
		Outlet: types.Outlet{Name: "Kehoe's"},
		Distribution: aggregator.ClassifyDistribution([]types.ProductDistribution{
			{Outlet: "Kehoe's", Product: "Hop House 13", Distributed: 13, Target: &target},
			{Outlet: "Kehoe's", Product: "Rockshore", Distributed: 7},
		}),
	})

	assert.Contains(t, lines, "Hop House 13: 13.0, 65% of target (red)")
	assert.Contains(t, lines, "Rockshore: 7.0, no target")
	for _, l := range lines {
		assert.NotContains(t, l, "no_target")
	}
}
