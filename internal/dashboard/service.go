// Package dashboard composes fetched outlet data into one view. Each data
// source is fetched in parallel and fails on its own: a broken source
// leaves its section empty and is reported in View.Errors.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"outlet-insights-go/internal/actionable"
	"outlet-insights-go/internal/aggregator"
	"outlet-insights-go/internal/assistant"
	"outlet-insights-go/internal/logger"
	"outlet-insights-go/internal/narrative"
	"outlet-insights-go/internal/store"
	"outlet-insights-go/internal/types"
)

// Source is the fetch layer the dashboard reads from. *store.Repository
// satisfies it.
type Source interface {
	Outlet(ctx context.Context, name string) (types.Outlet, error)
	ListOutlets(ctx context.Context) ([]types.Outlet, error)
	SalesForOutlet(ctx context.Context, outlet string, days int) ([]types.SalesRecord, error)
	ActionsForOutlet(ctx context.Context, outlet string) ([]types.ActionRecord, error)
	TradesForOutlet(ctx context.Context, outlet string) ([]types.TradeRecord, error)
	KPIForOutlet(ctx context.Context, outlet string) (types.OutletKPI, error)
	DistributionForOutlet(ctx context.Context, outlet string) ([]types.ProductDistribution, error)
	InsertActions(ctx context.Context, actions []types.ActionRecord) error
	SetActionCompleted(ctx context.Context, id string, completed bool, at time.Time) error
}

// Section names used as keys in View.Errors.
const (
	SourceSales        = "sales"
	SourceActions      = "actions"
	SourceTrades       = "trades"
	SourceKPIs         = "kpis"
	SourceDistribution = "distribution"
)

var ErrEmptyNote = errors.New("note contains no actions")

type Options struct {
	TrendFields []string
	SalesDays   int
	Profile     narrative.Profile
}

type Service struct {
	src       Source
	assistant *assistant.Assistant
	opts      Options
	log       *logrus.Entry
}

func New(src Source, asst *assistant.Assistant, opts Options) *Service {
	if opts.SalesDays < 14 {
		opts.SalesDays = 28
	}
	if len(opts.Profile.Groups) == 0 {
		opts.Profile = narrative.DefaultProfile()
	}
	return &Service{src: src, assistant: asst, opts: opts, log: logger.New().Component("dashboard")}
}

type View struct {
	Outlet       types.Outlet                  `json:"outlet"`
	Window       aggregator.Window             `json:"window"`
	Range        aggregator.TimeRange          `json:"range"`
	Trends       []aggregator.WeeklyComparison `json:"trends"`
	KPIs         []aggregator.Classification   `json:"kpis"`
	Distribution []aggregator.Classification   `json:"distribution"`
	Buckets      []types.Bucket                `json:"buckets"`
	ActionStats  types.ActionStats             `json:"action_stats"`
	Growth       []types.GrowthEntry           `json:"growth"`
	Categories   []aggregator.CategoryVolume   `json:"categories"`
	Summary      string                        `json:"summary"`
	Cards        []actionable.ActionCard       `json:"cards"`
	Errors       map[string]string             `json:"errors,omitempty"`
}

type fetched struct {
	sales   []types.SalesRecord
	actions []types.ActionRecord
	trades  []types.TradeRecord
	kpi     *types.OutletKPI
	dist    []types.ProductDistribution
}

func (s *Service) Outlets(ctx context.Context) ([]types.Outlet, error) {
	return s.src.ListOutlets(ctx)
}

// Build fetches every source for scope.Outlet and aggregates the view. The
// only error returned is the outlet lookup itself.
func (s *Service) Build(ctx context.Context, scope aggregator.Scope, w aggregator.Window) (View, error) {
	outlet, err := s.src.Outlet(ctx, scope.Outlet)
	if err != nil {
		return View{}, err
	}
	data, errs := s.fetch(ctx, outlet.Name)

	v := View{Outlet: outlet, Window: w, Errors: errs}
	v.Trends = aggregator.WeeklyTrends(data.sales, s.opts.TrendFields...)

	v.Range = aggregator.ResolveWindow(w, scope, data.actions)
	v.Buckets = aggregator.BucketByDay(data.actions, w, scope)
	v.ActionStats = aggregator.FilterActions(data.actions, w, aggregator.StatusAll, scope).Stats

	if data.kpi != nil {
		v.KPIs = aggregator.ClassifyKPI(*data.kpi)
	}
	v.Distribution = aggregator.ClassifyDistribution(data.dist)
	if all := classifications(v); len(all) > 0 {
		v.Cards = actionable.Generate(all)
	}

	v.Growth = aggregator.RankByVolume(aggregator.BuildGrowth(data.trades))
	v.Categories = aggregator.SortByVolumeDesc(aggregator.CategoryVolumes(data.trades))
	v.Summary = s.summarize(v.Growth, len(aggregator.Periods(data.trades)))

	if len(errs) == 0 {
		v.Errors = nil
	}
	return v, nil
}

func classifications(v View) []aggregator.Classification {
	return append(append([]aggregator.Classification{}, v.KPIs...), v.Distribution...)
}

func (s *Service) summarize(growth []types.GrowthEntry, periods int) string {
	text, err := narrative.Summarize(narrative.FromGrowth(growth, periods), s.opts.Profile)
	if err != nil {
		if !errors.Is(err, narrative.ErrNoVolume) {
			s.log.WithError(err).Warn("summary failed")
		}
		return narrative.NoDataText
	}
	return text
}

// fetch runs every source concurrently. A failing source never cancels
// the others.
func (s *Service) fetch(ctx context.Context, outlet string) (fetched, map[string]string) {
	var (
		mu   sync.Mutex
		data fetched
		errs = map[string]string{}
	)
	fail := func(source string, err error) {
		s.log.WithError(err).WithField("source", source).WithField("outlet", outlet).Warn("source fetch failed")
		mu.Lock()
		errs[source] = err.Error()
		mu.Unlock()
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sales, err := s.src.SalesForOutlet(gCtx, outlet, s.opts.SalesDays)
		if err != nil {
			fail(SourceSales, err)
			return nil
		}
		data.sales = sales
		return nil
	})
	g.Go(func() error {
		actions, err := s.src.ActionsForOutlet(gCtx, outlet)
		if err != nil {
			fail(SourceActions, err)
			return nil
		}
		data.actions = actions
		return nil
	})
	g.Go(func() error {
		trades, err := s.src.TradesForOutlet(gCtx, outlet)
		if err != nil {
			fail(SourceTrades, err)
			return nil
		}
		data.trades = trades
		return nil
	})
	g.Go(func() error {
		kpi, err := s.src.KPIForOutlet(gCtx, outlet)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			fail(SourceKPIs, err)
		default:
			data.kpi = &kpi
		}
		return nil
	})
	g.Go(func() error {
		dist, err := s.src.DistributionForOutlet(gCtx, outlet)
		if err != nil {
			fail(SourceDistribution, err)
			return nil
		}
		data.dist = dist
		return nil
	})
	_ = g.Wait()
	return data, errs
}

// Actions lists the outlet's actions for a window and status.
func (s *Service) Actions(ctx context.Context, scope aggregator.Scope, w aggregator.Window, status aggregator.StatusFilter) (aggregator.ActionView, error) {
	records, err := s.src.ActionsForOutlet(ctx, scope.Outlet)
	if err != nil {
		return aggregator.ActionView{}, fmt.Errorf("fetch actions: %w", err)
	}
	return aggregator.FilterActions(records, w, status, scope), nil
}

// CaptureNote turns a free-text note into stored actions.
func (s *Service) CaptureNote(ctx context.Context, scope aggregator.Scope, note string) ([]types.ActionRecord, error) {
	outlet, err := s.src.Outlet(ctx, scope.Outlet)
	if err != nil {
		return nil, err
	}
	scope.Outlet = outlet.Name
	records := actionable.FromNote(note, scope)
	if len(records) == 0 {
		return nil, ErrEmptyNote
	}
	if err := s.src.InsertActions(ctx, records); err != nil {
		return nil, fmt.Errorf("store actions: %w", err)
	}
	s.log.WithField("outlet", outlet.Name).WithField("count", len(records)).Info("captured note")
	return records, nil
}

func (s *Service) ToggleAction(ctx context.Context, id string, completed bool, at time.Time) error {
	return s.src.SetActionCompleted(ctx, id, completed, at.UTC())
}

// Chat answers a rep's question with the outlet's current numbers as
// context.
func (s *Service) Chat(ctx context.Context, scope aggregator.Scope, message string) (assistant.Reply, error) {
	v, err := s.Build(ctx, scope, aggregator.WindowLast30Days)
	if err != nil {
		return assistant.Reply{}, err
	}
	return s.assistant.Reply(ctx, v.Outlet.Persona, message, ContextLines(v)), nil
}

// ContextLines renders the view as short facts for the chat model.
func ContextLines(v View) []string {
	lines := []string{fmt.Sprintf("Outlet: %s", v.Outlet.Name)}
	if v.Outlet.Persona != "" {
		lines = append(lines, "Persona: "+v.Outlet.Persona)
	}
	if v.Outlet.Cluster != "" {
		lines = append(lines, "Cluster: "+v.Outlet.Cluster)
	}
	for _, t := range v.Trends {
		lines = append(lines, fmt.Sprintf("%s: last week %.1f vs previous %.1f (%+.1f%%)",
			t.Field, t.LastWeek, t.PreviousWeek, t.Change))
	}
	for _, c := range classifications(v) {
		name := string(c.Metric)
		if c.Label != "" {
			name = c.Label
		}
		switch {
		case c.Ratio != nil:
			lines = append(lines, fmt.Sprintf("%s: %.1f, %.0f%% of target (%s)", name, c.Value, *c.Ratio, c.Status))
		case c.Metric == aggregator.MetricDistribution:
			lines = append(lines, fmt.Sprintf("%s: %.1f, no target", name, c.Value))
		default:
			lines = append(lines, fmt.Sprintf("%s: %.1f (%s)", name, c.Value, c.Status))
		}
	}
	lines = append(lines, fmt.Sprintf("Actions: %d open, %d done", v.ActionStats.Pending, v.ActionStats.Completed))
	if v.Summary != "" && v.Summary != narrative.NoDataText {
		lines = append(lines, v.Summary)
	}
	return lines
}
