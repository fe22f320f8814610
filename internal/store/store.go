// Package store reads outlet data from the hosted Postgres database. Rows
// are validated once here; aggregation code downstream trusts the shapes.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"outlet-insights-go/internal/logger"
	"outlet-insights-go/internal/types"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var ErrNotFound = errors.New("not found")

// Connect opens a pool and pings it.
func Connect(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = maxConns
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type Repository struct {
	db  DBTX
	log *logrus.Entry
}

func NewRepository(db DBTX) *Repository {
	return &Repository{db: db, log: logger.New().Component("store")}
}

// skipInvalid logs and reports whether rec fails its contract.
func (r *Repository) skipInvalid(kind string, rec any) bool {
	if err := types.Validate(rec); err != nil {
		r.log.WithError(err).WithField("kind", kind).Warn("dropping invalid row")
		return true
	}
	return false
}

func (r *Repository) Outlet(ctx context.Context, name string) (types.Outlet, error) {
	var o types.Outlet
	var persona, cluster, region *string
	err := r.db.QueryRow(ctx,
		`SELECT name, persona, cluster, region FROM outlets WHERE name = $1`, name,
	).Scan(&o.Name, &persona, &cluster, &region)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Outlet{}, fmt.Errorf("outlet %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return types.Outlet{}, fmt.Errorf("query outlet: %w", err)
	}
	o.Persona, o.Cluster, o.Region = deref(persona), deref(cluster), deref(region)
	return o, nil
}

func (r *Repository) ListOutlets(ctx context.Context) ([]types.Outlet, error) {
	rows, err := r.db.Query(ctx, `SELECT name, persona, cluster, region FROM outlets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query outlets: %w", err)
	}
	defer rows.Close()

	out := []types.Outlet{}
	for rows.Next() {
		var o types.Outlet
		var persona, cluster, region *string
		if err := rows.Scan(&o.Name, &persona, &cluster, &region); err != nil {
			return nil, fmt.Errorf("scan outlet: %w", err)
		}
		o.Persona, o.Cluster, o.Region = deref(persona), deref(cluster), deref(region)
		if r.skipInvalid("outlet", o) {
			continue
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// SalesForOutlet returns the most recent days of sales, one record per
// date in ascending order, with brands pivoted into Volumes.
func (r *Repository) SalesForOutlet(ctx context.Context, outlet string, days int) ([]types.SalesRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT sale_date, brand, volume
		FROM outlet_sales
		WHERE outlet_name = $1
		  AND sale_date > (SELECT max(sale_date) FROM outlet_sales WHERE outlet_name = $1) - $2::int
		ORDER BY sale_date, brand`, outlet, days)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	out := []types.SalesRecord{}
	for rows.Next() {
		var day time.Time
		var brand string
		var volume *float64
		if err := rows.Scan(&day, &brand, &volume); err != nil {
			return nil, fmt.Errorf("scan sales: %w", err)
		}
		key := day.Format("2006-01-02")
		if n := len(out); n == 0 || out[n-1].Date != key {
			out = append(out, types.SalesRecord{Outlet: outlet, Date: key, Volumes: map[string]float64{}})
		}
		if volume != nil && !math.IsNaN(*volume) {
			out[len(out)-1].Volumes[types.FieldKey(brand)] += *volume
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read sales: %w", err)
	}

	valid := out[:0]
	for _, rec := range out {
		if !r.skipInvalid("sales", rec) {
			valid = append(valid, rec)
		}
	}
	return valid, nil
}

func (r *Repository) ActionsForOutlet(ctx context.Context, outlet string) ([]types.ActionRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, text, completed, outlet, created_at, updated_at
		FROM actions
		WHERE outlet = $1
		ORDER BY created_at DESC`, outlet)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	out := []types.ActionRecord{}
	for rows.Next() {
		var a types.ActionRecord
		var created, updated *time.Time
		if err := rows.Scan(&a.ID, &a.Text, &a.Completed, &a.Outlet, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if created == nil {
			r.log.WithField("action_id", a.ID).Warn("dropping action without created_at")
			continue
		}
		a.CreatedAt = created.UTC().Format(time.RFC3339Nano)
		if updated != nil {
			a.UpdatedAt = updated.UTC().Format(time.RFC3339Nano)
		}
		if r.skipInvalid("action", a) {
			continue
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) TradesForOutlet(ctx context.Context, outlet string) ([]types.TradeRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT period, product, category, volume
		FROM trade_volumes
		WHERE outlet_name = $1
		ORDER BY period, product`, outlet)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	out := []types.TradeRecord{}
	for rows.Next() {
		t := types.TradeRecord{Outlet: outlet}
		var category *string
		var volume *float64
		if err := rows.Scan(&t.Period, &t.Product, &category, &volume); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Category = deref(category)
		if volume != nil && !math.IsNaN(*volume) {
			t.Volume = *volume
		}
		if r.skipInvalid("trade", t) {
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) KPIForOutlet(ctx context.Context, outlet string) (types.OutletKPI, error) {
	k := types.OutletKPI{Outlet: outlet}
	var compliance, calls, days *float64
	err := r.db.QueryRow(ctx, `
		SELECT call_compliance, calls_per_day, days_in_trade
		FROM outlet_kpis WHERE outlet_name = $1`, outlet,
	).Scan(&compliance, &calls, &days)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.OutletKPI{}, fmt.Errorf("kpis for %q: %w", outlet, ErrNotFound)
	}
	if err != nil {
		return types.OutletKPI{}, fmt.Errorf("query kpis: %w", err)
	}
	k.CallCompliance, k.CallsPerDay, k.DaysInTrade = num(compliance), num(calls), num(days)
	if err := types.Validate(k); err != nil {
		return types.OutletKPI{}, fmt.Errorf("invalid kpis for %q: %w", outlet, err)
	}
	return k, nil
}

func (r *Repository) DistributionForOutlet(ctx context.Context, outlet string) ([]types.ProductDistribution, error) {
	rows, err := r.db.Query(ctx, `
		SELECT product, distributed, target
		FROM product_distribution
		WHERE outlet_name = $1
		ORDER BY product`, outlet)
	if err != nil {
		return nil, fmt.Errorf("query distribution: %w", err)
	}
	defer rows.Close()

	out := []types.ProductDistribution{}
	for rows.Next() {
		d := types.ProductDistribution{Outlet: outlet}
		var distributed *float64
		if err := rows.Scan(&d.Product, &distributed, &d.Target); err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		d.Distributed = num(distributed)
		if r.skipInvalid("distribution", d) {
			continue
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// InsertActions stores new actions in a single statement, so either every
// record lands or none does. All records are validated before anything is
// sent.
func (r *Repository) InsertActions(ctx context.Context, actions []types.ActionRecord) error {
	if len(actions) == 0 {
		return nil
	}
	const cols = 5
	var sql strings.Builder
	sql.WriteString(`INSERT INTO actions (id, text, completed, outlet, created_at, updated_at) VALUES `)
	args := make([]any, 0, len(actions)*cols)
	for i, a := range actions {
		if err := types.Validate(a); err != nil {
			return fmt.Errorf("invalid action: %w", err)
		}
		created, err := time.Parse(time.RFC3339Nano, a.CreatedAt)
		if err != nil {
			return fmt.Errorf("action %s created_at: %w", a.ID, err)
		}
		if i > 0 {
			sql.WriteString(", ")
		}
		n := i * cols
		fmt.Fprintf(&sql, "($%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+5)
		args = append(args, a.ID, a.Text, a.Completed, a.Outlet, created)
	}
	if _, err := r.db.Exec(ctx, sql.String(), args...); err != nil {
		return fmt.Errorf("insert %d actions: %w", len(actions), err)
	}
	return nil
}

func (r *Repository) SetActionCompleted(ctx context.Context, id string, completed bool, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE actions SET completed = $2, updated_at = $3 WHERE id = $1`, id, completed, at)
	if err != nil {
		return fmt.Errorf("update action %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("action %s: %w", id, ErrNotFound)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func num(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	return *v
}
