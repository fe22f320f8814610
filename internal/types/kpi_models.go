// internal/types/kpi_models.go
package types

// --------------------------------------------
// Call-quality KPIs for one outlet
// --------------------------------------------
type OutletKPI struct {
	Outlet         string  `json:"outlet" validate:"required"`
	CallCompliance float64 `json:"call_compliance" validate:"gte=0"` // percent
	CallsPerDay    float64 `json:"calls_per_day" validate:"gte=0"`
	DaysInTrade    float64 `json:"days_in_trade" validate:"gte=0"`
}

// --------------------------------------------
// Product distribution against target.
// Target is nil when no target has been set.
// --------------------------------------------
type ProductDistribution struct {
	Outlet      string   `json:"outlet" validate:"required"`
	Product     string   `json:"product" validate:"required"`
	Distributed float64  `json:"distributed" validate:"gte=0"`
	Target      *float64 `json:"target" validate:"omitempty,gte=0"`
}

// --------------------------------------------
// One KPI reading, optionally with its target
// --------------------------------------------
type MetricSample struct {
	Value  float64  `json:"value"`
	Target *float64 `json:"target,omitempty"`
}

// --------------------------------------------
// One calendar day of action counts
// --------------------------------------------
type Bucket struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
	Pending   int    `json:"pending"`
}

// --------------------------------------------
// Per-category growth across ordered periods
// --------------------------------------------
type GrowthEntry struct {
	Name          string  `json:"name"`
	Volume        float64 `json:"volume"`
	FirstValue    float64 `json:"first_value"`
	LastValue     float64 `json:"last_value"`
	GrowthPercent float64 `json:"growth_percent"`
	Color         string  `json:"color"`
}

// --------------------------------------------
// Completion statistics over a set of actions
// --------------------------------------------
type ActionStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completion_rate"`
}
