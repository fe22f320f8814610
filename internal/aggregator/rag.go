package aggregator

import (
	"errors"
	"fmt"
	"math"

	"outlet-insights-go/internal/types"
)

// Status is a RAG classification.
type Status string

const (
	StatusRed   Status = "red"
	StatusAmber Status = "amber"
	StatusGreen Status = "green"
	// StatusNoTarget is informational: a ratio metric with no usable target.
	StatusNoTarget Status = "no_target"
)

// Metric names a classified KPI.
type Metric string

const (
	MetricCallCompliance Metric = "call_compliance"
	MetricCallsPerDay    Metric = "calls_per_day"
	MetricDaysInTrade    Metric = "days_in_trade"
	MetricDistribution   Metric = "distribution"
)

var ErrUnknownMetric = errors.New("unknown metric")

type thresholds struct {
	green, amber float64
}

var ragTable = map[Metric]thresholds{
	MetricCallCompliance: {green: 80, amber: 60},
	MetricCallsPerDay:    {green: 3.0, amber: 2.0},
	MetricDaysInTrade:    {green: 40, amber: 30},
	MetricDistribution:   {green: 90, amber: 70}, // percent of target
}

// Classification is one classified KPI reading.
type Classification struct {
	Metric Metric   `json:"metric"`
	Label  string   `json:"label,omitempty"`
	Value  float64  `json:"value"`
	Ratio  *float64 `json:"ratio"`
	Status Status   `json:"status"`
}

// TargetRatio is value as a percent of target. ok is false when the target
// is missing, zero or negative; that is the only "no target" sentinel.
func TargetRatio(value float64, target *float64) (float64, bool) {
	if target == nil || *target <= 0 || math.IsNaN(*target) {
		return 0, false
	}
	return clean(value) * 100 / *target, true
}

// Classify maps a sample to a status using the fixed threshold table.
func Classify(metric Metric, s types.MetricSample) (Status, error) {
	th, ok := ragTable[metric]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	v := clean(s.Value)
	if metric == MetricDistribution {
		r, ok := TargetRatio(s.Value, s.Target)
		if !ok {
			return StatusNoTarget, nil
		}
		v = r
	}
	switch {
	case v >= th.green:
		return StatusGreen, nil
	case v >= th.amber:
		return StatusAmber, nil
	default:
		return StatusRed, nil
	}
}

// ClassifyKPI classifies the three call-quality KPIs of an outlet.
func ClassifyKPI(k types.OutletKPI) []Classification {
	readings := []struct {
		m     Metric
		label string
		v     float64
	}{
		{MetricCallCompliance, "Call compliance", k.CallCompliance},
		{MetricCallsPerDay, "Calls per day", k.CallsPerDay},
		{MetricDaysInTrade, "Days in trade", k.DaysInTrade},
	}
	out := make([]Classification, 0, len(readings))
	for _, r := range readings {
		st, _ := Classify(r.m, types.MetricSample{Value: r.v})
		out = append(out, Classification{Metric: r.m, Label: r.label, Value: clean(r.v), Status: st})
	}
	return out
}

// ClassifyDistribution classifies each product against its target.
func ClassifyDistribution(items []types.ProductDistribution) []Classification {
	out := make([]Classification, 0, len(items))
	for _, it := range items {
		c := Classification{Metric: MetricDistribution, Label: it.Product, Value: clean(it.Distributed)}
		if r, ok := TargetRatio(it.Distributed, it.Target); ok {
			c.Ratio = &r
		}
		c.Status, _ = Classify(MetricDistribution, types.MetricSample{Value: it.Distributed, Target: it.Target})
		out = append(out, c)
	}
	return out
}

func clean(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
