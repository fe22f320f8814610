package actionable

import (
	"fmt"

	"outlet-insights-go/internal/aggregator"
)

type ActionCard struct {
	Metric  aggregator.Metric `json:"metric"`
	Status  aggregator.Status `json:"status"`
	Insight string            `json:"insight"`
	Action  string            `json:"action"`
	Impact  string            `json:"impact"`
}

var playbook = map[aggregator.Metric]struct{ action, impact string }{
	aggregator.MetricCallCompliance: {
		action: "Re-plan the call cycle and lock visits into the journey plan",
		impact: "Restores visit cadence and protects share of tap",
	},
	aggregator.MetricCallsPerDay: {
		action: "Cluster nearby outlets to lift daily call volume",
		impact: "More selling time per day in trade",
	},
	aggregator.MetricDaysInTrade: {
		action: "Cut office days and move admin to evenings",
		impact: "More face time with outlet owners",
	},
	aggregator.MetricDistribution: {
		action: "Agree a listing plan with the owner for the missing lines",
		impact: "Closes the distribution gap against target",
	},
}

// Generate turns red and amber classifications into cards, red first.
func Generate(cs []aggregator.Classification) []ActionCard {
	var cards []ActionCard
	for _, want := range []aggregator.Status{aggregator.StatusRed, aggregator.StatusAmber} {
		for _, c := range cs {
			if c.Status != want {
				continue
			}
			p := playbook[c.Metric]
			cards = append(cards, ActionCard{
				Metric:  c.Metric,
				Status:  c.Status,
				Insight: insight(c),
				Action:  p.action,
				Impact:  p.impact,
			})
		}
	}
	if len(cards) == 0 {
		return []ActionCard{{
			Insight: "All tracked KPIs are on target",
			Action:  "Keep the current call plan and monitor",
			Impact:  "Low immediate intervention",
		}}
	}
	return cards
}

func insight(c aggregator.Classification) string {
	label := c.Label
	if label == "" {
		label = string(c.Metric)
	}
	if c.Ratio != nil {
		return fmt.Sprintf("%s at %.0f%% of target (%s)", label, *c.Ratio, c.Status)
	}
	return fmt.Sprintf("%s at %.1f (%s)", label, c.Value, c.Status)
}
