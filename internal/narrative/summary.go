// Package narrative turns aggregated product-mix figures into a short
// paragraph for the outlet dashboard. Each sentence comes from one rule;
// rules run in a fixed order because later sentences lean on the leader
// named by the first.
package narrative

import (
	"errors"
	"math"
	"sort"
	"strings"

	"outlet-insights-go/internal/aggregator"
	"outlet-insights-go/internal/types"
)

// NoDataText is what callers show when there is no volume to describe.
const NoDataText = "No sales volume recorded for this period."

var ErrNoVolume = errors.New("no volume to summarise")

// Input is the aggregated product mix for one outlet.
type Input struct {
	Categories  []types.GrowthEntry
	TotalVolume float64
	Periods     int
}

// Share is one category's slice of total volume.
type Share struct {
	Entry   types.GrowthEntry
	Percent float64
}

// Facts are computed once and shared by every rule.
type Facts struct {
	Input   Input
	Profile Profile
	Shares  []Share // by volume, highest first
}

// Rule produces an optional sentence.
type Rule interface {
	Name() string
	Sentence(f Facts) (string, bool)
}

// RuleFunc adapts a function to Rule.
type RuleFunc struct {
	RuleName string
	Fn       func(Facts) (string, bool)
}

func (r RuleFunc) Name() string                      { return r.RuleName }
func (r RuleFunc) Sentence(f Facts) (string, bool) { return r.Fn(f) }

// DefaultRules is the fixed sentence order.
func DefaultRules() []Rule {
	return []Rule{
		RuleFunc{"leader", LeaderRule},
		RuleFunc{"top_growth", TopGrowthRule},
		RuleFunc{"declining", DecliningRule},
		RuleFunc{"composition", CompositionRule},
		RuleFunc{"minor_category", MinorCategoryRule},
		RuleFunc{"trend", TrendRule},
	}
}

// NewFacts computes shares. It fails with ErrNoVolume when the total is
// not positive.
func NewFacts(in Input, p Profile) (Facts, error) {
	if in.TotalVolume <= 0 || math.IsNaN(in.TotalVolume) {
		return Facts{}, ErrNoVolume
	}
	shares := make([]Share, 0, len(in.Categories))
	for _, c := range in.Categories {
		shares = append(shares, Share{Entry: c, Percent: c.Volume / in.TotalVolume * 100})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Entry.Volume > shares[j].Entry.Volume })
	return Facts{Input: in, Profile: p, Shares: shares}, nil
}

// Summarize runs the default rules with profile p.
func Summarize(in Input, p Profile) (string, error) {
	return Compose(in, p, DefaultRules())
}

// Compose runs rules in order and joins the sentences they produce.
func Compose(in Input, p Profile, rules []Rule) (string, error) {
	f, err := NewFacts(in, p)
	if err != nil {
		return "", err
	}
	var parts []string
	for _, r := range rules {
		if s, ok := r.Sentence(f); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}

// FromGrowth builds an Input from growth entries.
func FromGrowth(entries []types.GrowthEntry, periods int) Input {
	return Input{Categories: entries, TotalVolume: aggregator.TotalVolume(entries), Periods: periods}
}
