package dataset

import (
	"fmt"
	"sort"

	"outlet-insights-go/internal/logger"
)

type OutletOverview struct {
	Outlet    string             `json:"outlet"`
	Days      int                `json:"days"`
	FirstDate string             `json:"first_date"`
	LastDate  string             `json:"last_date"`
	Totals    map[string]float64 `json:"totals"`
	TopField  string             `json:"top_field"`
}

type Overview struct {
	SalesRows int              `json:"sales_rows"`
	TradeRows int              `json:"trade_rows"`
	Fields    []string         `json:"fields"`
	Outlets   []OutletOverview `json:"outlets"`
}

// Describe produces a compact per-outlet overview of a workbook.
func Describe(w Workbook) Overview {
	log := logger.New().Component("dataset.overview")

	idx := map[string]int{}
	var outlets []OutletOverview
	for _, s := range w.Sales {
		i, ok := idx[s.Outlet]
		if !ok {
			outlets = append(outlets, OutletOverview{Outlet: s.Outlet, FirstDate: s.Date, Totals: map[string]float64{}})
			i = len(outlets) - 1
			idx[s.Outlet] = i
		}
		o := &outlets[i]
		o.Days++
		if s.Date < o.FirstDate {
			o.FirstDate = s.Date
		}
		if s.Date > o.LastDate {
			o.LastDate = s.Date
		}
		for _, f := range w.Fields {
			o.Totals[f] += s.Value(f)
		}
	}
	for i := range outlets {
		best := 0.0
		for _, f := range w.Fields {
			if v := outlets[i].Totals[f]; v > best {
				best, outlets[i].TopField = v, f
			}
		}
	}
	sort.Slice(outlets, func(i, j int) bool { return outlets[i].Outlet < outlets[j].Outlet })

	ov := Overview{SalesRows: len(w.Sales), TradeRows: len(w.Trades), Fields: w.Fields, Outlets: outlets}
	log.WithFields(map[string]interface{}{
		"sales_rows": ov.SalesRows,
		"outlets":    len(ov.Outlets),
		"fields":     len(ov.Fields),
	}).Debug("workbook overview complete")
	return ov
}

// Lines renders the overview as short context lines.
func (o Overview) Lines() []string {
	lines := make([]string, 0, len(o.Outlets))
	for _, out := range o.Outlets {
		line := fmt.Sprintf("%s: %d days (%s to %s)", out.Outlet, out.Days, out.FirstDate, out.LastDate)
		if out.TopField != "" {
			line += fmt.Sprintf(", top field %s at %.1f", out.TopField, out.Totals[out.TopField])
		}
		lines = append(lines, line)
	}
	return lines
}
