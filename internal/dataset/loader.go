package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"outlet-insights-go/internal/logger"
	"outlet-insights-go/internal/types"
)

var ErrNoData = errors.New("no data rows")

// Workbook is an offline export of sales and trade volumes.
type Workbook struct {
	Sales  []types.SalesRecord
	Trades []types.TradeRecord
	// Fields lists the volume keys in header order.
	Fields []string
}

// ForOutlet keeps only the named outlet's rows.
func (w Workbook) ForOutlet(name string) Workbook {
	out := Workbook{Fields: w.Fields}
	for _, s := range w.Sales {
		if strings.EqualFold(s.Outlet, name) {
			out.Sales = append(out.Sales, s)
		}
	}
	for _, t := range w.Trades {
		if strings.EqualFold(t.Outlet, name) {
			out.Trades = append(out.Trades, t)
		}
	}
	return out
}

// Load reads the sales sheet (named "sales", else the first sheet) and an
// optional sheet whose name contains "trade". Columns are found by header
// heuristics; every other sales column is a volume field.
func Load(path string) (Workbook, error) {
	log := logger.New().Component("dataset").WithField("path", path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return Workbook{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Workbook{}, fmt.Errorf("no sheets")
	}
	salesSheet, tradeSheet := sheets[0], ""
	for _, s := range sheets {
		l := strings.ToLower(strings.TrimSpace(s))
		switch {
		case l == "sales":
			salesSheet = s
		case strings.Contains(l, "trade") && tradeSheet == "":
			tradeSheet = s
		}
	}

	rows, err := f.GetRows(salesSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Workbook{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return Workbook{}, fmt.Errorf("sheet %q: %w", salesSheet, ErrNoData)
	}
	w := Workbook{}
	w.Sales, w.Fields = parseSales(rows, salesSheet, log)

	if tradeSheet != "" {
		trows, err := f.GetRows(tradeSheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return Workbook{}, fmt.Errorf("read trade rows: %w", err)
		}
		w.Trades = parseTrades(trows, salesSheet, log)
	}

	log.WithField("sales_rows", len(w.Sales)).WithField("trade_rows", len(w.Trades)).Info("workbook loaded")
	return w, nil
}

// parseSales falls back to fallbackOutlet when the sheet has no outlet column.
func parseSales(rows [][]string, fallbackOutlet string, log *logrus.Entry) ([]types.SalesRecord, []string) {
	header := rows[0]
	dateIdx, outletIdx := -1, -1
	fieldIdx := map[int]string{}
	var fields []string
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case l == "":
			continue
		case dateIdx == -1 && (strings.Contains(l, "date") || l == "day"):
			dateIdx = i
		case outletIdx == -1 && (strings.Contains(l, "outlet") || strings.Contains(l, "venue") || strings.Contains(l, "account")):
			outletIdx = i
		default:
			key := types.FieldKey(h)
			fieldIdx[i] = key
			fields = append(fields, key)
		}
	}
	// fallback heuristics
	if dateIdx == -1 {
		dateIdx = 0
	}

	byKey := map[string]int{}
	var out []types.SalesRecord
	for i, r := range rows[1:] {
		raw := cell(r, dateIdx)
		date, ok := parseDate(raw)
		if !ok {
			log.Warnf("row %d: unparseable date %q", i+2, raw)
			continue
		}
		rec := types.SalesRecord{Outlet: outletOr(cell(r, outletIdx), outletIdx, fallbackOutlet), Date: date}
		if err := types.Validate(rec); err != nil {
			log.Warnf("row %d: %v", i+2, err)
			continue
		}
		k := rec.Outlet + "\x00" + rec.Date
		at, seen := byKey[k]
		if !seen {
			rec.Volumes = map[string]float64{}
			out = append(out, rec)
			at = len(out) - 1
			byKey[k] = at
		}
		for idx, key := range fieldIdx {
			if v, ok := parseNumber(cell(r, idx)); ok {
				out[at].Volumes[key] += v
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Outlet != out[j].Outlet {
			return out[i].Outlet < out[j].Outlet
		}
		return out[i].Date < out[j].Date
	})
	return out, fields
}

func parseTrades(rows [][]string, fallbackOutlet string, log *logrus.Entry) []types.TradeRecord {
	if len(rows) <= 1 {
		return nil
	}
	outletIdx, periodIdx, productIdx, categoryIdx, volumeIdx := -1, -1, -1, -1, -1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "outlet") || strings.Contains(l, "venue"):
			outletIdx = i
		case strings.Contains(l, "period") || strings.Contains(l, "month") || strings.Contains(l, "quarter"):
			periodIdx = i
		case strings.Contains(l, "product") || strings.Contains(l, "brand"):
			productIdx = i
		case strings.Contains(l, "category") || strings.Contains(l, "segment"):
			categoryIdx = i
		case strings.Contains(l, "volume") || strings.Contains(l, "qty") || l == "hl":
			volumeIdx = i
		}
	}

	var out []types.TradeRecord
	for i, r := range rows[1:] {
		t := types.TradeRecord{
			Outlet:   outletOr(cell(r, outletIdx), outletIdx, fallbackOutlet),
			Period:   strings.TrimSpace(cell(r, periodIdx)),
			Product:  strings.TrimSpace(cell(r, productIdx)),
			Category: strings.TrimSpace(cell(r, categoryIdx)),
		}
		t.Volume, _ = parseNumber(cell(r, volumeIdx))
		if err := types.Validate(t); err != nil {
			log.Warnf("trade row %d: %v", i+2, err)
			continue
		}
		out = append(out, t)
	}
	return out
}

func outletOr(raw string, idx int, fallback string) string {
	if idx == -1 {
		return fallback
	}
	return strings.TrimSpace(raw)
}

func cell(r []string, idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	return r[idx]
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "2006/01/02", "02-Jan-2006", "2006-01-02 15:04:05"}

// parseDate accepts ISO and day-first dates as well as raw Excel serials.
func parseDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func parseNumber(raw string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
