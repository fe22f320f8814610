package types

import (
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Outlet is a point-of-sale venue with its persona/cluster tags.
type Outlet struct {
	Name    string `json:"name" validate:"required"`
	Persona string `json:"persona,omitempty"`
	Cluster string `json:"cluster,omitempty"`
	Region  string `json:"region,omitempty"`
}

// ActionRecord is a follow-up item captured for an outlet. CreatedAt is kept
// as the raw ISO-8601 string so bad timestamps can be skipped downstream
// instead of failing the whole fetch.
type ActionRecord struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Completed bool   `json:"completed"`
	Outlet    string `json:"outlet" validate:"required"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// SalesRecord is one day of outlet sales. Volumes is keyed by field name
// (usually a brand, e.g. "guinness"); a missing key means no value.
type SalesRecord struct {
	Outlet  string             `json:"outlet" validate:"required"`
	Date    string             `json:"date" validate:"required,datetime=2006-01-02"`
	Volumes map[string]float64 `json:"volumes"`
}

// Value returns the named volume, treating missing and NaN as 0.
func (r SalesRecord) Value(field string) float64 {
	v, ok := r.Volumes[field]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// TradeRecord is trade/contract volume for one product in one period.
type TradeRecord struct {
	Outlet   string  `json:"outlet" validate:"required"`
	Period   string  `json:"period" validate:"required"`
	Product  string  `json:"product" validate:"required"`
	Category string  `json:"category,omitempty"`
	Volume   float64 `json:"volume" validate:"gte=0"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks a record contract. Fetch layers call it once per row.
func Validate(v any) error {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate.Struct(v)
}

// FieldKey normalises a brand or column name to a volume key:
// "Hop House 13" -> "hop_house_13".
func FieldKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}
