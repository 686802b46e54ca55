package models

import (
	"fmt"
	"time"
)

// Record is one sales transaction from the SuperStore dataset. Records are
// loaded once at startup and never mutated.
type Record struct {
	OrderDate   time.Time `json:"order_date"`
	Region      string    `json:"region"`
	State       string    `json:"state"`
	City        string    `json:"city"`
	Category    string    `json:"category"`
	SubCategory string    `json:"sub_category"`
	ProductName string    `json:"product_name"`
	Sales       float64   `json:"sales"`
	Profit      float64   `json:"profit"`
	Quantity    int       `json:"quantity"`
}

// KPI identifies one of the four dashboard metrics.
type KPI string

const (
	KPISales      KPI = "sales"
	KPIQuantity   KPI = "quantity"
	KPIProfit     KPI = "profit"
	KPIMarginRate KPI = "margin_rate"
)

func ParseKPI(s string) (KPI, error) {
	switch KPI(s) {
	case KPISales, KPIQuantity, KPIProfit, KPIMarginRate:
		return KPI(s), nil
	}
	return "", fmt.Errorf("unknown KPI %q", s)
}

func (k KPI) Valid() bool {
	_, err := ParseKPI(string(k))
	return err == nil
}

// Label returns the display name used for chart titles and KPI tiles.
func (k KPI) Label() string {
	switch k {
	case KPISales:
		return "Sales"
	case KPIQuantity:
		return "Quantity"
	case KPIProfit:
		return "Profit"
	case KPIMarginRate:
		return "Margin Rate"
	}
	return string(k)
}

// FilterSpec is the current filter selection. Empty slices and empty strings
// mean unconstrained ("All"); zero Start/End mean an open-ended date bound.
type FilterSpec struct {
	Regions     []string  `json:"regions"`
	States      []string  `json:"states"`
	Category    string    `json:"category"`
	SubCategory string    `json:"sub_category"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// KPISet holds the four totals computed over a record subset.
type KPISet struct {
	Sales      float64 `json:"sales"`
	Quantity   int     `json:"quantity"`
	Profit     float64 `json:"profit"`
	MarginRate float64 `json:"margin_rate"`
}

// AggregateRow is one group's rollup for a grouping dimension. Key is a
// formatted date, a city name or a product name.
type AggregateRow struct {
	Key        string  `json:"key"`
	Sales      float64 `json:"sales"`
	Quantity   int     `json:"quantity"`
	Profit     float64 `json:"profit"`
	MarginRate float64 `json:"margin_rate"`
}

// Value returns the row's value for the given KPI, used as a ranking key.
func (r AggregateRow) Value(k KPI) float64 {
	switch k {
	case KPISales:
		return r.Sales
	case KPIQuantity:
		return float64(r.Quantity)
	case KPIProfit:
		return r.Profit
	case KPIMarginRate:
		return r.MarginRate
	}
	return 0
}

// FilterOptions carries the cascading option lists for the filter sidebar.
// Each list is sorted ascending with the "All" sentinel prepended. The date
// bounds fall back to the full dataset when the filtered subset is empty.
type FilterOptions struct {
	Regions       []string `json:"regions"`
	States        []string `json:"states"`
	Categories    []string `json:"categories"`
	SubCategories []string `json:"sub_categories"`
	MinDate       string   `json:"min_date"`
	MaxDate       string   `json:"max_date"`
}
