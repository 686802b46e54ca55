package services

import (
	"slices"
	"strings"

	"superstore-dashboard/internal/models"
)

// TopGroups is the number of groups kept by the ranking charts.
const TopGroups = 10

// Dimension selects the grouping column for aggregation.
type Dimension string

const (
	DimensionDate    Dimension = "order_date"
	DimensionCity    Dimension = "city"
	DimensionProduct Dimension = "product_name"
)

// ComputeKPIs sums Sales, Quantity and Profit over the subset. MarginRate is
// Profit/Sales, defined as exactly 0 when Sales is 0 so downstream sorting
// stays total. An empty subset yields all zeros.
func ComputeKPIs(records []models.Record) models.KPISet {
	var set models.KPISet
	for _, r := range records {
		set.Sales += r.Sales
		set.Quantity += r.Quantity
		set.Profit += r.Profit
	}
	if set.Sales != 0 {
		set.MarginRate = set.Profit / set.Sales
	}
	return set
}

// GroupBy rolls the subset up by the given dimension: one row per distinct
// key with summed Sales/Quantity/Profit. Per-group MarginRate replaces a
// zero Sales divisor with 1, yielding MarginRate = Profit for that group.
// That guard differs from ComputeKPIs on purpose; both are load-bearing
// historical behavior. Rows come back sorted ascending by key, which orders
// the time series chronologically and fixes the tie-break order for TopN.
func GroupBy(records []models.Record, dim Dimension) []models.AggregateRow {
	groups := make(map[string]*models.AggregateRow)
	for _, r := range records {
		key := groupKey(r, dim)
		row := groups[key]
		if row == nil {
			row = &models.AggregateRow{Key: key}
			groups[key] = row
		}
		row.Sales += r.Sales
		row.Quantity += r.Quantity
		row.Profit += r.Profit
	}

	table := make([]models.AggregateRow, 0, len(groups))
	for _, row := range groups {
		divisor := row.Sales
		if divisor == 0 {
			divisor = 1
		}
		row.MarginRate = row.Profit / divisor
		table = append(table, *row)
	}

	slices.SortFunc(table, func(a, b models.AggregateRow) int {
		return strings.Compare(a.Key, b.Key)
	})
	return table
}

func groupKey(r models.Record, dim Dimension) string {
	switch dim {
	case DimensionDate:
		return r.OrderDate.Format(DateLayout)
	case DimensionCity:
		return r.City
	case DimensionProduct:
		return r.ProductName
	}
	return ""
}

// TopN sorts the table descending by the given KPI and keeps the first n
// rows. The sort is stable, so ties keep their group order. The input table
// is left untouched.
func TopN(table []models.AggregateRow, kpi models.KPI, n int) []models.AggregateRow {
	ranked := slices.Clone(table)
	slices.SortStableFunc(ranked, func(a, b models.AggregateRow) int {
		av, bv := a.Value(kpi), b.Value(kpi)
		if av > bv {
			return -1
		}
		if av < bv {
			return 1
		}
		return 0
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
