package services

import (
	"math"
	"slices"
	"testing"

	"superstore-dashboard/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeKPIs_Totals(t *testing.T) {
	set := ComputeKPIs(testRecords())

	if set.Sales != 375 {
		t.Errorf("Sales = %v, want 375", set.Sales)
	}
	if set.Quantity != 8 {
		t.Errorf("Quantity = %d, want 8", set.Quantity)
	}
	if set.Profit != 50 {
		t.Errorf("Profit = %v, want 50", set.Profit)
	}
	if !almostEqual(set.MarginRate, 50.0/375.0) {
		t.Errorf("MarginRate = %v, want %v", set.MarginRate, 50.0/375.0)
	}
}

func TestComputeKPIs_Empty(t *testing.T) {
	set := ComputeKPIs(nil)
	if set != (models.KPISet{}) {
		t.Errorf("ComputeKPIs(nil) = %+v, want all zeros", set)
	}
}

func TestComputeKPIs_ZeroSales(t *testing.T) {
	records := []models.Record{
		{City: "A", Sales: 0, Profit: 7, Quantity: 1},
	}

	set := ComputeKPIs(records)
	if set.MarginRate != 0 {
		t.Errorf("MarginRate = %v, want exactly 0 when Sales is 0", set.MarginRate)
	}
	if math.IsNaN(set.MarginRate) || math.IsInf(set.MarginRate, 0) {
		t.Error("MarginRate must never be NaN or Inf")
	}
}

func TestGroupBy_CityScenario(t *testing.T) {
	records := []models.Record{
		{City: "A", Sales: 100, Profit: 10},
		{City: "A", Sales: 50, Profit: -5},
		{City: "B", Sales: 200, Profit: 40},
	}

	table := GroupBy(records, DimensionCity)
	if len(table) != 2 {
		t.Fatalf("len(table) = %d, want 2", len(table))
	}

	a, b := table[0], table[1]
	if a.Key != "A" || b.Key != "B" {
		t.Fatalf("keys = %q, %q, want A, B", a.Key, b.Key)
	}

	if a.Sales != 150 || a.Profit != 5 {
		t.Errorf("A = {Sales:%v Profit:%v}, want {Sales:150 Profit:5}", a.Sales, a.Profit)
	}
	if !almostEqual(a.MarginRate, 5.0/150.0) {
		t.Errorf("A.MarginRate = %v, want %v", a.MarginRate, 5.0/150.0)
	}
	if b.Sales != 200 || b.Profit != 40 || !almostEqual(b.MarginRate, 0.2) {
		t.Errorf("B = %+v, want {Sales:200 Profit:40 MarginRate:0.2}", b)
	}

	top := TopN(table, models.KPISales, 10)
	if len(top) != 2 || top[0].Key != "B" || top[1].Key != "A" {
		t.Errorf("TopN by sales = %v, want [B A]", top)
	}
}

func TestGroupBy_ZeroSalesDivisorGuard(t *testing.T) {
	records := []models.Record{
		{City: "Freebie Town", Sales: 0, Profit: 7},
	}

	table := GroupBy(records, DimensionCity)
	if len(table) != 1 {
		t.Fatalf("len(table) = %d, want 1", len(table))
	}

	// Zero Sales replaces the divisor with 1, so MarginRate equals Profit.
	if table[0].MarginRate != 7 {
		t.Errorf("MarginRate = %v, want 7", table[0].MarginRate)
	}
}

func TestGroupBy_DateKeysChronological(t *testing.T) {
	table := GroupBy(testRecords(), DimensionDate)

	want := []string{"2023-01-05", "2023-01-20", "2023-02-10", "2023-03-15"}
	if len(table) != len(want) {
		t.Fatalf("len(table) = %d, want %d", len(table), len(want))
	}
	for i, key := range want {
		if table[i].Key != key {
			t.Errorf("table[%d].Key = %q, want %q", i, table[i].Key, key)
		}
	}
}

func TestGroupBy_ConsistentWithTotals(t *testing.T) {
	records := testRecords()
	totals := ComputeKPIs(records)

	for _, dim := range []Dimension{DimensionDate, DimensionCity, DimensionProduct} {
		var sales, profit float64
		var quantity int
		for _, row := range GroupBy(records, dim) {
			sales += row.Sales
			profit += row.Profit
			quantity += row.Quantity
		}

		if !almostEqual(sales, totals.Sales) || !almostEqual(profit, totals.Profit) || quantity != totals.Quantity {
			t.Errorf("dimension %s: group sums {%v %v %d} differ from totals {%v %v %d}",
				dim, sales, profit, quantity, totals.Sales, totals.Profit, totals.Quantity)
		}
	}
}

func TestTopN_TruncatesToN(t *testing.T) {
	table := make([]models.AggregateRow, 15)
	for i := range table {
		table[i] = models.AggregateRow{Key: string(rune('a' + i)), Sales: float64(i)}
	}

	top := TopN(table, models.KPISales, TopGroups)
	if len(top) != TopGroups {
		t.Fatalf("len(top) = %d, want %d", len(top), TopGroups)
	}
	if top[0].Sales != 14 {
		t.Errorf("top[0].Sales = %v, want 14", top[0].Sales)
	}
}

func TestTopN_FewerGroupsThanN(t *testing.T) {
	table := GroupBy(testRecords(), DimensionCity)

	top := TopN(table, models.KPIProfit, TopGroups)
	if len(top) != len(table) {
		t.Errorf("len(top) = %d, want %d", len(top), len(table))
	}

	for i := 1; i < len(top); i++ {
		if top[i-1].Profit < top[i].Profit {
			t.Errorf("top[%d].Profit = %v below top[%d].Profit = %v, want descending",
				i-1, top[i-1].Profit, i, top[i].Profit)
		}
	}
}

func TestTopN_StableTies(t *testing.T) {
	// Two groups share the same value; the stable sort must keep their
	// incoming order.
	table := []models.AggregateRow{
		{Key: "second", Sales: 100},
		{Key: "first", Sales: 100},
		{Key: "third", Sales: 50},
	}

	top := TopN(table, models.KPISales, 10)
	if top[0].Key != "second" || top[1].Key != "first" {
		t.Errorf("tie order = [%s %s], want [second first]", top[0].Key, top[1].Key)
	}
}

func TestTopN_DoesNotMutateInput(t *testing.T) {
	table := GroupBy(testRecords(), DimensionCity)
	original := slices.Clone(table)

	_ = TopN(table, models.KPISales, TopGroups)
	_ = TopN(table, models.KPIMarginRate, TopGroups)

	if !slices.Equal(table, original) {
		t.Error("TopN must not reorder the underlying aggregate table")
	}
}

func TestTopN_EmptyTable(t *testing.T) {
	top := TopN(nil, models.KPISales, TopGroups)
	if len(top) != 0 {
		t.Errorf("len(top) = %d, want 0", len(top))
	}
}

func TestAggregateRowValue(t *testing.T) {
	row := models.AggregateRow{Sales: 1, Quantity: 2, Profit: 3, MarginRate: 4}

	tests := []struct {
		kpi  models.KPI
		want float64
	}{
		{models.KPISales, 1},
		{models.KPIQuantity, 2},
		{models.KPIProfit, 3},
		{models.KPIMarginRate, 4},
	}

	for _, tt := range tests {
		if got := row.Value(tt.kpi); got != tt.want {
			t.Errorf("Value(%s) = %v, want %v", tt.kpi, got, tt.want)
		}
	}
}
