package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"superstore-dashboard/internal/models"
)

// DashboardSnapshot is one full recomputation of the pipeline for a filter
// selection: the KPI totals, the active KPI, the daily time series and the
// two top-10 rankings.
type DashboardSnapshot struct {
	KPIs             models.KPISet         `json:"kpis"`
	ActiveKPI        models.KPI            `json:"active_kpi"`
	Daily            []models.AggregateRow `json:"daily"`
	TopCities        []models.AggregateRow `json:"top_cities"`
	TopProducts      []models.AggregateRow `json:"top_products"`
	RecordCount      int                   `json:"record_count"`
	Empty            bool                  `json:"empty"`
	InvalidDateRange bool                  `json:"invalid_date_range"`
}

// Analytics composes the filter, KPI, aggregation and ranking stages over
// the loaded dataset. The dataset itself is immutable; the lock only guards
// the pointer swap done by SetData and LoadFromCSV.
type Analytics struct {
	mu        sync.RWMutex
	dataset   *Dataset
	selection *SelectionState
	logger    *slog.Logger
}

func NewAnalytics() *Analytics {
	return &Analytics{
		dataset:   NewDataset(nil),
		selection: NewSelectionState(),
		logger:    slog.Default(),
	}
}

// SetData replaces the dataset with in-memory records, bypassing the CSV
// loader. Used by tests.
func (a *Analytics) SetData(records []models.Record) {
	a.mu.Lock()
	a.dataset = NewDataset(records)
	a.mu.Unlock()
}

// LoadFromCSV loads the process-wide dataset from the CSV export.
func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	ds, err := SharedDataset(ctx, filename)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.dataset = ds
	a.mu.Unlock()
	return nil
}

func (a *Analytics) Selection() *SelectionState { return a.selection }

func (a *Analytics) records() []models.Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset.Records()
}

// Snapshot recomputes the whole pipeline for the filter selection. An
// inverted date range is flagged and treated as an empty subset; an empty
// subset is a valid terminal state that yields zero KPIs and empty tables.
func (a *Analytics) Snapshot(spec models.FilterSpec) *DashboardSnapshot {
	subset, err := ApplyFilters(a.records(), spec)
	invalid := errors.Is(err, ErrInvalidDateRange)
	if invalid {
		a.logger.Warn("invalid date range in filter selection",
			"start", spec.Start, "end", spec.End)
	}

	active := a.selection.Get()

	return &DashboardSnapshot{
		KPIs:             ComputeKPIs(subset),
		ActiveKPI:        active,
		Daily:            GroupBy(subset, DimensionDate),
		TopCities:        TopN(GroupBy(subset, DimensionCity), active, TopGroups),
		TopProducts:      TopN(GroupBy(subset, DimensionProduct), active, TopGroups),
		RecordCount:      len(subset),
		Empty:            len(subset) == 0,
		InvalidDateRange: invalid,
	}
}

// FilterOptions derives the cascading option lists: regions from the full
// dataset, states from the region-filtered subset, categories from the
// state-filtered subset, sub-categories from the category-filtered subset.
// Date bounds come from the categorical subset, falling back to the full
// dataset when that subset is empty.
func (a *Analytics) FilterOptions(spec models.FilterSpec) models.FilterOptions {
	full := a.records()

	regionScoped := filterByRegions(full, spec.Regions)
	stateScoped := filterByStates(regionScoped, spec.States)
	categoryScoped := filterByCategory(stateScoped, spec.Category)
	subCategoryScoped := filterBySubCategory(categoryScoped, spec.SubCategory)

	minDate, maxDate, ok := MinMaxDate(subCategoryScoped)
	if !ok {
		minDate, maxDate, ok = MinMaxDate(full)
	}

	opts := models.FilterOptions{
		Regions:       withAllSentinel(DistinctValues(full, func(r models.Record) string { return r.Region })),
		States:        withAllSentinel(DistinctValues(regionScoped, func(r models.Record) string { return r.State })),
		Categories:    withAllSentinel(DistinctValues(stateScoped, func(r models.Record) string { return r.Category })),
		SubCategories: withAllSentinel(DistinctValues(categoryScoped, func(r models.Record) string { return r.SubCategory })),
	}
	if ok {
		opts.MinDate = minDate.Format(DateLayout)
		opts.MaxDate = maxDate.Format(DateLayout)
	}
	return opts
}

func withAllSentinel(values []string) []string {
	return append([]string{"All"}, values...)
}

// Stats reports dataset shape for the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	full := a.records()
	minDate, maxDate, ok := MinMaxDate(full)

	stats := map[string]any{
		"record_count": len(full),
		"regions":      len(DistinctValues(full, func(r models.Record) string { return r.Region })),
		"states":       len(DistinctValues(full, func(r models.Record) string { return r.State })),
		"cities":       len(DistinctValues(full, func(r models.Record) string { return r.City })),
		"products":     len(DistinctValues(full, func(r models.Record) string { return r.ProductName })),
		"active_kpi":   a.selection.Get(),
	}
	if ok {
		stats["min_date"] = minDate.Format(DateLayout)
		stats["max_date"] = maxDate.Format(DateLayout)
	}
	return stats
}
