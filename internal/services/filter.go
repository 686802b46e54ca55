package services

import (
	"errors"
	"slices"
	"time"

	"superstore-dashboard/internal/models"
)

// ErrInvalidDateRange signals a filter whose start date falls after its end
// date. The pipeline treats the filtered result as empty rather than
// aborting, so callers can surface a validation message and keep rendering.
var ErrInvalidDateRange = errors.New("invalid date range: start date is after end date")

// ApplyFilters runs the cascading filter pipeline over the records: region,
// then state, then category, then sub-category, then the inclusive date
// interval. Pure over its inputs, so applying the same spec twice yields the
// same subset.
func ApplyFilters(records []models.Record, spec models.FilterSpec) ([]models.Record, error) {
	subset := filterByRegions(records, spec.Regions)
	subset = filterByStates(subset, spec.States)
	subset = filterByCategory(subset, spec.Category)
	subset = filterBySubCategory(subset, spec.SubCategory)

	if !spec.Start.IsZero() && !spec.End.IsZero() && spec.Start.After(spec.End) {
		return []models.Record{}, ErrInvalidDateRange
	}

	return filterByDateRange(subset, spec.Start, spec.End), nil
}

func filterByRegions(records []models.Record, regions []string) []models.Record {
	if len(regions) == 0 {
		return records
	}
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if slices.Contains(regions, r.Region) {
			out = append(out, r)
		}
	}
	return out
}

func filterByStates(records []models.Record, states []string) []models.Record {
	if len(states) == 0 {
		return records
	}
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if slices.Contains(states, r.State) {
			out = append(out, r)
		}
	}
	return out
}

func filterByCategory(records []models.Record, category string) []models.Record {
	if category == "" {
		return records
	}
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

func filterBySubCategory(records []models.Record, subCategory string) []models.Record {
	if subCategory == "" {
		return records
	}
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if r.SubCategory == subCategory {
			out = append(out, r)
		}
	}
	return out
}

// filterByDateRange keeps records whose order date lies in [start, end].
// A zero bound leaves that side open.
func filterByDateRange(records []models.Record, start, end time.Time) []models.Record {
	if start.IsZero() && end.IsZero() {
		return records
	}
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if !start.IsZero() && r.OrderDate.Before(start) {
			continue
		}
		if !end.IsZero() && r.OrderDate.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DistinctValues collects the distinct non-empty values of one column,
// sorted ascending. The column is selected by accessor so the same walk
// serves every cascading stage.
func DistinctValues(records []models.Record, value func(models.Record) string) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		if v := value(r); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// MinMaxDate returns the order-date bounds of the subset. ok is false when
// the subset is empty; callers fall back to the full dataset's bounds.
func MinMaxDate(records []models.Record) (minDate, maxDate time.Time, ok bool) {
	if len(records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	minDate, maxDate = records[0].OrderDate, records[0].OrderDate
	for _, r := range records[1:] {
		if r.OrderDate.Before(minDate) {
			minDate = r.OrderDate
		}
		if r.OrderDate.After(maxDate) {
			maxDate = r.OrderDate
		}
	}
	return minDate, maxDate, true
}
