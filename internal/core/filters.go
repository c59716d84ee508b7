package core

import (
	"sort"
	"time"

	"dashcore/pkg/domain"
)

// Dimension names a filter axis accepted by FilterOptions.
type Dimension string

// Filter dimensions. Categorical dimensions are derived from the revenue
// dataset; the rest are static enumerations.
const (
	DimensionDepartment  Dimension = "department"
	DimensionRegion      Dimension = "region"
	DimensionIndustry    Dimension = "industry"
	DimensionTimeRange   Dimension = "timeRange"
	DimensionRevenueType Dimension = "revenueType"
	DimensionMetric      Dimension = "metric"
)

// Dimensions lists every supported filter dimension.
func Dimensions() []Dimension {
	return []Dimension{
		DimensionDepartment,
		DimensionRegion,
		DimensionIndustry,
		DimensionTimeRange,
		DimensionRevenueType,
		DimensionMetric,
	}
}

var dimensionColumns = map[Dimension]string{
	DimensionDepartment: domain.ColumnDepartment,
	DimensionRegion:     domain.ColumnRegion,
	DimensionIndustry:   domain.ColumnIndustry,
}

// SetDatasets replaces the raw datasets. The store only stores and counts
// them; it never validates their content.
func (s *Store) SetDatasets(ds domain.Datasets) {
	cp := ds.Clone()
	s.mu.Lock()
	s.datasets = cp
	s.mu.Unlock()
	s.logger.Debug("datasets loaded")
}

// RecordCount returns the number of raw records across all datasets.
func (s *Store) RecordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.datasets.RecordCount()
}

// FilterOptions returns the valid values for dim. Categorical dimensions
// yield "all" followed by the sorted distinct values found in the revenue
// dataset. Unknown dimensions yield nil.
func (s *Store) FilterOptions(dim Dimension) []string {
	switch dim {
	case DimensionTimeRange:
		return append([]string(nil), domain.TimeRanges...)
	case DimensionRevenueType:
		return append([]string(nil), domain.RevenueTypes...)
	case DimensionMetric:
		return append([]string(nil), domain.Metrics...)
	}
	column, ok := dimensionColumns[dim]
	if !ok {
		return nil
	}
	s.mu.RLock()
	records := s.datasets[domain.DatasetRevenue]
	seen := make(map[string]struct{})
	for _, r := range records {
		if v, ok := r.String(column); ok && v != "" {
			seen[v] = struct{}{}
		}
	}
	s.mu.RUnlock()

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return append([]string{domain.AllValue}, values...)
}

// FilteredView projects the loaded datasets through the current state.
func (s *Store) FilteredView() domain.Datasets {
	s.mu.RLock()
	ds := s.datasets
	st := s.state
	s.mu.RUnlock()
	return FilterDatasets(ds, st)
}

// FilterDatasets returns deep copies of the records in ds that match the
// categorical selections and time range of st. Records lacking a filtered
// column are kept. The time window is anchored at the latest date within each
// dataset so the projection depends only on its inputs.
func FilterDatasets(ds domain.Datasets, st domain.State) domain.Datasets {
	out := make(domain.Datasets, len(ds))
	selections := map[string]string{
		domain.ColumnDepartment: st.Department,
		domain.ColumnRegion:     st.Region,
		domain.ColumnIndustry:   st.Industry,
	}
	for name, records := range ds {
		since, bounded := windowStart(records, st.TimeRange)
		kept := make([]domain.Record, 0, len(records))
		for _, r := range records {
			if !matchesSelections(r, selections) {
				continue
			}
			if bounded {
				if d, ok := r.Date(); ok && d.Before(since) {
					continue
				}
			}
			kept = append(kept, r.Clone())
		}
		out[name] = kept
	}
	return out
}

func matchesSelections(r domain.Record, selections map[string]string) bool {
	for column, want := range selections {
		if want == "" || want == domain.AllValue {
			continue
		}
		got, ok := r.String(column)
		if !ok {
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}

// windowStart computes the inclusive lower bound for timeRange relative to the
// newest dated record. It reports false when no bound applies.
func windowStart(records []domain.Record, timeRange string) (time.Time, bool) {
	var anchor time.Time
	for _, r := range records {
		if d, ok := r.Date(); ok && d.After(anchor) {
			anchor = d
		}
	}
	if anchor.IsZero() {
		return time.Time{}, false
	}
	switch timeRange {
	case "7d":
		return anchor.AddDate(0, 0, -7), true
	case "30d":
		return anchor.AddDate(0, 0, -30), true
	case "90d":
		return anchor.AddDate(0, 0, -90), true
	case "12m":
		return anchor.AddDate(-1, 0, 0), true
	case "ytd":
		return time.Date(anchor.Year(), time.January, 1, 0, 0, 0, 0, anchor.Location()), true
	default:
		return time.Time{}, false
	}
}
