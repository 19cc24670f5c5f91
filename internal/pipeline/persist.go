package pipeline

import (
	"encoding/json"
	"time"

	"github.com/vectorcam/vectorinsight/internal/datastore"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/metrics"
)

// Metric categories in the monthly_metrics table.
const (
	CategorySummary       = "summary"
	CategoryTemporal      = "temporal"
	CategoryInterventions = "interventions"
	CategoryIndoorDensity = "indoor_density"
)

// MetricRows flattens the persisted subset of b into monthly metric rows
// for yearMonth. Temporal series carry value 0 and their JSON encoding.
func MetricRows(b *metrics.Bundle, yearMonth string, at time.Time) ([]datastore.MonthlyMetric, error) {
	if b == nil {
		return nil, nil
	}
	row := func(category, name string, value float64) datastore.MonthlyMetric {
		return datastore.MonthlyMetric{
			YearMonth:    yearMonth,
			MetricName:   name,
			MetricValue:  value,
			Category:     category,
			CalculatedAt: at,
		}
	}

	var rows []datastore.MonthlyMetric
	for _, v := range b.Summary.Numeric() {
		rows = append(rows, row(CategorySummary, v.Name, v.Value))
	}

	for _, s := range b.Temporal.Series() {
		counts := s.Counts
		if counts == nil {
			counts = metrics.Counts{}
		}
		data, err := json.Marshal(counts)
		if err != nil {
			return nil, errors.New(err).
				Component("pipeline").
				Category(errors.CategoryProcessing).
				Context("metric", s.Name).
				Build()
		}
		r := row(CategoryTemporal, s.Name, 0)
		r.MetricJSON = string(data)
		rows = append(rows, r)
	}

	rows = append(rows,
		row(CategoryInterventions, "irs_coverage_rate", b.Interventions.IRSRatePercent),
		row(CategoryInterventions, "llin_usage_rate", b.Interventions.AvgLLINUsageRate),
		row(CategoryIndoorDensity, "avg_mosquitoes_per_house", b.IndoorDensity.AvgMosquitoesPerHouse),
		row(CategoryIndoorDensity, "avg_anopheles_per_house", b.IndoorDensity.AvgAnophelesPerHouse),
	)
	return rows, nil
}
