package engine

import (
	"errors"
	"fmt"

	"github.com/opsgrid/cbcheck/internal/models"
)

// ErrEmptySeries signals an attempt to aggregate a zero-length sample series.
var ErrEmptySeries = errors.New("empty sample series")

// ErrZeroDivisor signals a derived metric whose denominator averaged to zero.
// Surfacing this explicitly avoids flooding the receiver with spurious
// CRITICALs built on infinities.
var ErrZeroDivisor = errors.New("zero divisor in derived metric")

// totalOpsSeries are the raw operation counters summed into total_ops.
var totalOpsSeries = []string{
	"cmd_get",
	"cmd_set",
	"incr_misses",
	"incr_hits",
	"decr_misses",
	"decr_hits",
	"delete_misses",
	"delete_hits",
}

// Average returns the arithmetic mean of a non-empty series.
func Average(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptySeries
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples)), nil
}

// SampleValue reduces one metric's observations to a single value: series
// are averaged, scalars pass through unchanged.
func SampleValue(s models.Samples) (models.Value, error) {
	if !s.IsSeries() {
		return s.Scalar(), nil
	}
	mean, err := Average(s.Series())
	if err != nil {
		return models.Value{}, err
	}
	return models.NumberValue(mean), nil
}

// IsDerivedBucketMetric reports whether a metric name is computed by formula
// rather than read directly from the sample set.
func IsDerivedBucketMetric(name string) bool {
	switch name {
	case "percent_quota_utilization", "percent_metadata_utilization", "disk_write_queue", "total_ops":
		return true
	default:
		return false
	}
}

// DerivedBucketValue computes a derived bucket metric by its named formula.
// The closed set of formulas keeps the aggregation auditable; there is no
// generic expression engine.
func DerivedBucketValue(name string, samples models.SampleSet) (models.Value, error) {
	switch name {
	case "percent_quota_utilization":
		return utilizationPercent(samples, "mem_used", "ep_mem_high_wat")
	case "percent_metadata_utilization":
		return utilizationPercent(samples, "ep_meta_data_memory", "ep_mem_high_wat")
	case "disk_write_queue":
		queue, err := seriesAverage(samples, "ep_queue_size")
		if err != nil {
			return models.Value{}, err
		}
		pending, err := seriesAverage(samples, "ep_flusher_todo")
		if err != nil {
			return models.Value{}, err
		}
		return models.NumberValue(queue + pending), nil
	case "total_ops":
		total := 0.0
		for _, series := range totalOpsSeries {
			mean, err := seriesAverage(samples, series)
			if err != nil {
				return models.Value{}, err
			}
			total += mean
		}
		return models.NumberValue(total), nil
	default:
		return models.Value{}, fmt.Errorf("not a derived metric: %s", name)
	}
}

func utilizationPercent(samples models.SampleSet, numerator, denominator string) (models.Value, error) {
	num, err := seriesAverage(samples, numerator)
	if err != nil {
		return models.Value{}, err
	}
	den, err := seriesAverage(samples, denominator)
	if err != nil {
		return models.Value{}, err
	}
	if den == 0 {
		return models.Value{}, fmt.Errorf("%s: %w", denominator, ErrZeroDivisor)
	}
	return models.NumberValue(num / den * 100), nil
}

func seriesAverage(samples models.SampleSet, name string) (float64, error) {
	s, ok := samples[name]
	if !ok {
		return 0, fmt.Errorf("metric %s not present in sample set", name)
	}
	if !s.IsSeries() {
		return 0, fmt.Errorf("metric %s is not a sample series", name)
	}
	mean, err := Average(s.Series())
	if err != nil {
		return 0, fmt.Errorf("metric %s: %w", name, err)
	}
	return mean, nil
}
