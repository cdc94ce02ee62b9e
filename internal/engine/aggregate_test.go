package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/opsgrid/cbcheck/internal/models"
)

func TestAverage(t *testing.T) {
	got, err := Average([]float64{42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("average of singleton = %v, want 42", got)
	}

	if _, err := Average(nil); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("empty series: got %v, want ErrEmptySeries", err)
	}

	a, _ := Average([]float64{1, 2, 3, 4})
	b, _ := Average([]float64{4, 1, 3, 2})
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("average is order-dependent: %v vs %v", a, b)
	}
}

func TestSampleValue(t *testing.T) {
	v, err := SampleValue(models.SeriesSamples(2, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsNumber() || v.Number() != 3 {
		t.Fatalf("series value = %+v, want 3", v)
	}

	v, err = SampleValue(models.ScalarSamples(models.StringValue("active")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsNumber() || v.Text() != "active" {
		t.Fatalf("scalar value = %+v, want active", v)
	}

	if _, err := SampleValue(models.SeriesSamples()); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("empty series value: got %v, want ErrEmptySeries", err)
	}
}

func TestDerivedDiskWriteQueue(t *testing.T) {
	samples := models.SampleSet{
		"ep_queue_size":   models.SeriesSamples(2, 4),
		"ep_flusher_todo": models.SeriesSamples(1, 1),
	}

	v, err := DerivedBucketValue("disk_write_queue", samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Number() != 4 {
		t.Fatalf("disk_write_queue = %v, want 4", v.Number())
	}
}

func TestDerivedQuotaUtilization(t *testing.T) {
	samples := models.SampleSet{
		"mem_used":        models.SeriesSamples(50, 50),
		"ep_mem_high_wat": models.SeriesSamples(100, 100),
	}

	v, err := DerivedBucketValue("percent_quota_utilization", samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Number() != 50 {
		t.Fatalf("percent_quota_utilization = %v, want 50", v.Number())
	}
}

func TestDerivedZeroDivisor(t *testing.T) {
	samples := models.SampleSet{
		"mem_used":        models.SeriesSamples(50),
		"ep_mem_high_wat": models.SeriesSamples(0, 0),
	}

	if _, err := DerivedBucketValue("percent_quota_utilization", samples); !errors.Is(err, ErrZeroDivisor) {
		t.Fatalf("got %v, want ErrZeroDivisor", err)
	}
}

func TestDerivedTotalOps(t *testing.T) {
	samples := models.SampleSet{}
	for _, name := range totalOpsSeries {
		samples[name] = models.SeriesSamples(1, 3)
	}

	v, err := DerivedBucketValue("total_ops", samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Number() != 16 {
		t.Fatalf("total_ops = %v, want 16", v.Number())
	}
}

func TestDerivedMissingSeries(t *testing.T) {
	if _, err := DerivedBucketValue("disk_write_queue", models.SampleSet{}); err == nil {
		t.Fatal("expected error for missing raw series")
	}
	if _, err := DerivedBucketValue("not_a_formula", models.SampleSet{}); err == nil {
		t.Fatal("expected error for unknown derived metric")
	}
}

func TestIsDerivedBucketMetric(t *testing.T) {
	for _, name := range []string{"percent_quota_utilization", "percent_metadata_utilization", "disk_write_queue", "total_ops"} {
		if !IsDerivedBucketMetric(name) {
			t.Fatalf("%s should be derived", name)
		}
	}
	if IsDerivedBucketMetric("curr_connections") {
		t.Fatal("curr_connections should not be derived")
	}
}
