package models

// Samples holds the observations for one raw metric: either an ordered
// numeric series covering a short time window, or a single scalar value.
type Samples struct {
	series   []float64
	scalar   Value
	isSeries bool
}

// SeriesSamples wraps an ordered numeric series.
func SeriesSamples(values ...float64) Samples {
	return Samples{series: values, isSeries: true}
}

// ScalarSamples wraps a single scalar observation.
func ScalarSamples(v Value) Samples {
	return Samples{scalar: v}
}

// IsSeries reports whether the samples form a numeric series.
func (s Samples) IsSeries() bool { return s.isSeries }

// Series returns the numeric series; empty unless IsSeries.
func (s Samples) Series() []float64 { return s.series }

// Scalar returns the scalar observation; zero unless !IsSeries.
func (s Samples) Scalar() Value { return s.scalar }

// SampleSet maps raw metric names to their observations for one processor
// invocation. Read-only once fetched.
type SampleSet map[string]Samples
