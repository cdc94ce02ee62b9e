package models

// MetricRule declares how one metric is judged: which raw metric to read,
// the human description filed at the receiver, the comparison operator, and
// optional critical/warning cutoffs. Rules are built from configuration at
// startup and immutable afterwards; defaults for missing op/threshold fields
// are applied during config load.
type MetricRule struct {
	Metric      string    `yaml:"metric"`
	Description string    `yaml:"description"`
	Op          string    `yaml:"op"`
	Critical    Threshold `yaml:"crit"`
	Warning     Threshold `yaml:"warn"`
}
