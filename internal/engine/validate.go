package engine

import (
	"log/slog"

	"github.com/opsgrid/cbcheck/internal/models"
)

// ValidateRule checks a declared rule against the fetched sample set. A
// malformed rule is logged and skipped; it never aborts the run.
func ValidateRule(rule models.MetricRule, samples models.SampleSet, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}

	if rule.Metric == "" {
		logger.Warn("skipped: metric name not set")
		return false
	}
	if _, ok := samples[rule.Metric]; !ok {
		logger.Warn("skipped: metric does not exist", slog.String("metric", rule.Metric))
		return false
	}
	if rule.Description == "" {
		logger.Warn("skipped: service description is not set", slog.String("metric", rule.Metric))
		return false
	}
	if _, ok := models.ParseOp(rule.Op); !ok {
		logger.Warn("skipped: invalid operator",
			slog.String("op", rule.Op),
			slog.String("metric", rule.Metric))
		return false
	}
	return true
}
