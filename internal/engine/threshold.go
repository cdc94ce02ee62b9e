package engine

import "github.com/opsgrid/cbcheck/internal/models"

// Evaluate classifies an observed value against a rule's thresholds. Match
// order is fixed: numeric critical, textual critical, numeric warning,
// textual warning, otherwise OK. A type mismatch between the value and a
// threshold never matches; it falls through to the next tier silently.
func Evaluate(value models.Value, critical, warning models.Threshold, op models.Op) (models.Severity, string) {
	switch {
	case numericMatch(value, critical, op):
		return models.SeverityCritical, models.SeverityCritical.String()
	case textualMatch(value, critical, op):
		return models.SeverityCritical, models.SeverityCritical.String()
	case numericMatch(value, warning, op):
		return models.SeverityWarning, models.SeverityWarning.String()
	case textualMatch(value, warning, op):
		return models.SeverityWarning, models.SeverityWarning.String()
	default:
		return models.SeverityOK, models.SeverityOK.String()
	}
}

func numericMatch(value models.Value, t models.Threshold, op models.Op) bool {
	if t.Kind() != models.ThresholdNumeric || !value.IsNumber() {
		return false
	}
	return compareNumbers(value.Number(), op, t.Number())
}

func textualMatch(value models.Value, t models.Threshold, op models.Op) bool {
	if t.Kind() != models.ThresholdTextual || value.IsNumber() {
		return false
	}
	return compareStrings(value.Text(), op, t.Text())
}

func compareNumbers(a float64, op models.Op, b float64) bool {
	switch op {
	case models.OpGreater:
		return a > b
	case models.OpGreaterOrEqual:
		return a >= b
	case models.OpEqual:
		return a == b
	case models.OpLessOrEqual:
		return a <= b
	case models.OpLess:
		return a < b
	default:
		return false
	}
}

// compareStrings applies the operator lexically. Only "=" is meaningful for
// textual thresholds in practice, but all five operators keep their
// relational semantics.
func compareStrings(a string, op models.Op, b string) bool {
	switch op {
	case models.OpGreater:
		return a > b
	case models.OpGreaterOrEqual:
		return a >= b
	case models.OpEqual:
		return a == b
	case models.OpLessOrEqual:
		return a <= b
	case models.OpLess:
		return a < b
	default:
		return false
	}
}
