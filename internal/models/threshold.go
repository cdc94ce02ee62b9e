package models

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ThresholdKind discriminates the threshold variant.
type ThresholdKind int

const (
	ThresholdAbsent ThresholdKind = iota
	ThresholdNumeric
	ThresholdTextual
)

// Threshold is a tagged union: a numeric cutoff, a textual expectation, or
// absent ("never triggers at this severity"). Keeping the variant explicit
// makes the type-mismatch-falls-through behaviour of evaluation a testable
// branch instead of a runtime coercion.
type Threshold struct {
	kind ThresholdKind
	num  float64
	text string
}

// NumericThreshold returns a numeric threshold.
func NumericThreshold(f float64) Threshold {
	return Threshold{kind: ThresholdNumeric, num: f}
}

// TextualThreshold returns a string threshold.
func TextualThreshold(s string) Threshold {
	return Threshold{kind: ThresholdTextual, text: s}
}

// Kind reports the threshold variant.
func (t Threshold) Kind() ThresholdKind { return t.kind }

// IsAbsent reports whether no threshold was configured.
func (t Threshold) IsAbsent() bool { return t.kind == ThresholdAbsent }

// Number returns the numeric cutoff; only meaningful for ThresholdNumeric.
func (t Threshold) Number() float64 { return t.num }

// Text returns the textual expectation; only meaningful for ThresholdTextual.
func (t Threshold) Text() string { return t.text }

func (t Threshold) String() string {
	switch t.kind {
	case ThresholdNumeric:
		return strconv.FormatFloat(t.num, 'g', -1, 64)
	case ThresholdTextual:
		return t.text
	default:
		return "<absent>"
	}
}

// UnmarshalYAML decodes YAML scalars into the matching variant. Integers and
// floats become numeric, strings textual, and an explicit null stays absent.
func (t *Threshold) UnmarshalYAML(node *yaml.Node) error {
	switch node.Tag {
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return err
		}
		*t = NumericThreshold(f)
	case "!!str":
		*t = TextualThreshold(node.Value)
	case "!!null":
		*t = Threshold{}
	default:
		return fmt.Errorf("threshold must be a number or string, got %s", node.Tag)
	}
	return nil
}

// Value is an observed sample value: either a number or a string (for
// categorical metrics such as replication task status).
type Value struct {
	num   float64
	text  string
	isNum bool
}

// NumberValue wraps a numeric observation.
func NumberValue(f float64) Value { return Value{num: f, isNum: true} }

// StringValue wraps a textual observation.
func StringValue(s string) Value { return Value{text: s} }

// IsNumber reports whether the value holds a number.
func (v Value) IsNumber() bool { return v.isNum }

// Number returns the numeric observation; only meaningful when IsNumber.
func (v Value) Number() float64 { return v.num }

// Text returns the textual observation; only meaningful when !IsNumber.
func (v Value) Text() string { return v.text }
