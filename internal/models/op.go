package models

// Op is the closed set of comparison operators a metric rule may declare.
type Op int

const (
	OpUnknown Op = iota
	OpGreater
	OpGreaterOrEqual
	OpEqual
	OpLessOrEqual
	OpLess
)

// ParseOp maps a configured operator symbol onto the Op enumeration. The
// boolean is false for anything outside the five recognized symbols.
func ParseOp(s string) (Op, bool) {
	switch s {
	case ">":
		return OpGreater, true
	case ">=":
		return OpGreaterOrEqual, true
	case "=":
		return OpEqual, true
	case "<=":
		return OpLessOrEqual, true
	case "<":
		return OpLess, true
	default:
		return OpUnknown, false
	}
}

func (o Op) String() string {
	switch o {
	case OpGreater:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	case OpEqual:
		return "="
	case OpLessOrEqual:
		return "<="
	case OpLess:
		return "<"
	default:
		return "?"
	}
}
