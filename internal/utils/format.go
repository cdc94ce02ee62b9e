package utils

import (
	"math"
	"strconv"
)

// FormatNumber renders a float with at most two decimal places and no
// trailing zeros, so check messages read "95" and "33.33" rather than
// "95.000000".
func FormatNumber(f float64) string {
	rounded := math.Round(f*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Bold wraps a string in the ANSI bold escape sequence for debug output.
func Bold(s string) string {
	return "\033[1m" + s + "\033[0m"
}
