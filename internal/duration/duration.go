// Package duration provides parsing for human-readable duration strings.
package duration

import (
	"fmt"
	"strconv"
)

// ParseDays parses a window length like "7", "7d", "2w" or "1mo" into a
// whole number of days. Windows shorter than a day are rejected.
func ParseDays(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return checkDays(s, n)
	}

	var n int
	var unit string

	if _, err := fmt.Sscanf(s, "%d%s", &n, &unit); err != nil {
		return 0, fmt.Errorf("invalid duration format: %s (use e.g., 7d, 2w, 1mo)", s)
	}

	switch unit {
	case "d", "day", "days":
	case "w", "wk", "wks", "week", "weeks":
		n *= 7
	case "mo", "month", "months":
		n *= 30
	case "y", "yr", "yrs", "year", "years":
		n *= 365
	default:
		return 0, fmt.Errorf("unknown duration unit: %s (windows are counted in days)", unit)
	}

	return checkDays(s, n)
}

func checkDays(s string, n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("invalid duration: %s (must be at least one day)", s)
	}
	return n, nil
}
