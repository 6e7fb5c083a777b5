package utils

import "strconv"

// ParseLimit parses a count query parameter. Values that are missing, not a
// number, below 1 or above max fall back to def.
func ParseLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return ClampLimit(n, def, max)
}

// ClampLimit returns n when 1 <= n <= max and def otherwise
func ClampLimit(n, def, max int) int {
	if n < 1 || n > max {
		return def
	}
	return n
}
