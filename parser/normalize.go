package parser

import (
	"strconv"
	"strings"
)

// Feeds encode scalars inconsistently: numbers with stray whitespace,
// booleans as "1"/"true"/absent, text wrapped in CDATA. The helpers below
// are the single place those encodings are coerced.

func text(s string) string {
	return strings.TrimSpace(s)
}

func textDefault(s, def string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return def
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func atoi64(s string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return def
	}
	return n
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func atof(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}

func atofPtr(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

func atob(s string) bool {
	switch strings.TrimSpace(s) {
	case "1", "true":
		return true
	default:
		return false
	}
}
