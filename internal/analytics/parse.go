package analytics

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseFloatOrDefault reads user-typed numbers such as "12,5", "$1200" or
// "15%". On failure it returns def and false; it never panics.
func ParseFloatOrDefault(s string, def float64) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return def, false
	}
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			// 1,234.50
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return def, false
	}
	return d.InexactFloat64(), true
}

func ParseIntOrDefault(s string, def int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def, false
	}
	return n, true
}

// SplitList splits a comma separated filter value, dropping blanks.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
