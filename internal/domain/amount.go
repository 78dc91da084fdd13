package domain

import (
	"fmt"
	"strconv"
)

// FormatAmount renders an optional token amount for tables, compacting large
// values.
func FormatAmount(v *float64) string {
	if v == nil {
		return "-"
	}
	return compactAmount(*v)
}

func compactAmount(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case v >= 10_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}

func FormatEpoch(v *int64) string {
	if v == nil {
		return "-"
	}
	return "#" + strconv.FormatInt(*v, 10)
}
