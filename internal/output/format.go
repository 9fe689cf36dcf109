package output

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPrice formats a price with two decimals, or "-" when zero.
func FormatPrice(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatGainLoss formats a value with an explicit sign, e.g. "+12.50".
func FormatGainLoss(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f", v)
	}
	return fmt.Sprintf("-%.2f", -v)
}

// FormatPercent formats a decimal fraction as a percentage, or "-" when zero.
func FormatPercent(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", v*100)
}

// FormatGreek formats a greek with four decimals.
func FormatGreek(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

// FormatVolume formats a count with thousand separators, or "-" when zero.
func FormatVolume(v int64) string {
	if v == 0 {
		return "-"
	}

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	str := strconv.FormatInt(v, 10)
	n := len(str)
	if n <= 3 {
		return sign + str
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		result.WriteString(",")
	}

	for i := remainder; i < n; i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < n {
			result.WriteString(",")
		}
	}

	return result.String()
}
