package tradeapi

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Placeholder is shown wherever a value is not known yet.
const Placeholder = "-"

// FormatCurrency renders v with two decimals behind the currency symbol.
func FormatCurrency(symbol string, v decimal.Decimal) string {
	return symbol + v.StringFixed(2)
}

// FormatPercent renders v with two decimals and a percent sign. Negative
// values keep their sign; positive values get none.
func FormatPercent(v decimal.Decimal) string {
	return v.StringFixed(2) + "%"
}

// FormatVolume formats a volume number with thousand separators.
// Returns "-" for zero values.
func FormatVolume(vol int64) string {
	if vol == 0 {
		return Placeholder
	}

	str := strconv.FormatInt(vol, 10)
	neg := strings.HasPrefix(str, "-")
	if neg {
		str = str[1:]
	}
	n := len(str)
	if n <= 3 {
		if neg {
			return "-" + str
		}
		return str
	}

	var result strings.Builder
	if neg {
		result.WriteString("-")
	}
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		if n > remainder {
			result.WriteString(",")
		}
	}

	for i := remainder; i < n; i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < n {
			result.WriteString(",")
		}
	}

	return result.String()
}
