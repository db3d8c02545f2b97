// Package format renders report values the way the dashboard shows them:
// Chilean pesos without decimals, dot thousands separators and DD/MM/YYYY
// dates.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "02/01/2006"

// Currency truncates to whole pesos: 1234567.8 renders as "$1.234.567".
func Currency(v decimal.Decimal) string {
	whole := v.Truncate(0)
	if whole.IsNegative() {
		return "-$" + group(whole.Neg().String())
	}
	return "$" + group(whole.String())
}

// Integer truncates and groups thousands.
func Integer(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	n := int64(v)
	if n < 0 {
		return "-" + group(strconv.FormatInt(-n, 10))
	}
	return group(strconv.FormatInt(n, 10))
}

// Percent renders one decimal with a comma: 82.5 -> "82,5%".
func Percent(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 1, 64), ".", ",", 1) + "%"
}

// Date is "" for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
