package display

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
)

// largest magnitude that still fits in int64 minor units
const maxMinorSafe = 9e15

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

var numberFormatter = money.NewFormatter(2, ".", ",", "", "1")

// Display turns an extracted value into its display string.
func Display(v Value, format string) string {
	if v.Missing() {
		return v.Sentinel
	}
	return Format(v.Raw, format)
}

// Format renders raw according to format. Values that do not parse as a
// number are returned as their plain string form.
func Format(raw any, format string) string {
	n, ok := parseNumber(raw)
	if !ok {
		return stringify(raw)
	}

	switch format {
	case dto.FormatCurrencyUSD:
		return formatUSD(n)
	case dto.FormatCurrencyINR:
		return formatINR(n)
	case dto.FormatPercentage:
		return n.StringFixed(2) + "%"
	default:
		return formatNumber(n)
	}
}

// parseNumber follows parseFloat: the longest numeric prefix of the string
// form wins. Booleans, objects and arrays are never numeric.
func parseNumber(raw any) (decimal.Decimal, bool) {
	switch t := raw.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case json.Number:
		return parseNumericPrefix(t.String())
	case string:
		return parseNumericPrefix(t)
	default:
		return decimal.Decimal{}, false
	}
}

func parseNumericPrefix(s string) (decimal.Decimal, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return decimal.Decimal{}, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(f), true
}

func stringify(raw any) string {
	switch t := raw.(type) {
	case string:
		return t
	case nil:
		return ""
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func minorUnits(n decimal.Decimal) (int64, bool) {
	r := n.Round(2)
	if r.Abs().GreaterThanOrEqual(decimal.NewFromFloat(maxMinorSafe / 100)) {
		return 0, false
	}
	return r.Shift(2).IntPart(), true
}

func formatUSD(n decimal.Decimal) string {
	minor, ok := minorUnits(n)
	if !ok {
		return signed(n, money.GetCurrency(money.USD).Grapheme+groupThousands(n.Abs().StringFixed(2)))
	}
	return money.GetCurrency(money.USD).Formatter().Format(minor)
}

// formatINR uses Indian digit grouping: the last three digits, then pairs.
func formatINR(n decimal.Decimal) string {
	return signed(n, money.GetCurrency(money.INR).Grapheme+groupLakh(n.Abs().Round(2).StringFixed(2)))
}

// formatNumber groups thousands and keeps at most two fraction digits.
func formatNumber(n decimal.Decimal) string {
	var s string
	if minor, ok := minorUnits(n); ok {
		s = numberFormatter.Format(minor)
	} else {
		s = signed(n, groupThousands(n.Abs().StringFixed(2)))
	}
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

func signed(n decimal.Decimal, s string) string {
	if n.Round(2).IsNegative() {
		return "-" + s
	}
	return s
}

func splitFixed(fixed string) (string, string) {
	intPart, frac, _ := strings.Cut(fixed, ".")
	return intPart, frac
}

func groupThousands(fixed string) string {
	intPart, frac := splitFixed(fixed)
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String() + "." + frac
}

func groupLakh(fixed string) string {
	intPart, frac := splitFixed(fixed)
	if len(intPart) <= 3 {
		return intPart + "." + frac
	}
	head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
	var b strings.Builder
	for i, c := range head {
		if i > 0 && (len(head)-i)%2 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String() + "," + tail + "." + frac
}
