package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatEUR renders a monetary value the way the quotes display it:
// "1.234,56 €" (es-ES grouping, two decimals). Rendering is strictly a
// one-way projection of numeric state; numbers are never reconstructed by
// scraping formatted text, but ParseEUR exists as its exact inverse for
// 2-decimal values.
func FormatEUR(val float64) string {
	val = RoundMoney(val)
	negative := val < 0
	if negative {
		val = -val
	}

	cents := int64(RoundFloat(val*100, 0))
	intPart := cents / 100
	fracPart := cents % 100

	digits := strconv.FormatInt(intPart, 10)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s%s,%02d €", sign, grouped.String(), fracPart)
}

// ParseEUR parses a string produced by FormatEUR back into a float64.
// The round trip FormatEUR -> ParseEUR is loss-free for values rounded to
// 2 decimals.
func ParseEUR(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimSuffix(cleaned, "€")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.ReplaceAll(cleaned, "\u00a0", "") // non-breaking space
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return 0, fmt.Errorf("empty currency string %q", s)
	}
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid currency string %q: %w", s, err)
	}
	return val, nil
}
