package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMoney accepts common user-formatted amount strings from config
// imports, like:
// - "20,000"
// - "INR 20,000"
// - "Rs. -20,000"
// - "₹ 1,234.50"
//
// Keep digits, '.', and a leading '-' only.
func ParseMoney(in string) (decimal.Decimal, error) {
	s := strings.TrimSpace(in)
	if s != "" {
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, "INR", "")
		s = strings.ReplaceAll(s, "inr", "")
		s = strings.ReplaceAll(s, "Rs.", "")
		s = strings.ReplaceAll(s, "Rs", "")
		s = strings.ReplaceAll(s, "rs", "")
		s = strings.ReplaceAll(s, "₹", "")
		s = strings.TrimSpace(s)
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	// Strip everything except digits and '.'.
	var b strings.Builder
	b.Grow(len(s) + 1)
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return decimal.NewFromInt(0), fmt.Errorf("invalid value")
	}
	if neg {
		clean = "-" + clean
	}

	val, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.NewFromInt(0), fmt.Errorf("invalid decimal %q", in)
	}
	return val, nil
}
