package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDiscountSpec parses the free-form discount string accepted by the
// on-the-fly invoice endpoint: "500 10%", "500", "10%", "RM1,200", "500+10%".
// Tokens are split on whitespace (and "+"); a "%" token sets the percent
// part, anything else is tried as a fixed amount after stripping the "RM"
// currency marker and comma grouping. Unparseable tokens are ignored on
// purpose: callers send hand-typed agent input and a partial parse beats a
// rejected invoice. Keep this in sync with its unit tests; the silent ignore
// is a documented contract, not an accident.
func ParseDiscountSpec(spec string) (fixed decimal.Decimal, percent decimal.Decimal) {
	fixed = decimal.Zero
	percent = decimal.Zero

	spec = strings.TrimSpace(spec)
	if spec == "" {
		return fixed, percent
	}

	parts := strings.Fields(strings.ReplaceAll(spec, "+", " "))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "%") {
			if v, err := decimal.NewFromString(strings.ReplaceAll(part, "%", "")); err == nil {
				percent = v
			}
		} else {
			cleaned := strings.ReplaceAll(strings.ReplaceAll(part, "RM", ""), ",", "")
			if v, err := decimal.NewFromString(cleaned); err == nil {
				fixed = v
			}
		}
	}
	return fixed, percent
}
