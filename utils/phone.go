package utils

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

const defaultPhoneRegion = "MY"

// FormatPhoneNumber reduces a phone number to digits only. Both sides of an
// edit-access phone check go through this, so "+60 12-345 6789" and
// "60123456789" compare equal.
func FormatPhoneNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func IsValidPhoneNumber(phone string) bool {
	digits := FormatPhoneNumber(phone)
	return len(digits) >= 10 && len(digits) <= 15
}

// FormatPhoneE164 normalizes to E.164 for the messaging channel, falling
// back to the digits-only form when the number cannot be parsed.
func FormatPhoneE164(phone string) string {
	num, err := libphonenumber.Parse(phone, defaultPhoneRegion)
	if err != nil {
		return FormatPhoneNumber(phone)
	}
	return strings.TrimPrefix(libphonenumber.Format(num, libphonenumber.E164), "+")
}
