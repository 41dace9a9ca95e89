package config

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Invoicing settings resolved from env once per process.
// Defaults match the production deployment.

const (
	defaultInvoiceNumberPrefix = "INV"
	defaultInvoiceNumberLength = 6
	defaultSstRatePercent      = "8"
	defaultShareLinkExpiryDays = 7
	defaultOtpLength           = 6
	defaultOtpExpireSeconds    = 1800
)

func InvoiceNumberPrefix() string {
	if v := strings.TrimSpace(os.Getenv("INVOICE_NUMBER_PREFIX")); v != "" {
		return v
	}
	return defaultInvoiceNumberPrefix
}

func InvoiceNumberLength() int {
	return intFromEnv("INVOICE_NUMBER_LENGTH", defaultInvoiceNumberLength)
}

// DefaultSstRate is the SST percentage applied when a template does not
// override it. Zero is a valid configured rate.
func DefaultSstRate() decimal.Decimal {
	v := strings.TrimSpace(os.Getenv("DEFAULT_SST_RATE"))
	if v == "" {
		v = defaultSstRatePercent
	}
	rate, err := decimal.NewFromString(v)
	if err != nil {
		rate, _ = decimal.NewFromString(defaultSstRatePercent)
	}
	return rate
}

func ShareLinkExpiryDays() int {
	return intFromEnv("SHARE_LINK_EXPIRY_DAYS", defaultShareLinkExpiryDays)
}

func OtpLength() int {
	return intFromEnv("OTP_LENGTH", defaultOtpLength)
}

func OtpExpireSeconds() int {
	return intFromEnv("OTP_EXPIRE_SECONDS", defaultOtpExpireSeconds)
}

func WhatsAppApiUrl() string {
	return strings.TrimSpace(os.Getenv("WHATSAPP_API_URL"))
}

func PublicBaseUrl() string {
	return strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")
}
