package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestVoucherResolvedAmountFixedWins(t *testing.T) {
	v := Voucher{DiscountAmount: decPtr("50"), DiscountPercent: decPtr("25")}
	if got := v.ResolvedAmount(dec("1000")); !got.Equal(dec("50")) {
		t.Errorf("resolved = %s, want 50 (fixed wins over percent)", got)
	}
}

func TestVoucherResolvedAmountPercent(t *testing.T) {
	v := Voucher{DiscountPercent: decPtr("25")}
	if got := v.ResolvedAmount(dec("1000")); !got.Equal(dec("250")) {
		t.Errorf("resolved = %s, want 250", got)
	}
}

func TestVoucherResolvedAmountEmpty(t *testing.T) {
	v := Voucher{}
	if got := v.ResolvedAmount(dec("1000")); !got.IsZero() {
		t.Errorf("resolved = %s, want 0", got)
	}

	v = Voucher{DiscountAmount: decPtr("0"), DiscountPercent: decPtr("0")}
	if got := v.ResolvedAmount(dec("1000")); !got.IsZero() {
		t.Errorf("resolved = %s, want 0", got)
	}
}
