package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestApplyPercentage(t *testing.T) {
	cases := []struct {
		base, percent, want string
	}{
		{"1000", "10", "100"},
		{"400", "8", "32"},
		{"0.01", "8", "0"},
		{"999.99", "6", "60"},
		{"0", "8", "0"},
		{"-100", "10", "-10"},
	}
	for _, c := range cases {
		got := ApplyPercentage(dec(c.base), dec(c.percent))
		if !got.Equal(dec(c.want)) {
			t.Errorf("ApplyPercentage(%s, %s) = %s, want %s", c.base, c.percent, got, c.want)
		}
	}
}

func TestLineTotalRoundsOnce(t *testing.T) {
	// 3 * 3.33 * 0.9 = 8.991 -> 8.99; rounding per factor would give 9.00
	got := LineTotal(dec("3"), dec("3.33"), dec("10"))
	if !got.Equal(dec("8.99")) {
		t.Fatalf("LineTotal = %s, want 8.99", got)
	}
}

func TestLineTotalNoDiscount(t *testing.T) {
	got := LineTotal(dec("2"), dec("150.50"), decimal.Zero)
	if !got.Equal(dec("301")) {
		t.Fatalf("LineTotal = %s, want 301", got)
	}
}

func TestNegate(t *testing.T) {
	if !Negate(dec("500")).Equal(dec("-500")) {
		t.Fatal("Negate(500) != -500")
	}
	if !Negate(dec("-1.25")).Equal(dec("1.25")) {
		t.Fatal("Negate(-1.25) != 1.25")
	}
}
