package utils

import "testing"

func TestParseDiscountSpec(t *testing.T) {
	cases := []struct {
		spec        string
		wantFixed   string
		wantPercent string
	}{
		{"500 10%", "500", "10"},
		{"500", "500", "0"},
		{"10%", "0", "10"},
		{"RM1,200", "1200", "0"},
		{"500+10%", "500", "10"},
		{"", "0", "0"},
		{"   ", "0", "0"},
		{"abc", "0", "0"},
		{"abc 5%", "0", "5"},
		{"RM 250", "250", "0"},
		{"2.5%", "0", "2.5"},
	}
	for _, c := range cases {
		fixed, percent := ParseDiscountSpec(c.spec)
		if !fixed.Equal(dec(c.wantFixed)) || !percent.Equal(dec(c.wantPercent)) {
			t.Errorf("ParseDiscountSpec(%q) = (%s, %s), want (%s, %s)",
				c.spec, fixed, percent, c.wantFixed, c.wantPercent)
		}
	}
}

func TestParseDiscountSpecLastTokenWins(t *testing.T) {
	fixed, percent := ParseDiscountSpec("100 200 5% 7%")
	if !fixed.Equal(dec("200")) {
		t.Errorf("fixed = %s, want 200", fixed)
	}
	if !percent.Equal(dec("7")) {
		t.Errorf("percent = %s, want 7", percent)
	}
}
