package utils

import "testing"

func TestFormatPhoneNumber(t *testing.T) {
	cases := []struct{ in, want string }{
		{"+60 12-345 6789", "60123456789"},
		{"60123456789", "60123456789"},
		{"(012) 345 6789", "0123456789"},
		{"", ""},
		{"no digits", ""},
	}
	for _, c := range cases {
		if got := FormatPhoneNumber(c.in); got != c.want {
			t.Errorf("FormatPhoneNumber(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPhoneFormatsCompareEqual(t *testing.T) {
	if FormatPhoneNumber("+60 12-345 6789") != FormatPhoneNumber("60123456789") {
		t.Fatal("differently formatted numbers must normalize equal")
	}
}

func TestIsValidPhoneNumber(t *testing.T) {
	if !IsValidPhoneNumber("+60 12-345 6789") {
		t.Error("valid number rejected")
	}
	if IsValidPhoneNumber("12345") {
		t.Error("too-short number accepted")
	}
	if IsValidPhoneNumber("") {
		t.Error("empty number accepted")
	}
}

func TestFormatPhoneE164FallsBack(t *testing.T) {
	if got := FormatPhoneE164("not a phone"); got != "" {
		t.Errorf("unparseable input should fall back to digits-only, got %q", got)
	}
}
