package utils

import "testing"

func TestGenerateShareTokenIsOpaqueAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token := GenerateShareToken()
		if len(token) < 40 {
			t.Fatalf("token too short: %d chars", len(token))
		}
		if seen[token] {
			t.Fatal("duplicate token generated")
		}
		seen[token] = true
	}
}

func TestGenerateOtp(t *testing.T) {
	code := GenerateOtp(6)
	if len(code) != 6 {
		t.Fatalf("len = %d, want 6", len(code))
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit %q in otp", r)
		}
	}
}

func TestRandomHexLength(t *testing.T) {
	if got := RandomHex(8); len(got) != 16 {
		t.Fatalf("RandomHex(8) length = %d, want 16", len(got))
	}
}
