package models

import (
	"testing"
	"time"
)

func TestShareGrantLive(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Minute)

	cases := []struct {
		name      string
		enabled   bool
		expiresAt *time.Time
		want      bool
	}{
		{"live grant", true, &future, true},
		{"disabled grant", false, &future, false},
		{"expired grant", true, &past, false},
		{"expiry exactly now", true, &now, false},
		{"no expiry set", true, nil, false},
		{"disabled and expired", false, &past, false},
	}
	for _, c := range cases {
		if got := shareGrantLive(c.enabled, c.expiresAt, now); got != c.want {
			t.Errorf("%s: shareGrantLive = %v, want %v", c.name, got, c.want)
		}
	}
}
