package models

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestFormatInvoiceNumber(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{1, "INV-000001"},
		{42, "INV-000042"},
		{999999, "INV-999999"},
		{1000000, "INV-1000000"},
	}
	for _, c := range cases {
		if got := formatInvoiceNumber("INV", c.n, 6); got != c.want {
			t.Errorf("formatInvoiceNumber(INV, %d, 6) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	if !isDuplicateKeyError(gorm.ErrDuplicatedKey) {
		t.Error("gorm.ErrDuplicatedKey not recognized")
	}
	if !isDuplicateKeyError(errors.New("Error 1062: Duplicate entry 'INV-000007' for key 'invoice_number'")) {
		t.Error("mysql 1062 message not recognized")
	}
	if isDuplicateKeyError(errors.New("connection refused")) {
		t.Error("unrelated error treated as duplicate key")
	}
}
