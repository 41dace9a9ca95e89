package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDeriveStatusAfterPayment(t *testing.T) {
	total := dec("432")

	// Partial payment on a sent invoice.
	status := deriveStatusAfterPayment(InvoiceStatusSent, dec("200"), total)
	if status != InvoiceStatusPartial {
		t.Errorf("after 200/432 status = %s, want partial", status)
	}

	// The remainder settles it.
	status = deriveStatusAfterPayment(status, dec("432"), total)
	if status != InvoiceStatusPaid {
		t.Errorf("after 432/432 status = %s, want paid", status)
	}

	// Overpayment is still paid.
	status = deriveStatusAfterPayment(InvoiceStatusPartial, dec("500"), total)
	if status != InvoiceStatusPaid {
		t.Errorf("after overpayment status = %s, want paid", status)
	}
}

func TestDeriveStatusNeverMovesBackwards(t *testing.T) {
	if got := deriveStatusAfterPayment(InvoiceStatusPaid, dec("100"), dec("432")); got != InvoiceStatusPaid {
		t.Errorf("paid regressed to %s", got)
	}
}

func TestDeriveStatusSettlementCoversCancelled(t *testing.T) {
	total := dec("432")

	if got := deriveStatusAfterPayment(InvoiceStatusCancelled, dec("432"), total); got != InvoiceStatusPaid {
		t.Errorf("settled cancelled invoice = %s, want paid", got)
	}
	if got := deriveStatusAfterPayment(InvoiceStatusCancelled, dec("200"), total); got != InvoiceStatusPartial {
		t.Errorf("partially paid cancelled invoice = %s, want partial", got)
	}
}

func TestDeriveStatusZeroPaidKeepsCurrent(t *testing.T) {
	if got := deriveStatusAfterPayment(InvoiceStatusViewed, decimal.Zero, dec("100")); got != InvoiceStatusViewed {
		t.Errorf("status = %s, want viewed", got)
	}
}
