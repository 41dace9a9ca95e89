package models

import "testing"

func TestInvoiceStatusValid(t *testing.T) {
	for _, s := range []InvoiceStatus{
		InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed,
		InvoiceStatusPaid, InvoiceStatusPartial, InvoiceStatusOverdue,
		InvoiceStatusCancelled,
	} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if InvoiceStatus("pending").Valid() {
		t.Error("unknown status accepted")
	}
}

func TestItemKindSigns(t *testing.T) {
	if !ItemKindDiscount.NegativeSigned() || !ItemKindVoucher.NegativeSigned() {
		t.Error("discount and voucher items must be negative signed")
	}
	if ItemKindPackage.NegativeSigned() || ItemKindEppFee.NegativeSigned() || ItemKindLegacy.NegativeSigned() {
		t.Error("package, fee and legacy items must not be negative signed")
	}
}

func TestItemKindScanRejectsUnknown(t *testing.T) {
	var k ItemKind
	if err := k.Scan("gift"); err == nil {
		t.Error("unknown kind accepted")
	}
	if err := k.Scan("voucher"); err != nil || k != ItemKindVoucher {
		t.Errorf("scan voucher failed: %v", err)
	}
}
