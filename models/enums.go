package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusViewed    InvoiceStatus = "viewed"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed,
		InvoiceStatusPaid, InvoiceStatusPartial, InvoiceStatusOverdue,
		InvoiceStatusCancelled:
		return true
	}
	return false
}

func (s *InvoiceStatus) Scan(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		if b, ok := value.([]byte); ok {
			str = string(b)
		} else {
			return errors.New("invoice status must be string")
		}
	}
	v := InvoiceStatus(str)
	if !v.Valid() {
		return fmt.Errorf("invalid invoice status %q", str)
	}
	*s = v
	return nil
}

func (s InvoiceStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// ItemKind is a closed tagged variant; sign invariants and reporting
// grouping switch on it exhaustively. The empty string covers legacy rows
// migrated before kinds existed.
type ItemKind string

const (
	ItemKindPackage  ItemKind = "package"
	ItemKindDiscount ItemKind = "discount"
	ItemKindVoucher  ItemKind = "voucher"
	ItemKindEppFee   ItemKind = "epp_fee"
	ItemKindLegacy   ItemKind = ""
)

func (k ItemKind) Valid() bool {
	switch k {
	case ItemKindPackage, ItemKindDiscount, ItemKindVoucher, ItemKindEppFee, ItemKindLegacy:
		return true
	}
	return false
}

// NegativeSigned reports whether line totals of this kind must be <= 0.
func (k ItemKind) NegativeSigned() bool {
	switch k {
	case ItemKindDiscount, ItemKindVoucher:
		return true
	case ItemKindPackage, ItemKindEppFee, ItemKindLegacy:
		return false
	}
	return false
}

func (k *ItemKind) Scan(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		if b, ok := value.([]byte); ok {
			str = string(b)
		} else {
			return errors.New("item kind must be string")
		}
	}
	v := ItemKind(str)
	if !v.Valid() {
		return fmt.Errorf("invalid item kind %q", str)
	}
	*k = v
	return nil
}

func (k ItemKind) Value() (driver.Value, error) {
	return string(k), nil
}

type PaymentReviewStatus string

const (
	PaymentReviewStatusPending  PaymentReviewStatus = "pending"
	PaymentReviewStatusVerified PaymentReviewStatus = "verified"
	PaymentReviewStatusRejected PaymentReviewStatus = "rejected"
)

func (s PaymentReviewStatus) Valid() bool {
	switch s {
	case PaymentReviewStatusPending, PaymentReviewStatusVerified, PaymentReviewStatusRejected:
		return true
	}
	return false
}

type AuditAction string

const (
	AuditActionCreate         AuditAction = "create"
	AuditActionCreateOnTheFly AuditAction = "create_on_the_fly"
	AuditActionUpdate         AuditAction = "update"
	AuditActionDelete         AuditAction = "delete"
	AuditActionPayment        AuditAction = "payment"
	AuditActionShareLink      AuditAction = "share_link"
	AuditActionMarkSent       AuditAction = "mark_sent"
)
