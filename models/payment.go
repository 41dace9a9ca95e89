package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoicePayment is append-only. Corrections are new rows (with review
// status), never edits of recorded ones.
type InvoicePayment struct {
	ID         int    `gorm:"primary_key" json:"id"`
	PaymentId  string `gorm:"size:64;uniqueIndex;not null" json:"payment_id"`
	InvoiceRef string `gorm:"size:64;index;not null" json:"invoice_id"`

	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaymentMethod string          `gorm:"size:64" json:"payment_method"`
	PaymentDate   time.Time       `gorm:"type:date;not null" json:"payment_date"`
	Reference     string          `gorm:"size:255" json:"reference"`
	BankName      string          `gorm:"size:255" json:"bank_name"`
	Notes         string          `gorm:"type:text" json:"notes"`
	AttachmentUrl string          `gorm:"size:512" json:"attachment_url"`

	ReviewStatus PaymentReviewStatus `gorm:"size:32;default:pending" json:"review_status"`
	RecordedBy   string              `gorm:"size:64" json:"recorded_by"`
	CreatedAt    time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

type NewPayment struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method"`
	PaymentDate   *time.Time      `json:"payment_date"`
	Reference     string          `json:"reference"`
	BankName      string          `json:"bank_name"`
	Notes         string          `json:"notes"`
	AttachmentUrl string          `json:"attachment_url"`
}

// deriveStatusAfterPayment maps the cumulative paid amount onto a status.
// Settling the total marks any invoice paid, cancelled included; paid stays
// paid since the cumulative amount never decreases.
func deriveStatusAfterPayment(current InvoiceStatus, paidAmount decimal.Decimal, totalAmount decimal.Decimal) InvoiceStatus {
	if current == InvoiceStatusPaid {
		return current
	}
	if paidAmount.GreaterThanOrEqual(totalAmount) {
		return InvoiceStatusPaid
	}
	if paidAmount.GreaterThan(decimal.Zero) {
		return InvoiceStatusPartial
	}
	return current
}

// AddPayment appends a payment and rolls the cumulative paid amount and
// status forward. A per-invoice redis lock plus a FOR UPDATE row read keep
// concurrent recordings from double-counting.
func AddPayment(ctx context.Context, invoiceId string, input *NewPayment) (*InvoicePayment, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	if !input.Amount.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: payment amount must be positive", utils.ErrorValidation)
	}

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "invoice:"+invoiceId, 10*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(200*time.Millisecond), 10),
		})
		if err != nil {
			logger.WithFields(logrus.Fields{"invoice_id": invoiceId, "error": err}).Warn("payment lock not obtained")
			return nil, utils.ErrorConflict
		}
		defer func() { _ = lock.Release(context.Background()) }()
	}

	recordedBy, _ := utils.GetUserIdFromContext(ctx)

	paymentDate := time.Now().UTC()
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}

	payment := InvoicePayment{
		PaymentId:     "pay_" + utils.RandomHex(8),
		Amount:        input.Amount,
		PaymentMethod: input.PaymentMethod,
		PaymentDate:   paymentDate,
		Reference:     input.Reference,
		BankName:      input.BankName,
		Notes:         input.Notes,
		AttachmentUrl: input.AttachmentUrl,
		ReviewStatus:  PaymentReviewStatusPending,
		RecordedBy:    recordedBy,
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	var invoice Invoice
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("invoice_id = ?", invoiceId).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	before := invoice

	payment.InvoiceRef = invoice.InvoiceId
	if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}

	invoice.PaidAmount = invoice.PaidAmount.Add(payment.Amount)
	newStatus := deriveStatusAfterPayment(invoice.Status, invoice.PaidAmount, invoice.TotalAmount)
	if newStatus == InvoiceStatusPaid && invoice.Status != InvoiceStatusPaid {
		now := time.Now().UTC()
		invoice.PaidAt = &now
	}
	invoice.Status = newStatus

	err = tx.WithContext(ctx).Model(&Invoice{}).Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"paid_amount": invoice.PaidAmount,
			"status":      invoice.Status,
			"paid_at":     invoice.PaidAt,
		}).Error
	if err != nil {
		return nil, err
	}

	if err := createAuditLog(ctx, tx, "invoice", invoice.InvoiceId, AuditActionPayment, &before, &invoice); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"invoice_id": invoice.InvoiceId,
		"payment_id": payment.PaymentId,
		"amount":     payment.Amount.String(),
		"status":     invoice.Status,
	}).Info("payment recorded")

	return &payment, nil
}

func ListPayments(ctx context.Context, invoiceId string) ([]InvoicePayment, error) {
	db := config.GetDB()

	invoice, err := GetInvoice(ctx, invoiceId)
	if err != nil {
		return nil, err
	}

	var payments []InvoicePayment
	err = db.WithContext(ctx).Where("invoice_ref = ?", invoice.InvoiceId).
		Order("payment_date, id").Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// MarkInvoiceSent flips a draft to sent and stamps the send time. Re-sending
// an already-sent invoice only refreshes the timestamp.
func MarkInvoiceSent(ctx context.Context, invoiceId string) (*Invoice, error) {
	db := config.GetDB()

	invoice, err := GetInvoice(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	before := *invoice

	now := time.Now().UTC()
	invoice.SentAt = &now
	if invoice.Status == InvoiceStatusDraft {
		invoice.Status = InvoiceStatusSent
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	err = tx.WithContext(ctx).Model(&Invoice{}).Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{"status": invoice.Status, "sent_at": invoice.SentAt}).Error
	if err != nil {
		return nil, err
	}
	if err := createAuditLog(ctx, tx, "invoice", invoice.InvoiceId, AuditActionMarkSent, &before, invoice); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return invoice, nil
}
