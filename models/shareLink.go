package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"gorm.io/gorm"
)

type ShareLink struct {
	Token     string    `json:"token"`
	Url       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GenerateShareLink issues a fresh token for an invoice, replacing any
// previous one. Old links stop working the moment a new one is issued.
func GenerateShareLink(ctx context.Context, invoiceId string, ttlDays int) (*ShareLink, error) {
	db := config.GetDB()

	invoice, err := GetInvoice(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	before := *invoice

	if ttlDays <= 0 {
		ttlDays = config.ShareLinkExpiryDays()
	}

	token := utils.GenerateShareToken()
	expiresAt := time.Now().UTC().AddDate(0, 0, ttlDays)

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	err = tx.WithContext(ctx).Model(&Invoice{}).Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"share_token":      token,
			"share_enabled":    true,
			"share_expires_at": expiresAt,
		}).Error
	if err != nil {
		return nil, err
	}

	invoice.ShareToken = &token
	invoice.ShareEnabled = true
	invoice.ShareExpiresAt = &expiresAt
	if err := createAuditLog(ctx, tx, "invoice", invoice.InvoiceId, AuditActionShareLink, &before, invoice); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &ShareLink{
		Token:     token,
		Url:       config.PublicBaseUrl() + "/view/" + token,
		ExpiresAt: expiresAt,
	}, nil
}

// DisableShareLink revokes public access without deleting the token row.
func DisableShareLink(ctx context.Context, invoiceId string) error {
	db := config.GetDB()

	invoice, err := GetInvoice(ctx, invoiceId)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Model(&Invoice{}).Where("id = ?", invoice.ID).
		Update("share_enabled", false).Error
}

// shareGrantLive reports whether a resolved share grant is usable at now.
// A grant with no expiry set is treated as dead, not open-ended.
func shareGrantLive(enabled bool, expiresAt *time.Time, now time.Time) bool {
	if !enabled {
		return false
	}
	if expiresAt == nil {
		return false
	}
	return now.Before(*expiresAt)
}

// GetInvoiceByShareToken resolves a public token. Disabled and expired
// tokens are indistinguishable from unknown ones so a caller cannot probe
// which invoices exist.
func GetInvoiceByShareToken(ctx context.Context, token string) (*Invoice, error) {
	db := config.GetDB()

	if token == "" {
		return nil, utils.ErrorRecordNotFound
	}

	var invoice Invoice
	err := db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order, id")
	}).Where("share_token = ?", token).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	if !shareGrantLive(invoice.ShareEnabled, invoice.ShareExpiresAt, time.Now().UTC()) {
		return nil, utils.ErrorRecordNotFound
	}
	return &invoice, nil
}

// RecordShareView bumps the access counter and marks the first view. A view
// only ever moves draft or sent forward to viewed; payment-derived statuses
// are never downgraded by someone opening the link.
func RecordShareView(ctx context.Context, invoice *Invoice) error {
	db := config.GetDB()

	updates := map[string]interface{}{
		"share_access_count": gorm.Expr("share_access_count + 1"),
	}
	if invoice.ViewedAt == nil {
		now := time.Now().UTC()
		updates["viewed_at"] = now
		invoice.ViewedAt = &now
	}
	if invoice.Status == InvoiceStatusDraft || invoice.Status == InvoiceStatusSent {
		updates["status"] = InvoiceStatusViewed
		invoice.Status = InvoiceStatusViewed
	}
	invoice.ShareAccessCount++

	return db.WithContext(ctx).Model(&Invoice{}).Where("id = ?", invoice.ID).
		Updates(updates).Error
}
