package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceTemplate carries presentation settings plus the tax policy flag.
// Only ApplySst matters to the engine: a template that disables SST forces
// the invoice's tax rate to zero regardless of the configured default.
type InvoiceTemplate struct {
	ID         int       `gorm:"primary_key" json:"id"`
	TemplateId string    `gorm:"size:64;uniqueIndex;not null" json:"template_id"`
	Name       string    `gorm:"size:255" json:"name"`
	ApplySst   *bool     `gorm:"default:true" json:"apply_sst"`
	IsDefault  *bool     `gorm:"default:false" json:"is_default"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t InvoiceTemplate) appliesSst() bool {
	return t.ApplySst == nil || *t.ApplySst
}

func GetTemplate(ctx context.Context, templateId string) (*InvoiceTemplate, error) {
	db := config.GetDB()
	var template InvoiceTemplate
	if err := db.WithContext(ctx).Where("template_id = ?", templateId).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &template, nil
}

// resolveTaxRate resolves the SST rate for a new invoice. An explicit
// template wins; otherwise the system default template decides whether the
// configured default rate applies. No default template means no tax.
func resolveTaxRate(ctx context.Context, tx *gorm.DB, templateId string, defaultRate decimal.Decimal) (decimal.Decimal, error) {
	if templateId != "" {
		var template InvoiceTemplate
		err := tx.WithContext(ctx).Where("template_id = ?", templateId).First(&template).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Unknown template: keep the default rate (legacy behavior).
				return defaultRate, nil
			}
			return decimal.Zero, err
		}
		if !template.appliesSst() {
			return decimal.Zero, nil
		}
		return defaultRate, nil
	}

	var defaultTemplate InvoiceTemplate
	err := tx.WithContext(ctx).Where("is_default = ?", true).First(&defaultTemplate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	if !defaultTemplate.appliesSst() {
		return decimal.Zero, nil
	}
	return defaultRate, nil
}
