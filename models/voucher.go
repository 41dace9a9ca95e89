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

type Voucher struct {
	ID              int              `gorm:"primary_key" json:"id"`
	VoucherCode     string           `gorm:"size:64;uniqueIndex;not null" json:"voucher_code"`
	Title           string           `gorm:"size:255" json:"title"`
	DiscountAmount  *decimal.Decimal `gorm:"type:decimal(15,2)" json:"discount_amount"`
	DiscountPercent *decimal.Decimal `gorm:"type:decimal(5,2)" json:"discount_percent"`
	InvoiceDesc     string           `gorm:"type:text" json:"invoice_description"`
	Active          *bool            `gorm:"default:true" json:"active"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// ResolvedAmount computes the discount a voucher grants against a package
// base price. A fixed amount wins over a percentage when both are set.
func (v Voucher) ResolvedAmount(basePrice decimal.Decimal) decimal.Decimal {
	if v.DiscountAmount != nil && v.DiscountAmount.GreaterThan(decimal.Zero) {
		return *v.DiscountAmount
	}
	if v.DiscountPercent != nil && v.DiscountPercent.GreaterThan(decimal.Zero) {
		return utils.ApplyPercentage(basePrice, *v.DiscountPercent)
	}
	return decimal.Zero
}

func findActiveVoucher(ctx context.Context, tx *gorm.DB, code string) (*Voucher, error) {
	var voucher Voucher
	err := tx.WithContext(ctx).Where("voucher_code = ? AND active = ?", code, true).First(&voucher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &voucher, nil
}

type VoucherValidation struct {
	VoucherCode     string           `json:"voucher_code"`
	DiscountAmount  decimal.Decimal  `json:"discount_amount"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	Title           string           `json:"title"`
}

// ValidateVoucher is the explicit validation endpoint's path: unknown or
// inactive codes surface as not-found here, unlike invoice construction
// which treats them as "no voucher".
func ValidateVoucher(ctx context.Context, code string, packageId string) (*VoucherValidation, error) {
	db := config.GetDB()

	voucher, err := findActiveVoucher(ctx, db, code)
	if err != nil {
		return nil, err
	}
	pkg, err := GetPackage(ctx, packageId)
	if err != nil {
		return nil, err
	}

	title := voucher.Title
	if title == "" {
		title = voucher.VoucherCode
	}
	return &VoucherValidation{
		VoucherCode:     voucher.VoucherCode,
		DiscountAmount:  voucher.ResolvedAmount(pkg.Price),
		DiscountPercent: voucher.DiscountPercent,
		Title:           title,
	}, nil
}
