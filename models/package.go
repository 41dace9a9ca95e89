package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Package is the sellable catalog entry an on-the-fly invoice is built from.
// Read-only from this engine's perspective.
type Package struct {
	ID          int             `gorm:"primary_key" json:"id"`
	PackageId   string          `gorm:"size:64;uniqueIndex;not null" json:"package_id"`
	Name        string          `gorm:"size:255" json:"name"`
	InvoiceDesc string          `gorm:"type:text" json:"invoice_desc"`
	Price       decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"price"`
	Active      *bool           `gorm:"default:true" json:"active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// InvoiceDescription is the line description used for the package item:
// invoice description, then name, then a synthesized label.
func (p Package) InvoiceDescription() string {
	if p.InvoiceDesc != "" {
		return p.InvoiceDesc
	}
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("Package %s", p.PackageId)
}

func GetPackage(ctx context.Context, packageId string) (*Package, error) {
	db := config.GetDB()
	var pkg Package
	if err := db.WithContext(ctx).Where("package_id = ?", packageId).First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &pkg, nil
}
