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

type Invoice struct {
	ID        int    `gorm:"primary_key" json:"id"`
	InvoiceId string `gorm:"size:64;uniqueIndex;not null" json:"invoice_id"`

	TemplateId string `gorm:"size:64" json:"template_id"`

	CustomerId *int `gorm:"index" json:"customer_id"`

	// Snapshots captured at creation time so the invoice stays stable even
	// if the source customer record changes later.
	CustomerNameSnapshot    string `gorm:"size:255;not null" json:"customer_name_snapshot"`
	CustomerAddressSnapshot string `gorm:"type:text" json:"customer_address_snapshot"`
	CustomerPhoneSnapshot   string `gorm:"size:64" json:"customer_phone_snapshot"`
	CustomerEmailSnapshot   string `gorm:"size:255" json:"customer_email_snapshot"`

	AgentId           string `gorm:"size:64" json:"agent_id"`
	AgentNameSnapshot string `gorm:"size:255" json:"agent_name_snapshot"`

	PackageId           string `gorm:"size:64" json:"package_id"`
	PackageNameSnapshot string `gorm:"size:255" json:"package_name_snapshot"`

	InvoiceNumber string     `gorm:"size:64;uniqueIndex;not null" json:"invoice_number"`
	InvoiceDate   time.Time  `gorm:"type:date;not null" json:"invoice_date"`
	DueDate       *time.Time `gorm:"type:date" json:"due_date"`

	Subtotal decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"subtotal"`
	// AgentMarkup is folded into the package item's unit price and never
	// shown as its own line: it must stay invisible to the invoiced party.
	AgentMarkup     decimal.Decimal  `gorm:"type:decimal(15,2);default:0" json:"agent_markup"`
	SstRate         decimal.Decimal  `gorm:"type:decimal(5,2);default:0" json:"sst_rate"`
	SstAmount       decimal.Decimal  `gorm:"type:decimal(15,2);not null;default:0" json:"sst_amount"`
	DiscountAmount  decimal.Decimal  `gorm:"type:decimal(15,2);not null;default:0" json:"discount_amount"`
	DiscountFixed   decimal.Decimal  `gorm:"type:decimal(15,2);default:0" json:"discount_fixed"`
	DiscountPercent *decimal.Decimal `gorm:"type:decimal(5,2)" json:"discount_percent"`
	VoucherCode     string           `gorm:"size:64" json:"voucher_code"`
	VoucherAmount   decimal.Decimal  `gorm:"type:decimal(15,2);default:0" json:"voucher_amount"`
	TotalAmount     decimal.Decimal  `gorm:"type:decimal(15,2);not null;default:0" json:"total_amount"`

	Status     InvoiceStatus   `gorm:"size:32;default:draft" json:"status"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"paid_amount"`

	InternalNotes string `gorm:"type:text" json:"internal_notes"`
	CustomerNotes string `gorm:"type:text" json:"customer_notes"`

	ShareToken       *string    `gorm:"size:64;uniqueIndex" json:"share_token"`
	ShareEnabled     bool       `gorm:"default:false" json:"share_enabled"`
	ShareExpiresAt   *time.Time `json:"share_expires_at"`
	ShareAccessCount int        `gorm:"default:0" json:"share_access_count"`

	// LinkedOldInvoice references the legacy record this invoice was
	// migrated from, when applicable.
	LinkedOldInvoice string `gorm:"size:64" json:"linked_old_invoice"`

	CreatedBy string     `gorm:"size:64" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	SentAt    *time.Time `json:"sent_at"`
	ViewedAt  *time.Time `json:"viewed_at"`
	PaidAt    *time.Time `json:"paid_at"`

	Items    []InvoiceItem    `gorm:"foreignKey:InvoiceRef;references:InvoiceId" json:"items"`
	Payments []InvoicePayment `gorm:"foreignKey:InvoiceRef;references:InvoiceId" json:"payments"`
}

type InvoiceItem struct {
	ID         int    `gorm:"primary_key" json:"id"`
	ItemId     string `gorm:"size:64;uniqueIndex;not null" json:"item_id"`
	InvoiceRef string `gorm:"size:64;index;not null" json:"invoice_id"`

	ProductId           string `gorm:"size:64" json:"product_id"`
	ProductNameSnapshot string `gorm:"size:255" json:"product_name_snapshot"`

	Description     string          `gorm:"type:text;not null" json:"description"`
	Qty             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"qty"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"unit_price"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"discount_percent"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_price"`

	ItemKind  ItemKind `gorm:"size:32;default:package" json:"item_type"`
	SortOrder int      `gorm:"default:0" json:"sort_order"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NewInvoiceOnTheFly is the quick-creation input: one package plus free-form
// adjustments, producing a complete shareable invoice in one call.
type NewInvoiceOnTheFly struct {
	PackageId       string          `json:"package_id" binding:"required"`
	DiscountGiven   string          `json:"discount_given"`
	ApplySst        *bool           `json:"apply_sst"`
	TemplateId      string          `json:"template_id"`
	VoucherCode     string          `json:"voucher_code"`
	AgentMarkup     decimal.Decimal `json:"agent_markup"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerAddress string          `json:"customer_address"`
	EppFeeAmount    decimal.Decimal `json:"epp_fee_amount"`
	EppFeeDesc      string          `json:"epp_fee_description"`
}

type NewInvoice struct {
	CustomerId              *int             `json:"customer_id"`
	TemplateId              string           `json:"template_id"`
	AgentId                 string           `json:"agent_id"`
	PackageId               string           `json:"package_id"`
	InvoiceNumber           string           `json:"invoice_number"`
	InvoiceDate             *time.Time       `json:"invoice_date"`
	DueDate                 *time.Time       `json:"due_date"`
	DiscountPercent         *decimal.Decimal `json:"discount_percent"`
	VoucherCode             string           `json:"voucher_code"`
	Items                   []NewInvoiceItem `json:"items"`
	InternalNotes           string           `json:"internal_notes"`
	CustomerNotes           string           `json:"customer_notes"`
	CustomerNameSnapshot    string           `json:"customer_name_snapshot" binding:"required"`
	CustomerAddressSnapshot string           `json:"customer_address_snapshot"`
	CustomerPhoneSnapshot   string           `json:"customer_phone_snapshot"`
	CustomerEmailSnapshot   string           `json:"customer_email_snapshot"`
	AgentNameSnapshot       string           `json:"agent_name_snapshot"`
	PackageNameSnapshot     string           `json:"package_name_snapshot"`
	LinkedOldInvoice        string           `json:"linked_old_invoice"`
}

type NewInvoiceItem struct {
	ProductId           string          `json:"product_id"`
	ProductNameSnapshot string          `json:"product_name_snapshot"`
	Description         string          `json:"description" binding:"required"`
	Qty                 decimal.Decimal `json:"qty" binding:"required"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	DiscountPercent     decimal.Decimal `json:"discount_percent"`
	SortOrder           int             `json:"sort_order"`
}

/* ledger helpers (pure; the grand total always derives from the literal
   signed sum so reporting bugs cannot diverge from the customer total) */

func invoiceSubtotal(items []InvoiceItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	return subtotal
}

// amountByKind sums |total_price| of one kind. Reporting only; never an
// input to the grand total.
func amountByKind(items []InvoiceItem, kind ItemKind) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.ItemKind == kind {
			total = total.Add(item.TotalPrice.Abs())
		}
	}
	return total
}

// calculateInvoiceTotals re-derives subtotal, SST and total from the item
// ledger. Discount/voucher items are already negative inside the subtotal;
// SST is applied after discounts and never goes negative.
func calculateInvoiceTotals(invoice *Invoice, items []InvoiceItem) {
	subtotal := invoiceSubtotal(items)
	invoice.Subtotal = subtotal

	invoice.DiscountAmount = amountByKind(items, ItemKindDiscount)
	invoice.VoucherAmount = amountByKind(items, ItemKindVoucher)

	taxableAmount := subtotal
	if taxableAmount.GreaterThan(decimal.Zero) {
		invoice.SstAmount = utils.ApplyPercentage(taxableAmount, invoice.SstRate)
	} else {
		invoice.SstAmount = decimal.Zero
	}

	invoice.TotalAmount = taxableAmount.Add(invoice.SstAmount)
}

func validateItemSigns(items []InvoiceItem) error {
	for _, item := range items {
		if item.ItemKind.NegativeSigned() {
			if item.TotalPrice.GreaterThan(decimal.Zero) {
				return fmt.Errorf("%w: %s item must not be positive", utils.ErrorValidation, item.ItemKind)
			}
		} else if item.TotalPrice.LessThan(decimal.Zero) {
			return fmt.Errorf("%w: %s item must not be negative", utils.ErrorValidation, item.ItemKind)
		}
	}
	return nil
}

/* builder */

// CreateInvoiceOnTheFly builds a complete invoice from a package id plus
// free-form adjustments: package item (markup folded in), up to two discount
// items, voucher item, optional financing-fee item; then totals, numbering,
// share link and audit snapshot, all in one transaction.
func CreateInvoiceOnTheFly(ctx context.Context, input *NewInvoiceOnTheFly) (*Invoice, error) {
	db := config.GetDB()

	pkg, err := GetPackage(ctx, input.PackageId)
	if err != nil {
		return nil, err
	}

	discountFixed, discountPercent := utils.ParseDiscountSpec(input.DiscountGiven)

	createdBy, _ := utils.GetUserIdFromContext(ctx)

	tx := db.Begin()
	// IMPORTANT: always rollback on early-return or panic to avoid leaking
	// DB locks.
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	// Customer: resolve or create by name; no name means a sample quotation
	// with whatever contact details were supplied.
	var customerId *int
	custNameSnapshot := "Sample Quotation"
	custPhoneSnapshot := input.CustomerPhone
	custAddressSnapshot := input.CustomerAddress
	custEmailSnapshot := ""
	if input.CustomerName != "" {
		customer, cerr := findOrCreateCustomer(ctx, tx, input.CustomerName, input.CustomerPhone, input.CustomerAddress, createdBy)
		if cerr != nil {
			return nil, cerr
		}
		customerId = &customer.ID
		custNameSnapshot = customer.Name
		custPhoneSnapshot = customer.Phone
		custAddressSnapshot = customer.Address
		custEmailSnapshot = customer.Email
	}

	// Voucher: unknown or inactive codes do not abort creation, they simply
	// contribute nothing. The explicit validation endpoint is the place
	// where a bad code surfaces as an error.
	voucherAmount := decimal.Zero
	if input.VoucherCode != "" {
		voucher, verr := findActiveVoucher(ctx, tx, input.VoucherCode)
		if verr == nil {
			voucherAmount = voucher.ResolvedAmount(pkg.Price)
		} else if !errors.Is(verr, utils.ErrorRecordNotFound) {
			return nil, verr
		}
	}

	// Tax policy: the caller can switch SST off entirely; otherwise the
	// template (or the system default template) decides.
	sstRate := decimal.Zero
	if input.ApplySst == nil || *input.ApplySst {
		sstRate, err = resolveTaxRate(ctx, tx, input.TemplateId, config.DefaultSstRate())
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	shareToken := utils.GenerateShareToken()
	shareExpiry := now.AddDate(0, 0, config.ShareLinkExpiryDays())

	invoice := Invoice{
		InvoiceId:               "inv_" + utils.RandomHex(8),
		InvoiceDate:             now,
		CustomerId:              customerId,
		CustomerNameSnapshot:    custNameSnapshot,
		CustomerPhoneSnapshot:   custPhoneSnapshot,
		CustomerAddressSnapshot: custAddressSnapshot,
		CustomerEmailSnapshot:   custEmailSnapshot,
		PackageId:               pkg.PackageId,
		PackageNameSnapshot:     pkg.InvoiceDescription(),
		TemplateId:              input.TemplateId,
		DiscountFixed:           discountFixed,
		AgentMarkup:             input.AgentMarkup,
		VoucherCode:             input.VoucherCode,
		VoucherAmount:           voucherAmount,
		SstRate:                 sstRate,
		Status:                  InvoiceStatusDraft,
		CreatedBy:               createdBy,
		ShareToken:              &shareToken,
		ShareEnabled:            true,
		ShareExpiresAt:          &shareExpiry,
	}
	if discountPercent.GreaterThan(decimal.Zero) {
		invoice.DiscountPercent = &discountPercent
	}

	items := assembleLedger(pkg, input, discountFixed, discountPercent, voucherAmount)
	if err := validateItemSigns(items); err != nil {
		return nil, err
	}

	calculateInvoiceTotals(&invoice, items)

	invoiceNumber, err := nextInvoiceNumber(ctx, tx)
	if err != nil {
		return nil, err
	}
	invoice.InvoiceNumber = invoiceNumber
	invoice.Items = items

	if err := createInvoiceWithNumberRetry(ctx, tx, &invoice); err != nil {
		return nil, err
	}

	if err := createAuditLog(ctx, tx, "invoice", invoice.InvoiceId, AuditActionCreateOnTheFly, nil, &invoice); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// assembleLedger builds the ordered item list for an on-the-fly invoice.
// Sort positions: package 0, discounts from 100, voucher 101, EPP fee 200.
func assembleLedger(pkg *Package, input *NewInvoiceOnTheFly, discountFixed decimal.Decimal, discountPercent decimal.Decimal, voucherAmount decimal.Decimal) []InvoiceItem {
	items := make([]InvoiceItem, 0, 5)

	// The agent markup rides inside the package item's unit price. It is
	// not a line of its own: the invoiced party must not see it.
	unitPrice := pkg.Price.Add(input.AgentMarkup)
	items = append(items, InvoiceItem{
		ItemId:      "item_" + utils.RandomHex(8),
		Description: pkg.InvoiceDescription(),
		Qty:         decimal.NewFromInt(1),
		UnitPrice:   unitPrice,
		TotalPrice:  unitPrice,
		ItemKind:    ItemKindPackage,
		SortOrder:   0,
	})

	sortOrder := 100
	if discountFixed.GreaterThan(decimal.Zero) {
		items = append(items, InvoiceItem{
			ItemId:      "item_" + utils.RandomHex(8),
			Description: fmt.Sprintf("Discount (RM %s)", discountFixed.String()),
			Qty:         decimal.NewFromInt(1),
			UnitPrice:   utils.Negate(discountFixed),
			TotalPrice:  utils.Negate(discountFixed),
			ItemKind:    ItemKindDiscount,
			SortOrder:   sortOrder,
		})
		sortOrder++
	}

	if discountPercent.GreaterThan(decimal.Zero) {
		// Percent discount is computed against the package base price, not
		// price+markup and not the discounted remainder.
		percentAmount := utils.ApplyPercentage(pkg.Price, discountPercent)
		items = append(items, InvoiceItem{
			ItemId:      "item_" + utils.RandomHex(8),
			Description: fmt.Sprintf("Discount (%s%%)", discountPercent.String()),
			Qty:         decimal.NewFromInt(1),
			UnitPrice:   utils.Negate(percentAmount),
			TotalPrice:  utils.Negate(percentAmount),
			ItemKind:    ItemKindDiscount,
			SortOrder:   sortOrder,
		})
		sortOrder++
	}

	if input.VoucherCode != "" && voucherAmount.GreaterThan(decimal.Zero) {
		items = append(items, InvoiceItem{
			ItemId:      "item_" + utils.RandomHex(8),
			Description: fmt.Sprintf("Voucher (%s)", input.VoucherCode),
			Qty:         decimal.NewFromInt(1),
			UnitPrice:   utils.Negate(voucherAmount),
			TotalPrice:  utils.Negate(voucherAmount),
			ItemKind:    ItemKindVoucher,
			SortOrder:   101,
		})
	}

	// EPP fee is the only positive-signed kind besides the package itself.
	// Both amount and description must be supplied.
	if input.EppFeeAmount.GreaterThan(decimal.Zero) && input.EppFeeDesc != "" {
		items = append(items, InvoiceItem{
			ItemId:      "item_" + utils.RandomHex(8),
			Description: fmt.Sprintf("Bank Processing Fee (%s)", input.EppFeeDesc),
			Qty:         decimal.NewFromInt(1),
			UnitPrice:   input.EppFeeAmount,
			TotalPrice:  input.EppFeeAmount,
			ItemKind:    ItemKindEppFee,
			SortOrder:   200,
		})
	}

	return items
}

// CreateInvoice is the classic creation path with explicit items.
func CreateInvoice(ctx context.Context, input *NewInvoice) (*Invoice, error) {
	db := config.GetDB()

	createdBy, _ := utils.GetUserIdFromContext(ctx)

	items := make([]InvoiceItem, 0, len(input.Items))
	for _, item := range input.Items {
		if !item.Qty.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: qty must be positive", utils.ErrorValidation)
		}
		items = append(items, InvoiceItem{
			ItemId:              "item_" + utils.RandomHex(8),
			ProductId:           item.ProductId,
			ProductNameSnapshot: item.ProductNameSnapshot,
			Description:         item.Description,
			Qty:                 item.Qty,
			UnitPrice:           item.UnitPrice,
			DiscountPercent:     item.DiscountPercent,
			TotalPrice:          utils.LineTotal(item.Qty, item.UnitPrice, item.DiscountPercent),
			ItemKind:            ItemKindLegacy,
			SortOrder:           item.SortOrder,
		})
	}

	invoiceDate := time.Now().UTC()
	if input.InvoiceDate != nil {
		invoiceDate = *input.InvoiceDate
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	sstRate, err := resolveTaxRate(ctx, tx, input.TemplateId, config.DefaultSstRate())
	if err != nil {
		return nil, err
	}

	invoice := Invoice{
		InvoiceId:               "inv_" + utils.RandomHex(8),
		TemplateId:              input.TemplateId,
		CustomerId:              input.CustomerId,
		CustomerNameSnapshot:    input.CustomerNameSnapshot,
		CustomerAddressSnapshot: input.CustomerAddressSnapshot,
		CustomerPhoneSnapshot:   input.CustomerPhoneSnapshot,
		CustomerEmailSnapshot:   input.CustomerEmailSnapshot,
		AgentId:                 input.AgentId,
		AgentNameSnapshot:       input.AgentNameSnapshot,
		PackageId:               input.PackageId,
		PackageNameSnapshot:     input.PackageNameSnapshot,
		InvoiceDate:             invoiceDate,
		DueDate:                 input.DueDate,
		DiscountPercent:         input.DiscountPercent,
		VoucherCode:             input.VoucherCode,
		SstRate:                 sstRate,
		Status:                  InvoiceStatusDraft,
		InternalNotes:           input.InternalNotes,
		CustomerNotes:           input.CustomerNotes,
		LinkedOldInvoice:        input.LinkedOldInvoice,
		CreatedBy:               createdBy,
		Items:                   items,
	}

	calculateInvoiceTotals(&invoice, items)

	if input.InvoiceNumber != "" {
		invoice.InvoiceNumber = input.InvoiceNumber
		if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
			return nil, err
		}
	} else {
		number, nerr := nextInvoiceNumber(ctx, tx)
		if nerr != nil {
			return nil, nerr
		}
		invoice.InvoiceNumber = number
		if err := createInvoiceWithNumberRetry(ctx, tx, &invoice); err != nil {
			return nil, err
		}
	}

	if err := createAuditLog(ctx, tx, "invoice", invoice.InvoiceId, AuditActionCreate, nil, &invoice); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

/* queries */

func GetInvoice(ctx context.Context, invoiceId string) (*Invoice, error) {
	db := config.GetDB()
	var invoice Invoice
	err := db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order, id")
	}).Preload("Payments").Where("invoice_id = ?", invoiceId).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func GetInvoiceByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error) {
	db := config.GetDB()
	var invoice Invoice
	err := db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order, id")
	}).Where("invoice_number = ?", invoiceNumber).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

type InvoiceFilter struct {
	Status     string
	CustomerId *int
	AgentId    string
	DateFrom   *time.Time
	DateTo     *time.Time
	Skip       int
	Limit      int
}

func ListInvoices(ctx context.Context, filter InvoiceFilter) ([]*Invoice, int64, error) {
	db := config.GetDB()

	query := db.WithContext(ctx).Model(&Invoice{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerId != nil {
		query = query.Where("customer_id = ?", *filter.CustomerId)
	}
	if filter.AgentId != "" {
		query = query.Where("agent_id = ?", filter.AgentId)
	}
	if filter.DateFrom != nil {
		query = query.Where("invoice_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("invoice_date <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	var invoices []*Invoice
	err := query.Order("invoice_date DESC, created_at DESC").
		Offset(filter.Skip).Limit(limit).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, id")
		}).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

/* mutations */

type UpdateInvoiceInput struct {
	DueDate       *time.Time     `json:"due_date"`
	InternalNotes *string        `json:"internal_notes"`
	CustomerNotes *string        `json:"customer_notes"`
	Status        *InvoiceStatus `json:"status"`
}

// UpdateInvoice patches mutable fields and re-derives totals. Overdue and
// cancelled are set here by operators; they are never derived from dates.
func UpdateInvoice(ctx context.Context, invoiceId string, input *UpdateInvoiceInput) (*Invoice, error) {
	db := config.GetDB()

	invoice, err := GetInvoice(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	before := *invoice

	if input.Status != nil && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status", utils.ErrorValidation)
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if input.DueDate != nil {
		invoice.DueDate = input.DueDate
	}
	if input.InternalNotes != nil {
		invoice.InternalNotes = *input.InternalNotes
	}
	if input.CustomerNotes != nil {
		invoice.CustomerNotes = *input.CustomerNotes
	}
	if input.Status != nil {
		invoice.Status = *input.Status
	}

	calculateInvoiceTotals(invoice, invoice.Items)

	if err := tx.WithContext(ctx).Omit("Items", "Payments").Save(invoice).Error; err != nil {
		return nil, err
	}
	if err := createAuditLog(ctx, tx, "invoice", invoice.InvoiceId, AuditActionUpdate, &before, invoice); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

// DeleteInvoice permanently removes an invoice with its items and payments.
// Deletion of paid invoices is allowed (legacy policy) but fully audited.
func DeleteInvoice(ctx context.Context, invoiceId string) error {
	db := config.GetDB()

	invoice, err := GetInvoice(ctx, invoiceId)
	if err != nil {
		return err
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Where("invoice_ref = ?", invoice.InvoiceId).Delete(&InvoiceItem{}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Where("invoice_ref = ?", invoice.InvoiceId).Delete(&InvoicePayment{}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Delete(&Invoice{}, invoice.ID).Error; err != nil {
		return err
	}
	if err := createAuditLog(ctx, tx, "invoice", invoice.InvoiceId, AuditActionDelete, invoice, nil); err != nil {
		return err
	}
	return tx.Commit().Error
}

/* item operations; every one re-derives totals inside its transaction */

func AddInvoiceItem(ctx context.Context, invoiceId string, input *NewInvoiceItem) (*InvoiceItem, error) {
	db := config.GetDB()

	if !input.Qty.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: qty must be positive", utils.ErrorValidation)
	}

	invoice, err := GetInvoice(ctx, invoiceId)
	if err != nil {
		return nil, err
	}

	item := InvoiceItem{
		ItemId:              "item_" + utils.RandomHex(8),
		InvoiceRef:          invoice.InvoiceId,
		ProductId:           input.ProductId,
		ProductNameSnapshot: input.ProductNameSnapshot,
		Description:         input.Description,
		Qty:                 input.Qty,
		UnitPrice:           input.UnitPrice,
		DiscountPercent:     input.DiscountPercent,
		TotalPrice:          utils.LineTotal(input.Qty, input.UnitPrice, input.DiscountPercent),
		ItemKind:            ItemKindLegacy,
		SortOrder:           input.SortOrder,
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	if err := recalculateAndSaveTotals(ctx, tx, invoice); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &item, nil
}

type UpdateInvoiceItemInput struct {
	Description     *string          `json:"description"`
	Qty             *decimal.Decimal `json:"qty"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	SortOrder       *int             `json:"sort_order"`
}

func UpdateInvoiceItem(ctx context.Context, itemId string, input *UpdateInvoiceItemInput) (*InvoiceItem, error) {
	db := config.GetDB()

	var item InvoiceItem
	if err := db.WithContext(ctx).Where("item_id = ?", itemId).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.Qty != nil {
		if !input.Qty.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("%w: qty must be positive", utils.ErrorValidation)
		}
		item.Qty = *input.Qty
	}
	if input.UnitPrice != nil {
		item.UnitPrice = *input.UnitPrice
	}
	if input.DiscountPercent != nil {
		item.DiscountPercent = *input.DiscountPercent
	}
	if input.SortOrder != nil {
		item.SortOrder = *input.SortOrder
	}
	item.TotalPrice = utils.LineTotal(item.Qty, item.UnitPrice, item.DiscountPercent)

	if err := validateItemSigns([]InvoiceItem{item}); err != nil {
		return nil, err
	}

	invoice, err := GetInvoice(ctx, item.InvoiceRef)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Save(&item).Error; err != nil {
		return nil, err
	}
	if err := recalculateAndSaveTotals(ctx, tx, invoice); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func DeleteInvoiceItem(ctx context.Context, itemId string) error {
	db := config.GetDB()

	var item InvoiceItem
	if err := db.WithContext(ctx).Where("item_id = ?", itemId).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		}
		return err
	}

	invoice, err := GetInvoice(ctx, item.InvoiceRef)
	if err != nil {
		return err
	}

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Delete(&InvoiceItem{}, item.ID).Error; err != nil {
		return err
	}
	if err := recalculateAndSaveTotals(ctx, tx, invoice); err != nil {
		return err
	}
	return tx.Commit().Error
}

// recalculateAndSaveTotals reloads the item ledger inside tx and persists
// the re-derived totals on the invoice row.
func recalculateAndSaveTotals(ctx context.Context, tx *gorm.DB, invoice *Invoice) error {
	var items []InvoiceItem
	if err := tx.WithContext(ctx).Where("invoice_ref = ?", invoice.InvoiceId).
		Order("sort_order, id").Find(&items).Error; err != nil {
		return err
	}
	calculateInvoiceTotals(invoice, items)
	return tx.WithContext(ctx).Model(&Invoice{}).Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"subtotal":        invoice.Subtotal,
			"discount_amount": invoice.DiscountAmount,
			"voucher_amount":  invoice.VoucherAmount,
			"sst_amount":      invoice.SstAmount,
			"total_amount":    invoice.TotalAmount,
		}).Error
}
