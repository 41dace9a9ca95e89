package models

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testPackage(price string) *Package {
	return &Package{PackageId: "pkg_test", Name: "Starter Plan", Price: dec(price)}
}

func TestAssembleLedgerFullDiscounts(t *testing.T) {
	pkg := testPackage("1000")
	input := &NewInvoiceOnTheFly{PackageId: pkg.PackageId, DiscountGiven: "500 10%"}

	items := assembleLedger(pkg, input, dec("500"), dec("10"), decimal.Zero)
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}

	if !items[0].TotalPrice.Equal(dec("1000")) || items[0].ItemKind != ItemKindPackage {
		t.Errorf("package item = %s %s", items[0].TotalPrice, items[0].ItemKind)
	}
	if !items[1].TotalPrice.Equal(dec("-500")) || items[1].ItemKind != ItemKindDiscount {
		t.Errorf("fixed discount item = %s %s", items[1].TotalPrice, items[1].ItemKind)
	}
	// Percent discount applies to the package base price, not the remainder.
	if !items[2].TotalPrice.Equal(dec("-100")) || items[2].ItemKind != ItemKindDiscount {
		t.Errorf("percent discount item = %s %s", items[2].TotalPrice, items[2].ItemKind)
	}

	invoice := Invoice{SstRate: dec("8")}
	calculateInvoiceTotals(&invoice, items)
	if !invoice.Subtotal.Equal(dec("400")) {
		t.Errorf("subtotal = %s, want 400", invoice.Subtotal)
	}
	if !invoice.SstAmount.Equal(dec("32")) {
		t.Errorf("sst = %s, want 32", invoice.SstAmount)
	}
	if !invoice.TotalAmount.Equal(dec("432")) {
		t.Errorf("total = %s, want 432", invoice.TotalAmount)
	}
	if !invoice.DiscountAmount.Equal(dec("600")) {
		t.Errorf("discount amount = %s, want 600", invoice.DiscountAmount)
	}
}

func TestAssembleLedgerMarkupFoldedIntoPackagePrice(t *testing.T) {
	pkg := testPackage("1000")
	input := &NewInvoiceOnTheFly{PackageId: pkg.PackageId, AgentMarkup: dec("200")}

	items := assembleLedger(pkg, input, decimal.Zero, decimal.Zero, decimal.Zero)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if !items[0].UnitPrice.Equal(dec("1200")) {
		t.Errorf("unit price = %s, want 1200", items[0].UnitPrice)
	}
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Description), "markup") {
			t.Error("markup must not surface as a visible line")
		}
	}
}

func TestAssembleLedgerPercentDiscountIgnoresMarkup(t *testing.T) {
	pkg := testPackage("1000")
	input := &NewInvoiceOnTheFly{PackageId: pkg.PackageId, AgentMarkup: dec("200")}

	items := assembleLedger(pkg, input, decimal.Zero, dec("10"), decimal.Zero)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	// 10% of the 1000 base, not of the marked-up 1200.
	if !items[1].TotalPrice.Equal(dec("-100")) {
		t.Errorf("percent discount = %s, want -100", items[1].TotalPrice)
	}
}

func TestAssembleLedgerVoucherItem(t *testing.T) {
	pkg := testPackage("1000")
	input := &NewInvoiceOnTheFly{PackageId: pkg.PackageId, VoucherCode: "SAVE50"}

	items := assembleLedger(pkg, input, decimal.Zero, decimal.Zero, dec("50"))
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[1].ItemKind != ItemKindVoucher || !items[1].TotalPrice.Equal(dec("-50")) {
		t.Errorf("voucher item = %s %s", items[1].TotalPrice, items[1].ItemKind)
	}
}

func TestAssembleLedgerEppFeeRequiresAmountAndDescription(t *testing.T) {
	pkg := testPackage("1000")

	items := assembleLedger(pkg, &NewInvoiceOnTheFly{EppFeeAmount: dec("30")}, decimal.Zero, decimal.Zero, decimal.Zero)
	if len(items) != 1 {
		t.Fatal("epp fee without description must be skipped")
	}

	items = assembleLedger(pkg, &NewInvoiceOnTheFly{EppFeeDesc: "Maybank 12mo"}, decimal.Zero, decimal.Zero, decimal.Zero)
	if len(items) != 1 {
		t.Fatal("epp fee without amount must be skipped")
	}

	items = assembleLedger(pkg, &NewInvoiceOnTheFly{EppFeeAmount: dec("30"), EppFeeDesc: "Maybank 12mo"}, decimal.Zero, decimal.Zero, decimal.Zero)
	if len(items) != 2 {
		t.Fatal("epp fee with amount and description must be present")
	}
	fee := items[1]
	if fee.ItemKind != ItemKindEppFee || !fee.TotalPrice.Equal(dec("30")) {
		t.Errorf("epp fee item = %s %s", fee.TotalPrice, fee.ItemKind)
	}
	if fee.Description != "Bank Processing Fee (Maybank 12mo)" {
		t.Errorf("epp fee description = %q", fee.Description)
	}
	if fee.SortOrder != 200 {
		t.Errorf("epp fee sort order = %d, want 200", fee.SortOrder)
	}
}

func TestCalculateInvoiceTotalsZeroTaxOnNonPositiveSubtotal(t *testing.T) {
	items := []InvoiceItem{
		{TotalPrice: dec("100"), ItemKind: ItemKindPackage},
		{TotalPrice: dec("-150"), ItemKind: ItemKindDiscount},
	}
	invoice := Invoice{SstRate: dec("8")}
	calculateInvoiceTotals(&invoice, items)

	if !invoice.SstAmount.IsZero() {
		t.Errorf("sst on negative subtotal = %s, want 0", invoice.SstAmount)
	}
	if !invoice.TotalAmount.Equal(dec("-50")) {
		t.Errorf("total = %s, want -50", invoice.TotalAmount)
	}
}

func TestCalculateInvoiceTotalsGrandTotalIsSignedSum(t *testing.T) {
	items := []InvoiceItem{
		{TotalPrice: dec("1000"), ItemKind: ItemKindPackage},
		{TotalPrice: dec("-100"), ItemKind: ItemKindDiscount},
		{TotalPrice: dec("-50"), ItemKind: ItemKindVoucher},
		{TotalPrice: dec("30"), ItemKind: ItemKindEppFee},
	}
	invoice := Invoice{SstRate: decimal.Zero}
	calculateInvoiceTotals(&invoice, items)

	if !invoice.Subtotal.Equal(dec("880")) {
		t.Errorf("subtotal = %s, want 880", invoice.Subtotal)
	}
	if !invoice.TotalAmount.Equal(dec("880")) {
		t.Errorf("total = %s, want 880", invoice.TotalAmount)
	}
	if !invoice.DiscountAmount.Equal(dec("100")) {
		t.Errorf("discount amount = %s, want 100", invoice.DiscountAmount)
	}
	if !invoice.VoucherAmount.Equal(dec("50")) {
		t.Errorf("voucher amount = %s, want 50", invoice.VoucherAmount)
	}
}

func TestValidateItemSigns(t *testing.T) {
	good := []InvoiceItem{
		{TotalPrice: dec("100"), ItemKind: ItemKindPackage},
		{TotalPrice: dec("-10"), ItemKind: ItemKindDiscount},
	}
	if err := validateItemSigns(good); err != nil {
		t.Fatalf("valid ledger rejected: %v", err)
	}

	bad := []InvoiceItem{{TotalPrice: dec("10"), ItemKind: ItemKindVoucher}}
	if err := validateItemSigns(bad); err == nil {
		t.Fatal("positive voucher item accepted")
	}

	bad = []InvoiceItem{{TotalPrice: dec("-10"), ItemKind: ItemKindEppFee}}
	if err := validateItemSigns(bad); err == nil {
		t.Fatal("negative fee item accepted")
	}
}
