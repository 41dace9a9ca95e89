package models

import "testing"

func TestPackageInvoiceDescriptionFallback(t *testing.T) {
	p := Package{PackageId: "pkg_01", Name: "Starter", InvoiceDesc: "Starter Plan (12 months)"}
	if got := p.InvoiceDescription(); got != "Starter Plan (12 months)" {
		t.Errorf("description = %q", got)
	}

	p.InvoiceDesc = ""
	if got := p.InvoiceDescription(); got != "Starter" {
		t.Errorf("description = %q, want name fallback", got)
	}

	p.Name = ""
	if got := p.InvoiceDescription(); got != "Package pkg_01" {
		t.Errorf("description = %q, want synthesized label", got)
	}
}
