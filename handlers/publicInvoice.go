package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/invoicing_backend/models"
	"bitbucket.org/mmdatafocus/invoicing_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PublicInvoiceHandler serves the unauthenticated share-link surface. It
// never exposes internal notes, markup or audit data.
type PublicInvoiceHandler struct {
	EditAccess *workflow.EditAccessWorkflow
}

type publicInvoiceItem struct {
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type publicInvoiceView struct {
	InvoiceNumber   string              `json:"invoice_number"`
	InvoiceDate     string              `json:"invoice_date"`
	DueDate         string              `json:"due_date,omitempty"`
	CustomerName    string              `json:"customer_name"`
	CustomerAddress string              `json:"customer_address,omitempty"`
	Items           []publicInvoiceItem `json:"items"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	SstRate         decimal.Decimal     `json:"sst_rate"`
	SstAmount       decimal.Decimal     `json:"sst_amount"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	PaidAmount      decimal.Decimal     `json:"paid_amount"`
	Status          string              `json:"status"`
	CustomerNotes   string              `json:"customer_notes,omitempty"`
}

func toPublicView(invoice *models.Invoice) publicInvoiceView {
	view := publicInvoiceView{
		InvoiceNumber:   invoice.InvoiceNumber,
		InvoiceDate:     invoice.InvoiceDate.Format("2006-01-02"),
		CustomerName:    invoice.CustomerNameSnapshot,
		CustomerAddress: invoice.CustomerAddressSnapshot,
		Subtotal:        invoice.Subtotal,
		SstRate:         invoice.SstRate,
		SstAmount:       invoice.SstAmount,
		TotalAmount:     invoice.TotalAmount,
		PaidAmount:      invoice.PaidAmount,
		Status:          string(invoice.Status),
		CustomerNotes:   invoice.CustomerNotes,
	}
	if invoice.DueDate != nil {
		view.DueDate = invoice.DueDate.Format("2006-01-02")
	}
	for _, item := range invoice.Items {
		view.Items = append(view.Items, publicInvoiceItem{
			Description: item.Description,
			Qty:         item.Qty,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return view
}

// ViewInvoice resolves a share token and records the view. Disabled,
// expired and unknown tokens all come back as the same 404.
func (h *PublicInvoiceHandler) ViewInvoice(c *gin.Context) {
	ctx := c.Request.Context()

	invoice, err := models.GetInvoiceByShareToken(ctx, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := models.RecordShareView(ctx, invoice); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPublicView(invoice))
}

type editAccessRequest struct {
	Phone string `json:"phone" binding:"required"`
}

func (h *PublicInvoiceHandler) RequestEditAccess(c *gin.Context) {
	var input editAccessRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.EditAccess.RequestEditAccess(c.Request.Context(), c.Param("token"), input.Phone); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

type editVerifyRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

func (h *PublicInvoiceHandler) VerifyEditAccess(c *gin.Context) {
	var input editVerifyRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	grant, err := h.EditAccess.VerifyEditAccess(c.Request.Context(), c.Param("token"), input.Phone, input.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": grant, "token_type": "bearer", "scope": "invoice_edit"})
}
