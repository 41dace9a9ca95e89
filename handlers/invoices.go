package handlers

import (
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/models"
	"bitbucket.org/mmdatafocus/invoicing_backend/workflow"
	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	WhatsApp *workflow.WhatsAppClient
}

func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var input models.NewInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	invoice, err := models.CreateInvoice(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func (h *InvoiceHandler) CreateInvoiceOnTheFly(c *gin.Context) {
	var input models.NewInvoiceOnTheFly
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	invoice, err := models.CreateInvoiceOnTheFly(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := models.GetInvoice(c.Request.Context(), c.Param("invoiceId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) GetInvoiceByNumber(c *gin.Context) {
	invoice, err := models.GetInvoiceByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	filter := models.InvoiceFilter{
		Status:  c.Query("status"),
		AgentId: c.Query("agent_id"),
	}
	if v := c.Query("customer_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id must be an integer"})
			return
		}
		filter.CustomerId = &id
	}
	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_from must be YYYY-MM-DD"})
			return
		}
		filter.DateFrom = &t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_to must be YYYY-MM-DD"})
			return
		}
		filter.DateTo = &t
	}
	filter.Skip, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	invoices, total, err := models.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": invoices, "total": total})
}

func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	var input models.UpdateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	invoice, err := models.UpdateInvoice(c.Request.Context(), c.Param("invoiceId"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	if err := models.DeleteInvoice(c.Request.Context(), c.Param("invoiceId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *InvoiceHandler) AddItem(c *gin.Context) {
	var input models.NewInvoiceItem
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := models.AddInvoiceItem(c.Request.Context(), c.Param("invoiceId"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *InvoiceHandler) UpdateItem(c *gin.Context) {
	var input models.UpdateInvoiceItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := models.UpdateInvoiceItem(c.Request.Context(), c.Param("itemId"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *InvoiceHandler) DeleteItem(c *gin.Context) {
	if err := models.DeleteInvoiceItem(c.Request.Context(), c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *InvoiceHandler) AddPayment(c *gin.Context) {
	var input models.NewPayment
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payment, err := models.AddPayment(c.Request.Context(), c.Param("invoiceId"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	payments, err := models.ListPayments(c.Request.Context(), c.Param("invoiceId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

type shareRequest struct {
	TtlDays int `json:"ttl_days"`
}

func (h *InvoiceHandler) GenerateShareLink(c *gin.Context) {
	var input shareRequest
	_ = c.ShouldBindJSON(&input)

	link, err := models.GenerateShareLink(c.Request.Context(), c.Param("invoiceId"), input.TtlDays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (h *InvoiceHandler) DisableShareLink(c *gin.Context) {
	if err := models.DisableShareLink(c.Request.Context(), c.Param("invoiceId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disabled": true})
}

// SendInvoice marks the invoice sent and, when a customer phone is on file
// and the gateway is configured, shares the view link over WhatsApp.
func (h *InvoiceHandler) SendInvoice(c *gin.Context) {
	ctx := c.Request.Context()

	invoice, err := models.MarkInvoiceSent(ctx, c.Param("invoiceId"))
	if err != nil {
		respondError(c, err)
		return
	}

	notified := false
	if h.WhatsApp != nil && invoice.CustomerPhoneSnapshot != "" {
		link, lerr := models.GenerateShareLink(ctx, invoice.InvoiceId, 0)
		if lerr == nil {
			if serr := h.WhatsApp.SendInvoiceNotification(ctx, invoice.CustomerPhoneSnapshot, invoice.InvoiceNumber, link.Url); serr == nil {
				notified = true
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice, "notified": notified})
}

func (h *InvoiceHandler) ValidateVoucher(c *gin.Context) {
	result, err := models.ValidateVoucher(c.Request.Context(), c.Param("code"), c.Query("package_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
