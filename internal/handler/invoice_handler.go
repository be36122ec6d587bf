package handler

import (
	"bytes"
	"net/http"

	"invoicehub/internal/service"
	"invoicehub/pkg/pagination"
	"invoicehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	paymentService service.PaymentService
}

func NewInvoiceHandler(invoiceService service.InvoiceService, paymentService service.PaymentService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		paymentService: paymentService,
	}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/invoices")
	{
		invoices.GET("", h.ListInvoices)
		invoices.POST("", h.CreateInvoice)
		invoices.POST("/preview", h.PreviewTotals)
		invoices.GET("/:id", h.GetInvoice)
		invoices.PUT("/:id", h.UpdateInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)
		invoices.POST("/:id/send", h.SendInvoice)
		invoices.POST("/:id/mark-paid", h.MarkPaid)
		invoices.POST("/:id/cancel", h.CancelInvoice)
		invoices.POST("/:id/duplicate", h.DuplicateInvoice)
		invoices.GET("/:id/pdf", h.DownloadPDF)
		invoices.GET("/:id/payments", h.ListPayments)
		invoices.POST("/:id/payments", h.RecordPayment)
		invoices.DELETE("/:id/payments/:paymentId", h.DeletePayment)
	}
}

// ListInvoices returns a paginated list of invoices
// @Summary      List invoices
// @Description  Status filters on the effective status, so overdue is accepted
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        status     query     string  false  "draft, pending, paid, overdue or cancelled"
// @Param        client_id  query     string  false  "Client ID"
// @Param        search     query     string  false  "Search number or notes"
// @Param        from       query     string  false  "Issued on or after (YYYY-MM-DD)"
// @Param        to         query     string  false  "Issued on or before (YYYY-MM-DD)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]service.InvoiceResponse,meta=pagination.Meta}
// @Failure      400        {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	filter := service.InvoiceFilter{
		Status:   c.Query("status"),
		ClientID: c.Query("client_id"),
		Search:   c.Query("search"),
		From:     c.Query("from"),
		To:       c.Query("to"),
		Page:     p.Page,
		Limit:    p.Limit,
	}
	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), ownerID, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, invoices, p.NewMeta(total)))
}

// CreateInvoice creates a draft invoice
// @Summary      Create invoice
// @Description  Totals are computed server-side. A blank number is generated as INV-YYYYMMDD-NNNNN.
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Invoice"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req service.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), ownerID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// PreviewTotals computes totals for an unsaved form
// @Summary      Preview totals
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PreviewTotalsRequest  true  "Items and tax"
// @Success      200      {object}  response.Response{data=service.TotalsPreviewResponse}
// @Router       /api/invoices/preview [post]
func (h *InvoiceHandler) PreviewTotals(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req service.PreviewTotalsRequest
	if !bindJSON(c, &req) {
		return
	}

	preview, err := h.invoiceService.PreviewTotals(c.Request.Context(), ownerID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, preview))
}

// GetInvoice returns an invoice with items and payments
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// UpdateInvoice edits a draft or pending invoice
// @Summary      Update invoice
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.UpdateInvoiceRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req service.UpdateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), ownerID, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DeleteInvoice removes a draft
// @Summary      Delete draft invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Invoice deleted successfully"}))
}

// SendInvoice moves a draft to pending
// @Summary      Send invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/invoices/{id}/send [post]
func (h *InvoiceHandler) SendInvoice(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	invoice, err := h.invoiceService.SendInvoice(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// MarkPaid settles a pending invoice
// @Summary      Mark invoice paid
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true   "Invoice ID"
// @Param        payload  body      service.MarkPaidRequest  false  "Settlement details"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/invoices/{id}/mark-paid [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req service.MarkPaidRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.MarkPaid(c.Request.Context(), ownerID, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// CancelInvoice voids a draft or pending invoice
// @Summary      Cancel invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/invoices/{id}/cancel [post]
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DuplicateInvoice copies an invoice into a new draft
// @Summary      Duplicate invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      201  {object}  response.Response{data=service.InvoiceResponse}
// @Router       /api/invoices/{id}/duplicate [post]
func (h *InvoiceHandler) DuplicateInvoice(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	invoice, err := h.invoiceService.DuplicateInvoice(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// DownloadPDF renders the invoice as a PDF attachment
// @Summary      Download invoice PDF
// @Tags         invoices
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	name, err := h.invoiceService.RenderPDF(c.Request.Context(), ownerID, c.Param("id"), &buf)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// ListPayments lists payments recorded on an invoice
// @Summary      List payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=[]service.PaymentResponse}
// @Router       /api/invoices/{id}/payments [get]
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	payments, err := h.paymentService.ListPayments(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}

// RecordPayment books a payment; the invoice becomes paid when the balance reaches zero
// @Summary      Record payment
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.RecordPaymentRequest  true  "Payment"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req service.RecordPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.paymentService.RecordPayment(c.Request.Context(), ownerID, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// DeletePayment removes a payment from an unpaid invoice
// @Summary      Delete payment
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id         path      string  true  "Invoice ID"
// @Param        paymentId  path      string  true  "Payment ID"
// @Success      200        {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409        {object}  response.Response
// @Router       /api/invoices/{id}/payments/{paymentId} [delete]
func (h *InvoiceHandler) DeletePayment(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	invoice, err := h.paymentService.DeletePayment(c.Request.Context(), ownerID, c.Param("id"), c.Param("paymentId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}
