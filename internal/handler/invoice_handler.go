package handler

import (
	"net/http"

	"fbrtax/internal/middleware"
	"fbrtax/internal/service"
	"fbrtax/pkg/pagination"
	"fbrtax/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/fbr-invoices", middleware.RequireAuth())
	{
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.POST("", h.CreateInvoice)
		invoices.PUT("/:id", h.UpdateInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)

		invoices.GET("/:id/items", h.ListItems)
		invoices.POST("/:id/items", h.AddItem)
		invoices.DELETE("/:id/items/:itemID", h.RemoveItem)

		invoices.POST("/:id/calculate-totals", h.CalculateTotals)
		invoices.POST("/:id/submit-to-fbr", h.SubmitToFBR)
		invoices.GET("/:id/fbr-json", h.GetFBRJSON)
	}
}

// ListInvoices returns the caller's invoices, optionally filtered by status
// @Summary      List invoices
// @Tags         fbr-invoices
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status (draft, submitted, posted, error)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response
// @Router       /api/fbr-invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), ownerID, service.InvoiceFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, invoices, params.Page, params.Limit, total))
}

// GetInvoice returns one invoice by id
// @Summary      Get invoice
// @Tags         fbr-invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/fbr-invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// CreateInvoice creates a new draft invoice with seller/buyer snapshots
// @Summary      Create invoice
// @Tags         fbr-invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Invoice payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/fbr-invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// UpdateInvoice edits a draft invoice
// @Summary      Update invoice
// @Tags         fbr-invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.UpdateInvoiceRequest  true  "Invoice payload"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/fbr-invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), ownerID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DeleteInvoice removes a draft invoice and its items
// @Summary      Delete invoice
// @Tags         fbr-invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/fbr-invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Invoice deleted successfully"}))
}

// ListItems returns the invoice's line items in persisted order
// @Summary      List invoice items
// @Tags         fbr-invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=[]service.InvoiceItemResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/fbr-invoices/{id}/items [get]
func (h *InvoiceHandler) ListItems(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.invoiceService.ListItems(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// AddItem appends a line item and recomputes the invoice totals
// @Summary      Add invoice item
// @Tags         fbr-invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Invoice ID"
// @Param        payload  body      service.AddInvoiceItemRequest  true  "Item payload"
// @Success      201      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/fbr-invoices/{id}/items [post]
func (h *InvoiceHandler) AddItem(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.AddInvoiceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, totals, err := h.invoiceService.AddItem(c.Request.Context(), ownerID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{
		"item":   item,
		"totals": totals,
	}))
}

// RemoveItem deletes a line item and recomputes the invoice totals
// @Summary      Remove invoice item
// @Tags         fbr-invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true  "Invoice ID"
// @Param        itemID  path      string  true  "Item ID"
// @Success      200     {object}  response.Response{data=service.InvoiceTotals}
// @Failure      409     {object}  response.Response
// @Router       /api/fbr-invoices/{id}/items/{itemID} [delete]
func (h *InvoiceHandler) RemoveItem(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	totals, err := h.invoiceService.RemoveItem(c.Request.Context(), ownerID, c.Param("id"), c.Param("itemID"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, totals))
}

// CalculateTotals forces a recompute of the three invoice totals
// @Summary      Recalculate invoice totals
// @Tags         fbr-invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceTotals}
// @Failure      404  {object}  response.Response
// @Router       /api/fbr-invoices/{id}/calculate-totals [post]
func (h *InvoiceHandler) CalculateTotals(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	totals, err := h.invoiceService.CalculateTotals(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, totals))
}

// SubmitToFBR submits a draft invoice to the FBR API
// @Summary      Submit invoice to FBR
// @Tags         fbr-invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.SubmitResult}
// @Failure      409  {object}  response.Response
// @Router       /api/fbr-invoices/{id}/submit-to-fbr [post]
func (h *InvoiceHandler) SubmitToFBR(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.invoiceService.SubmitToFBR(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetFBRJSON builds the FBR compliance document for the invoice
// @Summary      Build FBR JSON document
// @Tags         fbr-invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  fbr.Document
// @Failure      404  {object}  response.Response
// @Router       /api/fbr-invoices/{id}/fbr-json [get]
func (h *InvoiceHandler) GetFBRJSON(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	doc, err := h.invoiceService.BuildFBRDocument(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	// The document is the external contract itself, so it is returned bare
	// rather than wrapped in the API envelope.
	c.JSON(http.StatusOK, doc)
}
