package handler

import (
	"net/http"

	"invoicehub/internal/service"
	"invoicehub/pkg/pagination"
	"invoicehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type ClientHandler struct {
	clientService  service.ClientService
	invoiceService service.InvoiceService
}

func NewClientHandler(clientService service.ClientService, invoiceService service.InvoiceService) *ClientHandler {
	return &ClientHandler{clientService: clientService, invoiceService: invoiceService}
}

func (h *ClientHandler) RegisterRoutes(router *gin.RouterGroup) {
	clients := router.Group("/clients")
	{
		clients.GET("", h.ListClients)
		clients.POST("", h.CreateClient)
		clients.GET("/:id", h.GetClient)
		clients.PUT("/:id", h.UpdateClient)
		clients.DELETE("/:id", h.ArchiveClient)
		clients.POST("/:id/restore", h.RestoreClient)
		clients.GET("/:id/invoices", h.ListClientInvoices)
	}
}

// ListClients returns a paginated list of clients
// @Summary      List clients
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Search by name, email or company"
// @Param        status  query     string  false  "active or archived"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=[]service.ClientResponse,meta=pagination.Meta}
// @Router       /api/clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	clients, total, err := h.clientService.ListClients(c.Request.Context(), ownerID, c.Query("search"), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, clients, p.NewMeta(total)))
}

// CreateClient creates a client
// @Summary      Create client
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateClientRequest  true  "Client"
// @Success      201      {object}  response.Response{data=service.ClientResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req service.CreateClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), ownerID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, client))
}

// GetClient returns a client with figures recomputed from its invoices
// @Summary      Get client
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  response.Response{data=service.ClientDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/clients/{id} [get]
func (h *ClientHandler) GetClient(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	client, err := h.clientService.GetClient(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

// UpdateClient applies a partial update
// @Summary      Update client
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Client ID"
// @Param        payload  body      service.UpdateClientRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.ClientResponse}
// @Router       /api/clients/{id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req service.UpdateClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), ownerID, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

// ArchiveClient hides a client from new invoices. Existing invoices are kept.
// @Summary      Archive client
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  response.Response{data=service.ClientResponse}
// @Router       /api/clients/{id} [delete]
func (h *ClientHandler) ArchiveClient(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	client, err := h.clientService.ArchiveClient(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

// RestoreClient reactivates an archived client
// @Summary      Restore client
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  response.Response{data=service.ClientResponse}
// @Router       /api/clients/{id}/restore [post]
func (h *ClientHandler) RestoreClient(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	client, err := h.clientService.RestoreClient(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

// ListClientInvoices lists one client's invoices
// @Summary      List client invoices
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true   "Client ID"
// @Param        status  query     string  false  "Effective status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=[]service.InvoiceResponse,meta=pagination.Meta}
// @Router       /api/clients/{id}/invoices [get]
func (h *ClientHandler) ListClientInvoices(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), ownerID, service.InvoiceFilter{
		ClientID: c.Param("id"),
		Status:   c.Query("status"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, invoices, p.NewMeta(total)))
}
