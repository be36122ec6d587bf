package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"invoicehub/internal/billing"
	"invoicehub/internal/service"
	"invoicehub/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	statsService  service.ClientStatsService
}

func NewReportHandler(reportService service.ReportService, statsService service.ClientStatsService) *ReportHandler {
	return &ReportHandler{reportService: reportService, statsService: statsService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	{
		reports.GET("", h.GetReport)
		reports.GET("/summary", h.GetSummary)
		reports.GET("/revenue", h.GetRevenue)
		reports.GET("/status", h.GetStatusDistribution)
		reports.GET("/clients", h.GetTopClients)
		reports.GET("/export.csv", h.ExportCSV)
		reports.POST("/rebuild-client-stats", h.RebuildClientStats)
	}
}

// queryInt reads an optional integer query parameter; 0 means use the default.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(c, &billing.ValidationError{Field: name, Message: "must be a whole number"})
		return 0, false
	}
	return v, true
}

func (h *ReportHandler) options(c *gin.Context) (billing.ReportOptions, bool) {
	months, ok := queryInt(c, "months")
	if !ok {
		return billing.ReportOptions{}, false
	}
	top, ok := queryInt(c, "limit")
	if !ok {
		return billing.ReportOptions{}, false
	}
	return billing.ReportOptions{Months: months, TopClients: top}, true
}

// GetReport returns every dashboard figure computed at the same instant
// @Summary      Full report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        months  query     int  false  "Revenue window in months (default 12)"
// @Param        limit   query     int  false  "Number of top clients (default 5)"
// @Success      200     {object}  response.Response{data=billing.Report}
// @Router       /api/reports [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	opts, ok := h.options(c)
	if !ok {
		return
	}
	report, err := h.reportService.GetReport(c.Request.Context(), ownerID, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// GetSummary returns invoiced, paid, outstanding and overdue totals
// @Summary      Summary
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=billing.Summary}
// @Router       /api/reports/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	summary, err := h.reportService.Summary(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// GetRevenue returns paid revenue per issue month
// @Summary      Monthly revenue
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        months  query     int  false  "Window size in months (default 12)"
// @Success      200     {object}  response.Response{data=[]billing.MonthlyRevenue}
// @Router       /api/reports/revenue [get]
func (h *ReportHandler) GetRevenue(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	months, ok := queryInt(c, "months")
	if !ok {
		return
	}
	revenue, err := h.reportService.RevenueByMonth(c.Request.Context(), ownerID, months)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, revenue))
}

// GetStatusDistribution returns invoice counts per effective status
// @Summary      Status distribution
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]billing.StatusShare}
// @Router       /api/reports/status [get]
func (h *ReportHandler) GetStatusDistribution(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	shares, err := h.reportService.StatusDistribution(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, shares))
}

// GetTopClients returns per-client rollups ordered by total
// @Summary      Top clients
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query     int  false  "Number of clients (default 5)"
// @Success      200    {object}  response.Response{data=[]billing.ClientRollup}
// @Router       /api/reports/clients [get]
func (h *ReportHandler) GetTopClients(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	clients, err := h.reportService.TopClients(c.Request.Context(), ownerID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, clients))
}

// ExportCSV downloads the report as CSV
// @Summary      Export report
// @Tags         reports
// @Security     BearerAuth
// @Produce      text/csv
// @Param        months  query     int  false  "Revenue window in months (default 12)"
// @Param        limit   query     int  false  "Number of top clients (default 5)"
// @Success      200     {file}    binary
// @Router       /api/reports/export.csv [get]
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	opts, ok := h.options(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.reportService.ExportCSV(c.Request.Context(), ownerID, opts, &buf); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="report.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// RebuildClientStats recomputes the cached client totals from invoices
// @Summary      Rebuild client stats
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.RebuildResult}
// @Router       /api/reports/rebuild-client-stats [post]
func (h *ReportHandler) RebuildClientStats(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	result, err := h.statsService.RebuildOwner(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
