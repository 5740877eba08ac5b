package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	reportapp "github.com/spendlens/backend/internal/application/report"
	"github.com/spendlens/backend/internal/domain/report"
)

// AnalyticsHandler serves spending summaries and narrative insights
type AnalyticsHandler struct {
	BaseHandler
	analyticsService *reportapp.AnalyticsService
	insightsService  *reportapp.InsightsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(
	analyticsService *reportapp.AnalyticsService,
	insightsService *reportapp.InsightsService,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		insightsService:  insightsService,
	}
}

// reportFilterFromQuery parses the optional from/to date range. Responds
// with 400 and returns ok=false when a date fails to parse.
func (h *BaseHandler) reportFilterFromQuery(c *gin.Context) (report.ReportFilter, bool) {
	var filter report.ReportFilter

	if from := c.Query("from_date"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			h.BadRequest(c, "Invalid from_date, expected YYYY-MM-DD")
			return filter, false
		}
		filter.StartDate = &t
	}
	if to := c.Query("to_date"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			h.BadRequest(c, "Invalid to_date, expected YYYY-MM-DD")
			return filter, false
		}
		filter.EndDate = &t
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		h.BadRequest(c, "to_date must not be before from_date")
		return filter, false
	}

	return filter, true
}

// GetSummary godoc
// @Summary      Spending summary
// @Description  Aggregate the authenticated user's spending over an optional
// @Description  date range: total, count, average, and per-category and
// @Description  per-month breakdowns
// @Tags         analytics
// @Produce      json
// @Param        from_date query string false "Start date (YYYY-MM-DD)"
// @Param        to_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=report.SpendingSummary}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /analytics/summary [get]
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	filter, ok := h.reportFilterFromQuery(c)
	if !ok {
		return
	}

	summary, err := h.analyticsService.GetSummary(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetInsights godoc
// @Summary      Spending insights
// @Description  Generate a natural-language narrative over the spending
// @Description  summary. When the language model is unavailable the response
// @Description  carries a computed narrative with degraded set to true.
// @Tags         analytics
// @Produce      json
// @Param        from_date query string false "Start date (YYYY-MM-DD)"
// @Param        to_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=report.SpendingInsights}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /analytics/insights [get]
func (h *AnalyticsHandler) GetInsights(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	filter, ok := h.reportFilterFromQuery(c)
	if !ok {
		return
	}

	insights, err := h.insightsService.GetInsights(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, insights)
}

// ExportHandler serves expense exports as file downloads
type ExportHandler struct {
	BaseHandler
	exportService *reportapp.ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exportService *reportapp.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// ExportCSV godoc
// @Summary      Export expenses as CSV
// @Description  Download the authenticated user's expenses for the optional
// @Description  date range as a CSV file
// @Tags         exports
// @Produce      text/csv
// @Param        from_date query string false "Start date (YYYY-MM-DD)"
// @Param        to_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {file} file "CSV download"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /exports/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	filter, ok := h.reportFilterFromQuery(c)
	if !ok {
		return
	}

	// Buffer the document so a mid-export failure still yields a JSON error
	var buf bytes.Buffer
	if err := h.exportService.WriteCSV(c.Request.Context(), userID, filter, &buf); err != nil {
		h.HandleError(c, err)
		return
	}

	filename := "expenses-" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportPDF godoc
// @Summary      Export expenses as PDF
// @Description  Download the authenticated user's expenses for the optional
// @Description  date range as a rendered PDF report
// @Tags         exports
// @Produce      application/pdf
// @Param        from_date query string false "Start date (YYYY-MM-DD)"
// @Param        to_date query string false "End date (YYYY-MM-DD)"
// @Success      200 {file} file "PDF download"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /exports/pdf [get]
func (h *ExportHandler) ExportPDF(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	filter, ok := h.reportFilterFromQuery(c)
	if !ok {
		return
	}

	pdf, err := h.exportService.RenderPDF(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filename := "expenses-" + time.Now().Format("2006-01-02") + ".pdf"
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "application/pdf", pdf)
}
