package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	financeapp "github.com/spendlens/backend/internal/application/finance"
)

// ExpenseHandler handles expense-related API endpoints
type ExpenseHandler struct {
	BaseHandler
	expenseService *financeapp.ExpenseService
	importService  *financeapp.ImportService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService *financeapp.ExpenseService, importService *financeapp.ImportService) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		importService:  importService,
	}
}

// Create godoc
// @Summary      Create an expense
// @Description  Record an expense. Accepts JSON, or multipart/form-data with an
// @Description  optional receipt file. The description is auto-categorized; a
// @Description  categorization failure falls back to the default category and
// @Description  never blocks the expense.
// @Tags         expenses
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Param        request body finance.CreateExpenseRequest true "Expense details (JSON mode)"
// @Success      201 {object} dto.Response{data=finance.ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	req, ok := h.bindCreateRequest(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, expense)
}

// bindCreateRequest parses the create payload from either JSON or a
// multipart form. Responds with 400 and returns ok=false on bad input.
func (h *ExpenseHandler) bindCreateRequest(c *gin.Context) (financeapp.CreateExpenseRequest, bool) {
	var req financeapp.CreateExpenseRequest

	contentType := c.GetHeader("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body")
			return req, false
		}
		return req, true
	}

	amountStr := c.PostForm("amount")
	if amountStr == "" {
		h.BadRequest(c, "amount is required")
		return req, false
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		h.BadRequest(c, "Invalid amount")
		return req, false
	}
	req.Amount = amount

	req.Description = c.PostForm("description")
	if req.Description == "" {
		h.BadRequest(c, "description is required")
		return req, false
	}

	// Receipt file is optional in multipart mode
	file, header, err := c.Request.FormFile("receipt")
	if err == nil {
		req.Receipt = &financeapp.ReceiptUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	}

	return req, true
}

// Import godoc
// @Summary      Import expenses from CSV
// @Description  Bulk-create expenses from an uploaded CSV file with columns
// @Description  amount, description, and an optional date (YYYY-MM-DD). The
// @Description  import is partial: valid rows are saved and categorized,
// @Description  invalid rows come back with their line numbers.
// @Tags         expenses
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      200 {object} dto.Response{data=finance.ImportResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/import [post]
func (h *ExpenseHandler) Import(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	result, err := h.importService.Import(c.Request.Context(), userID, file, header.Size)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List godoc
// @Summary      List expenses
// @Description  List the authenticated user's expenses, newest first, with
// @Description  optional category, date-range, and uncategorized filters
// @Tags         expenses
// @Produce      json
// @Param        category_id query string false "Filter by category ID"
// @Param        uncategorized query bool false "Only expenses without a category"
// @Param        from_date query string false "Start date (YYYY-MM-DD)"
// @Param        to_date query string false "End date (YYYY-MM-DD)"
// @Param        page query int false "Page number (default 1)"
// @Param        page_size query int false "Page size (default 20, max 100)"
// @Success      200 {object} dto.Response{data=[]finance.ExpenseResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter financeapp.ExpenseListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.expenseService.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetByID godoc
// @Summary      Get expense by ID
// @Description  Get a single expense owned by the authenticated user
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID"
// @Success      200 {object} dto.Response{data=finance.ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id} [get]
func (h *ExpenseHandler) GetByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID")
		return
	}

	expense, err := h.expenseService.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, expense)
}

// Delete godoc
// @Summary      Delete an expense
// @Description  Delete an expense owned by the authenticated user
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID")
		return
	}

	if err := h.expenseService.Delete(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
