package finance

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/backend/internal/domain/finance"
)

// CreateExpenseRequest represents a request to create an expense
type CreateExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"required,max=500"`
	Receipt     *ReceiptUpload  `json:"-"` // populated from multipart form, never from JSON
}

// ReceiptUpload carries an uploaded receipt file into the service layer.
// Size must reflect the actual body length; the content-type whitelist
// and size cap are enforced before any storage call.
type ReceiptUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ExpenseListFilter defines filtering options for expense list queries
type ExpenseListFilter struct {
	CategoryID    *uuid.UUID `form:"category_id"`
	Uncategorized *bool      `form:"uncategorized"`
	FromDate      *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate        *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page          int        `form:"page"`
	PageSize      int        `form:"page_size"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID           uuid.UUID       `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	Categorized  bool            `json:"categorized"`
	UsedFallback bool            `json:"used_fallback,omitempty"`
	ReceiptURL   string          `json:"receipt_url,omitempty"`
	HasReceipt   bool            `json:"has_receipt"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toExpenseResponse(e *finance.Expense, categoryName, receiptURL string) *ExpenseResponse {
	return &ExpenseResponse{
		ID:           e.ID,
		Amount:       e.Amount,
		Description:  e.Description,
		CategoryID:   e.CategoryID,
		CategoryName: categoryName,
		Categorized:  e.IsCategorized(),
		ReceiptURL:   receiptURL,
		HasReceipt:   e.HasReceipt(),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}
