package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SpendingSummary is a read model aggregating a user's spend over a period
type SpendingSummary struct {
	UserID      uuid.UUID           `json:"user_id"`
	PeriodStart *time.Time          `json:"period_start,omitempty"`
	PeriodEnd   *time.Time          `json:"period_end,omitempty"`
	Total       decimal.Decimal     `json:"total"`
	Count       int64               `json:"count"`
	Average     decimal.Decimal     `json:"average"` // Total / Count, zero when no expenses
	ByCategory  []CategoryBreakdown `json:"by_category"`
	ByMonth     []MonthlySpend      `json:"by_month"`
}

// CategoryBreakdown is a per-category slice of the summary.
// CategoryName is "uncategorized" for expenses without a category.
type CategoryBreakdown struct {
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name"`
	Total        decimal.Decimal `json:"total"`
	Count        int64           `json:"count"`
	Percentage   decimal.Decimal `json:"percentage"` // Share of overall total, 0-100
}

// MonthlySpend represents spend in one calendar month
type MonthlySpend struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// SpendingInsights is a summary enriched with model-written commentary.
// Degraded is true when the language model was unavailable and
// Narrative holds a plain computed fallback instead.
type SpendingInsights struct {
	Summary   SpendingSummary `json:"summary"`
	Narrative string          `json:"narrative"`
	Degraded  bool            `json:"degraded"`
}

// ReportFilter defines the period for report queries
type ReportFilter struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}
