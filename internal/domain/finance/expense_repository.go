package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/backend/internal/domain/shared"
)

// ExpenseFilter defines filtering options for expense queries
type ExpenseFilter struct {
	shared.Filter
	CategoryID    *uuid.UUID       // Filter by resolved category
	Uncategorized *bool            // Filter only expenses without a category
	FromDate      *time.Time       // Filter by creation date range start
	ToDate        *time.Time       // Filter by creation date range end
	MinAmount     *decimal.Decimal // Filter by minimum amount
	MaxAmount     *decimal.Decimal // Filter by maximum amount
}

// CategoryTotal is an aggregation row of spend grouped by category.
// CategoryID is nil for the uncategorized bucket.
type CategoryTotal struct {
	CategoryID *uuid.UUID
	Total      decimal.Decimal
	Count      int64
}

// MonthlyTotal is an aggregation row of spend grouped by calendar month
type MonthlyTotal struct {
	Year  int
	Month time.Month
	Total decimal.Decimal
	Count int64
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	// FindByID finds an expense by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)

	// FindByIDForUser finds an expense by ID scoped to its owner
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Expense, error)

	// FindAllForUser finds all expenses for a user with filtering,
	// newest first
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter ExpenseFilter) ([]Expense, error)

	// Save creates or updates an expense
	Save(ctx context.Context, expense *Expense) error

	// DeleteForUser soft deletes an expense scoped to its owner
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) error

	// CountForUser counts expenses for a user with optional filters
	CountForUser(ctx context.Context, userID uuid.UUID, filter ExpenseFilter) (int64, error)

	// CountByCategory counts expenses referencing a category across all
	// users. Used to block deletion of categories still in use.
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// SumForUser totals expense amounts for a user within the filter
	SumForUser(ctx context.Context, userID uuid.UUID, filter ExpenseFilter) (decimal.Decimal, error)

	// TotalsByCategory aggregates a user's spend per category within the
	// date range. Expenses without a category land in a nil-ID bucket.
	TotalsByCategory(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]CategoryTotal, error)

	// TotalsByMonth aggregates a user's spend per calendar month within
	// the date range, oldest first
	TotalsByMonth(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]MonthlyTotal, error)
}
