package finance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/backend/internal/domain/shared"
)

// ExpenseCreatedEvent is published when a new expense is recorded
type ExpenseCreatedEvent struct {
	shared.BaseDomainEvent
	UserID      uuid.UUID       `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// NewExpenseCreatedEvent creates a new expense created event
func NewExpenseCreatedEvent(expense *Expense) *ExpenseCreatedEvent {
	return &ExpenseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("expense.created", "Expense", expense.ID),
		UserID:          expense.UserID,
		Amount:          expense.Amount,
		Description:     expense.Description,
	}
}

// ExpenseCategorizedEvent is published when automatic categorization
// resolves a category for an expense
type ExpenseCategorizedEvent struct {
	shared.BaseDomainEvent
	UserID     uuid.UUID `json:"user_id"`
	CategoryID uuid.UUID `json:"category_id"`
}

// NewExpenseCategorizedEvent creates a new expense categorized event
func NewExpenseCategorizedEvent(expense *Expense, categoryID uuid.UUID) *ExpenseCategorizedEvent {
	return &ExpenseCategorizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("expense.categorized", "Expense", expense.ID),
		UserID:          expense.UserID,
		CategoryID:      categoryID,
	}
}

// ExpenseDeletedEvent is published when an expense is deleted by its owner
type ExpenseDeletedEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
}

// NewExpenseDeletedEvent creates a new expense deleted event
func NewExpenseDeletedEvent(expense *Expense) *ExpenseDeletedEvent {
	return &ExpenseDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("expense.deleted", "Expense", expense.ID),
		UserID:          expense.UserID,
	}
}
