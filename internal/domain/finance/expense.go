package finance

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/backend/internal/domain/shared"
	"github.com/spendlens/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
)

// MaxDescriptionLength bounds expense descriptions
const MaxDescriptionLength = 500

// Expense represents a single spending record owned by exactly one user.
// An expense is immutable after creation except for deletion by its
// owner. CategoryID is nil when automatic categorization found no match
// and no fallback category was configured.
type Expense struct {
	shared.OwnedAggregateRoot
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description string          `gorm:"type:varchar(500);not null" json:"description"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	ReceiptKey  string          `gorm:"type:varchar(512)" json:"receipt_key"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName returns the table name for GORM
func (Expense) TableName() string {
	return "expenses"
}

// NewExpense creates a new expense for the given owner
func NewExpense(userID uuid.UUID, amount valueobject.Money, description string) (*Expense, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Owner user ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if len(description) > MaxDescriptionLength {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}

	expense := &Expense{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		Amount:             amount.Amount(),
		Description:        description,
	}

	expense.AddDomainEvent(NewExpenseCreatedEvent(expense))

	return expense, nil
}

// AssignCategory records the resolved category on a not-yet-persisted
// expense. Categorization happens exactly once, during creation.
func (e *Expense) AssignCategory(categoryID uuid.UUID) {
	if categoryID == uuid.Nil {
		return
	}
	e.CategoryID = &categoryID

	e.AddDomainEvent(NewExpenseCategorizedEvent(e, categoryID))
}

// MarkDeleted raises the deletion event for an expense about to be removed.
func (e *Expense) MarkDeleted() {
	e.AddDomainEvent(NewExpenseDeletedEvent(e))
}

// AttachReceipt records the object-storage key of the uploaded receipt
func (e *Expense) AttachReceipt(key string) {
	e.ReceiptKey = key
}

// HasReceipt returns true when a receipt object is attached
func (e *Expense) HasReceipt() bool {
	return e.ReceiptKey != ""
}

// IsCategorized returns true when a category was resolved
func (e *Expense) IsCategorized() bool {
	return e.CategoryID != nil
}

// GetAmountMoney returns amount as Money
func (e *Expense) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(e.Amount)
}
