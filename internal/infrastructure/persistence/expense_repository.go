package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/backend/internal/domain/finance"
	"github.com/spendlens/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

var _ finance.ExpenseRepository = (*GormExpenseRepository)(nil)

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	var expense finance.Expense
	if err := r.db.WithContext(ctx).First(&expense, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &expense, nil
}

// FindByIDForUser finds an expense by ID scoped to its owner
func (r *GormExpenseRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*finance.Expense, error) {
	var expense finance.Expense
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &expense, nil
}

// FindAllForUser finds all expenses for a user with filtering, newest first
func (r *GormExpenseRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter finance.ExpenseFilter) ([]finance.Expense, error) {
	var expenses []finance.Expense
	query := r.db.WithContext(ctx).Model(&finance.Expense{}).
		Where("user_id = ?", userID)
	query = r.applyFilter(query, filter)

	orderBy := ValidateSortField(filter.OrderBy, ExpenseSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	return r.db.WithContext(ctx).Save(expense).Error
}

// DeleteForUser soft deletes an expense scoped to its owner
func (r *GormExpenseRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&finance.Expense{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForUser counts expenses for a user with optional filters
func (r *GormExpenseRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter finance.ExpenseFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&finance.Expense{}).
		Where("user_id = ?", userID)
	query = r.applyFilter(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByCategory counts expenses referencing a category across all users
func (r *GormExpenseRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&finance.Expense{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetUncategorizedCount counts expenses with no resolved category across
// all users. Feeds the periodic business metrics collector.
func (r *GormExpenseRepository) GetUncategorizedCount(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&finance.Expense{}).
		Where("category_id IS NULL").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumForUser totals expense amounts for a user within the filter
func (r *GormExpenseRepository) SumForUser(ctx context.Context, userID uuid.UUID, filter finance.ExpenseFilter) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	query := r.db.WithContext(ctx).Model(&finance.Expense{}).
		Where("user_id = ?", userID)
	query = r.applyFilter(query, filter)

	if err := query.
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// TotalsByCategory aggregates a user's spend per category within the date
// range. Expenses without a category land in a nil-ID bucket.
func (r *GormExpenseRepository) TotalsByCategory(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]finance.CategoryTotal, error) {
	var rows []struct {
		CategoryID *uuid.UUID
		Total      decimal.Decimal
		Count      int64
	}
	query := r.db.WithContext(ctx).Model(&finance.Expense{}).
		Where("user_id = ?", userID)
	query = applyDateRange(query, from, to)

	if err := query.
		Select("category_id, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]finance.CategoryTotal, len(rows))
	for i, row := range rows {
		totals[i] = finance.CategoryTotal{
			CategoryID: row.CategoryID,
			Total:      row.Total,
			Count:      row.Count,
		}
	}
	return totals, nil
}

// TotalsByMonth aggregates a user's spend per calendar month within the
// date range, oldest first
func (r *GormExpenseRepository) TotalsByMonth(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]finance.MonthlyTotal, error) {
	var rows []struct {
		MonthStart time.Time
		Total      decimal.Decimal
		Count      int64
	}
	query := r.db.WithContext(ctx).Model(&finance.Expense{}).
		Where("user_id = ?", userID)
	query = applyDateRange(query, from, to)

	if err := query.
		Select("date_trunc('month', created_at) AS month_start, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Group("date_trunc('month', created_at)").
		Order("month_start ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]finance.MonthlyTotal, len(rows))
	for i, row := range rows {
		totals[i] = finance.MonthlyTotal{
			Year:  row.MonthStart.Year(),
			Month: row.MonthStart.Month(),
			Total: row.Total,
			Count: row.Count,
		}
	}
	return totals, nil
}

// applyFilter applies expense-specific filter conditions to a query
func (r *GormExpenseRepository) applyFilter(query *gorm.DB, filter finance.ExpenseFilter) *gorm.DB {
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Uncategorized != nil {
		if *filter.Uncategorized {
			query = query.Where("category_id IS NULL")
		} else {
			query = query.Where("category_id IS NOT NULL")
		}
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}
	if filter.Search != "" {
		query = query.Where("description ILIKE ?", "%"+filter.Search+"%")
	}
	return applyDateRange(query, filter.FromDate, filter.ToDate)
}

// applyDateRange constrains a query to the creation date range
func applyDateRange(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}
	return query
}
