package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/spendlens/backend/internal/domain/finance"
	"github.com/spendlens/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockExpenseRepository creates a GormExpenseRepository with a mocked SQL connection
func newMockExpenseRepository(t *testing.T) (*GormExpenseRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormExpenseRepository(gormDB), mock, mockDB
}

func TestGormExpenseRepository_FindByIDForUser(t *testing.T) {
	t.Run("finds expense owned by the user", func(t *testing.T) {
		repo, mock, mockDB := newMockExpenseRepository(t)
		defer mockDB.Close()

		userID := uuid.New()
		expenseID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "user_id", "amount", "description"}).
			AddRow(expenseID, userID, "12.50", "lunch at cafe")

		mock.ExpectQuery(`SELECT \* FROM "expenses" WHERE \(user_id = \$1 AND id = \$2\) AND "expenses"\."deleted_at" IS NULL ORDER BY .* LIMIT .*`).
			WithArgs(userID, expenseID, 1).
			WillReturnRows(rows)

		expense, err := repo.FindByIDForUser(context.Background(), userID, expenseID)

		assert.NoError(t, err)
		require.NotNil(t, expense)
		assert.Equal(t, expenseID, expense.ID)
		assert.Equal(t, userID, expense.UserID)
		assert.Equal(t, "12.5", expense.Amount.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not return another user's expense", func(t *testing.T) {
		repo, mock, mockDB := newMockExpenseRepository(t)
		defer mockDB.Close()

		userID := uuid.New()
		expenseID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "expenses" WHERE \(user_id = \$1 AND id = \$2\) AND "expenses"\."deleted_at" IS NULL ORDER BY .* LIMIT .*`).
			WithArgs(userID, expenseID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		expense, err := repo.FindByIDForUser(context.Background(), userID, expenseID)

		assert.Nil(t, expense)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormExpenseRepository_FindAllForUser(t *testing.T) {
	t.Run("filters uncategorized expenses newest first", func(t *testing.T) {
		repo, mock, mockDB := newMockExpenseRepository(t)
		defer mockDB.Close()

		userID := uuid.New()
		uncategorized := true

		rows := sqlmock.NewRows([]string{"id", "user_id", "amount", "description", "category_id"}).
			AddRow(uuid.New(), userID, "30.00", "mystery purchase", nil)

		mock.ExpectQuery(`SELECT \* FROM "expenses" WHERE user_id = \$1 AND category_id IS NULL AND "expenses"\."deleted_at" IS NULL ORDER BY created_at DESC LIMIT .*`).
			WithArgs(userID, 20).
			WillReturnRows(rows)

		expenses, err := repo.FindAllForUser(context.Background(), userID, finance.ExpenseFilter{
			Filter:        shared.Filter{Page: 1, PageSize: 20},
			Uncategorized: &uncategorized,
		})

		assert.NoError(t, err)
		require.Len(t, expenses, 1)
		assert.Nil(t, expenses[0].CategoryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies category and date range filters", func(t *testing.T) {
		repo, mock, mockDB := newMockExpenseRepository(t)
		defer mockDB.Close()

		userID := uuid.New()
		categoryID := uuid.New()
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)

		rows := sqlmock.NewRows([]string{"id", "user_id", "amount", "description", "category_id"}).
			AddRow(uuid.New(), userID, "45.00", "groceries", categoryID)

		mock.ExpectQuery(`SELECT \* FROM "expenses" WHERE user_id = \$1 AND category_id = \$2 AND created_at >= \$3 AND created_at <= \$4 AND "expenses"\."deleted_at" IS NULL ORDER BY created_at DESC`).
			WithArgs(userID, categoryID, from, to).
			WillReturnRows(rows)

		expenses, err := repo.FindAllForUser(context.Background(), userID, finance.ExpenseFilter{
			CategoryID: &categoryID,
			FromDate:   &from,
			ToDate:     &to,
		})

		assert.NoError(t, err)
		require.Len(t, expenses, 1)
		assert.Equal(t, categoryID, *expenses[0].CategoryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormExpenseRepository_DeleteForUser(t *testing.T) {
	t.Run("soft deletes an owned expense", func(t *testing.T) {
		repo, mock, mockDB := newMockExpenseRepository(t)
		defer mockDB.Close()

		userID := uuid.New()
		expenseID := uuid.New()

		mock.ExpectExec(`UPDATE "expenses" SET "deleted_at"=\$1 WHERE \(user_id = \$2 AND id = \$3\) AND "expenses"\."deleted_at" IS NULL`).
			WithArgs(sqlmock.AnyArg(), userID, expenseID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.DeleteForUser(context.Background(), userID, expenseID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when the expense is not owned", func(t *testing.T) {
		repo, mock, mockDB := newMockExpenseRepository(t)
		defer mockDB.Close()

		userID := uuid.New()
		expenseID := uuid.New()

		mock.ExpectExec(`UPDATE "expenses" SET "deleted_at"=\$1 WHERE \(user_id = \$2 AND id = \$3\) AND "expenses"\."deleted_at" IS NULL`).
			WithArgs(sqlmock.AnyArg(), userID, expenseID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteForUser(context.Background(), userID, expenseID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormExpenseRepository_CountByCategory(t *testing.T) {
	t.Run("counts expenses across all users", func(t *testing.T) {
		repo, mock, mockDB := newMockExpenseRepository(t)
		defer mockDB.Close()

		categoryID := uuid.New()

		rows := sqlmock.NewRows([]string{"count"}).AddRow(3)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "expenses" WHERE category_id = \$1 AND "expenses"\."deleted_at" IS NULL`).
			WithArgs(categoryID).
			WillReturnRows(rows)

		count, err := repo.CountByCategory(context.Background(), categoryID)

		assert.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormExpenseRepository_SumForUser(t *testing.T) {
	t.Run("sums amounts within the filter", func(t *testing.T) {
		repo, mock, mockDB := newMockExpenseRepository(t)
		defer mockDB.Close()

		userID := uuid.New()

		rows := sqlmock.NewRows([]string{"total"}).AddRow("105.75")

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) AS total FROM "expenses" WHERE user_id = \$1 AND "expenses"\."deleted_at" IS NULL`).
			WithArgs(userID).
			WillReturnRows(rows)

		total, err := repo.SumForUser(context.Background(), userID, finance.ExpenseFilter{})

		assert.NoError(t, err)
		assert.Equal(t, "105.75", total.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormExpenseRepository_TotalsByCategory(t *testing.T) {
	t.Run("groups spend by category with a nil bucket", func(t *testing.T) {
		repo, mock, mockDB := newMockExpenseRepository(t)
		defer mockDB.Close()

		userID := uuid.New()
		foodID := uuid.New()

		rows := sqlmock.NewRows([]string{"category_id", "total", "count"}).
			AddRow(foodID, "75.00", 3).
			AddRow(nil, "25.00", 1)

		mock.ExpectQuery(`SELECT category_id, COALESCE\(SUM\(amount\), 0\) AS total, COUNT\(\*\) AS count FROM "expenses" WHERE user_id = \$1 AND "expenses"\."deleted_at" IS NULL GROUP BY "category_id"`).
			WithArgs(userID).
			WillReturnRows(rows)

		totals, err := repo.TotalsByCategory(context.Background(), userID, nil, nil)

		assert.NoError(t, err)
		require.Len(t, totals, 2)
		assert.Equal(t, foodID, *totals[0].CategoryID)
		assert.Equal(t, "75", totals[0].Total.String())
		assert.Equal(t, int64(3), totals[0].Count)
		assert.Nil(t, totals[1].CategoryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormExpenseRepository_TotalsByMonth(t *testing.T) {
	t.Run("groups spend by calendar month oldest first", func(t *testing.T) {
		repo, mock, mockDB := newMockExpenseRepository(t)
		defer mockDB.Close()

		userID := uuid.New()
		jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{"month_start", "total", "count"}).
			AddRow(jan, "60.00", 2).
			AddRow(feb, "40.00", 1)

		mock.ExpectQuery(`SELECT date_trunc\('month', created_at\) AS month_start, COALESCE\(SUM\(amount\), 0\) AS total, COUNT\(\*\) AS count FROM "expenses" WHERE user_id = \$1 AND "expenses"\."deleted_at" IS NULL GROUP BY date_trunc\('month', created_at\) ORDER BY month_start ASC`).
			WithArgs(userID).
			WillReturnRows(rows)

		totals, err := repo.TotalsByMonth(context.Background(), userID, nil, nil)

		assert.NoError(t, err)
		require.Len(t, totals, 2)
		assert.Equal(t, 2026, totals[0].Year)
		assert.Equal(t, time.January, totals[0].Month)
		assert.Equal(t, "60", totals[0].Total.String())
		assert.Equal(t, time.February, totals[1].Month)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
