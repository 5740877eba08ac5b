package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/spendlens/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockCategoryRepository creates a GormCategoryRepository with a mocked SQL connection
func newMockCategoryRepository(t *testing.T) (*GormCategoryRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormCategoryRepository(gormDB), mock, mockDB
}

func TestGormCategoryRepository_FindByID(t *testing.T) {
	t.Run("finds existing category", func(t *testing.T) {
		repo, mock, mockDB := newMockCategoryRepository(t)
		defer mockDB.Close()

		categoryID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "name", "display_name", "status"}).
			AddRow(categoryID, "food", "Food", "active")

		mock.ExpectQuery(`SELECT \* FROM "categories" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(categoryID, 1).
			WillReturnRows(rows)

		category, err := repo.FindByID(context.Background(), categoryID)

		assert.NoError(t, err)
		assert.NotNil(t, category)
		assert.Equal(t, categoryID, category.ID)
		assert.Equal(t, "food", category.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent category", func(t *testing.T) {
		repo, mock, mockDB := newMockCategoryRepository(t)
		defer mockDB.Close()

		categoryID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "categories" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(categoryID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		category, err := repo.FindByID(context.Background(), categoryID)

		assert.Error(t, err)
		assert.Nil(t, category)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCategoryRepository_FindByName(t *testing.T) {
	t.Run("canonicalizes the name before lookup", func(t *testing.T) {
		repo, mock, mockDB := newMockCategoryRepository(t)
		defer mockDB.Close()

		categoryID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "name", "display_name", "status"}).
			AddRow(categoryID, "dining out", "Dining Out", "active")

		mock.ExpectQuery(`SELECT \* FROM "categories" WHERE name = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("dining out", 1).
			WillReturnRows(rows)

		category, err := repo.FindByName(context.Background(), "  Dining Out  ")

		assert.NoError(t, err)
		assert.Equal(t, "dining out", category.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty name short-circuits without a query", func(t *testing.T) {
		repo, mock, mockDB := newMockCategoryRepository(t)
		defer mockDB.Close()

		category, err := repo.FindByName(context.Background(), "   ")

		assert.Nil(t, category)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCategoryRepository_FindAllActive(t *testing.T) {
	t.Run("returns only active categories ordered by name", func(t *testing.T) {
		repo, mock, mockDB := newMockCategoryRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "name", "display_name", "status"}).
			AddRow(uuid.New(), "food", "Food", "active").
			AddRow(uuid.New(), "fuel", "Fuel", "active")

		mock.ExpectQuery(`SELECT \* FROM "categories" WHERE status = \$1 ORDER BY name ASC`).
			WithArgs("active").
			WillReturnRows(rows)

		categories, err := repo.FindAllActive(context.Background())

		assert.NoError(t, err)
		require.Len(t, categories, 2)
		assert.Equal(t, "food", categories[0].Name)
		assert.Equal(t, "fuel", categories[1].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCategoryRepository_ExistsByName(t *testing.T) {
	t.Run("returns true when a category matches", func(t *testing.T) {
		repo, mock, mockDB := newMockCategoryRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"count"}).AddRow(1)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "categories" WHERE name = \$1`).
			WithArgs("food").
			WillReturnRows(rows)

		exists, err := repo.ExistsByName(context.Background(), "Food")

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty name is never present", func(t *testing.T) {
		repo, mock, mockDB := newMockCategoryRepository(t)
		defer mockDB.Close()

		exists, err := repo.ExistsByName(context.Background(), "  ")

		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCategoryRepository_Delete(t *testing.T) {
	t.Run("deletes an existing category", func(t *testing.T) {
		repo, mock, mockDB := newMockCategoryRepository(t)
		defer mockDB.Close()

		categoryID := uuid.New()

		mock.ExpectExec(`DELETE FROM "categories" WHERE id = \$1`).
			WithArgs(categoryID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), categoryID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when nothing was deleted", func(t *testing.T) {
		repo, mock, mockDB := newMockCategoryRepository(t)
		defer mockDB.Close()

		categoryID := uuid.New()

		mock.ExpectExec(`DELETE FROM "categories" WHERE id = \$1`).
			WithArgs(categoryID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), categoryID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCategoryRepository_FindAll(t *testing.T) {
	t.Run("returns all categories ordered by name", func(t *testing.T) {
		repo, mock, mockDB := newMockCategoryRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "name", "display_name", "status"}).
			AddRow(uuid.New(), "food", "Food", "active").
			AddRow(uuid.New(), "travel", "Travel", "inactive")

		mock.ExpectQuery(`SELECT \* FROM "categories" ORDER BY name ASC`).
			WillReturnRows(rows)

		categories, err := repo.FindAll(context.Background())

		assert.NoError(t, err)
		assert.Len(t, categories, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
