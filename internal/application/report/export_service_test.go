package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spendlens/backend/internal/domain/catalog"
	"github.com/spendlens/backend/internal/domain/finance"
	"github.com/spendlens/backend/internal/domain/report"
	"github.com/spendlens/backend/internal/domain/shared"
	"github.com/spendlens/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPDFRenderer is a mock implementation of PDFRenderer
type MockPDFRenderer struct {
	mock.Mock
}

func (m *MockPDFRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	args := m.Called(ctx, html)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func makeExpense(t *testing.T, userID uuid.UUID, amount, description string, categoryID *uuid.UUID) finance.Expense {
	t.Helper()
	money, err := valueobject.NewMoneyUSDFromString(amount)
	require.NoError(t, err)
	expense, err := finance.NewExpense(userID, money, description)
	require.NoError(t, err)
	if categoryID != nil {
		expense.AssignCategory(*categoryID)
	}
	return *expense
}

func TestExportService_WriteCSV(t *testing.T) {
	userID := uuid.New()

	t.Run("writes header and rows with category names", func(t *testing.T) {
		expenseRepo := new(MockExpenseRepository)
		categoryRepo := new(MockCategoryRepository)
		svc := NewExportService(expenseRepo, categoryRepo, nil, zap.NewNop())

		categories := mustCategories(t, "Food")
		foodID := categories[0].ID

		expenses := []finance.Expense{
			makeExpense(t, userID, "12.50", "lunch at cafe", &foodID),
			makeExpense(t, userID, "7.25", "mystery snack", nil),
		}
		categoryRepo.On("FindAll", mock.Anything).Return(categories, nil)
		expenseRepo.On("FindAllForUser", mock.Anything, userID, mock.AnythingOfType("finance.ExpenseFilter")).
			Return(expenses, nil)

		var buf bytes.Buffer
		err := svc.WriteCSV(context.Background(), userID, report.ReportFilter{}, &buf)

		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "id,amount,description,category,created_at", lines[0])
		assert.Contains(t, lines[1], "12.50")
		assert.Contains(t, lines[1], "lunch at cafe")
		assert.Contains(t, lines[1], "food")
		assert.Contains(t, lines[2], UncategorizedLabel)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		expenseRepo := new(MockExpenseRepository)
		categoryRepo := new(MockCategoryRepository)
		svc := NewExportService(expenseRepo, categoryRepo, nil, zap.NewNop())

		categoryRepo.On("FindAll", mock.Anything).Return([]catalog.Category{}, nil)
		expenseRepo.On("FindAllForUser", mock.Anything, userID, mock.Anything).
			Return(nil, errors.New("connection refused"))

		var buf bytes.Buffer
		err := svc.WriteCSV(context.Background(), userID, report.ReportFilter{}, &buf)

		require.Error(t, err)
	})
}

func TestExportService_RenderPDF(t *testing.T) {
	userID := uuid.New()

	t.Run("renders the expense table", func(t *testing.T) {
		expenseRepo := new(MockExpenseRepository)
		categoryRepo := new(MockCategoryRepository)
		renderer := new(MockPDFRenderer)
		svc := NewExportService(expenseRepo, categoryRepo, renderer, zap.NewNop())

		categories := mustCategories(t, "Food")
		foodID := categories[0].ID
		expenses := []finance.Expense{
			makeExpense(t, userID, "12.50", "lunch at cafe", &foodID),
			makeExpense(t, userID, "7.50", "snack", nil),
		}
		categoryRepo.On("FindAll", mock.Anything).Return(categories, nil)
		expenseRepo.On("FindAllForUser", mock.Anything, userID, mock.Anything).Return(expenses, nil)

		var capturedHTML string
		renderer.On("RenderHTML", mock.Anything, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { capturedHTML = args.String(1) }).
			Return([]byte("%PDF-fake"), nil)

		pdf, err := svc.RenderPDF(context.Background(), userID, report.ReportFilter{})

		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-fake"), pdf)
		assert.Contains(t, capturedHTML, "lunch at cafe")
		assert.Contains(t, capturedHTML, "Food")
		assert.Contains(t, capturedHTML, "Uncategorized")
		assert.Contains(t, capturedHTML, "20.00") // total line
		assert.Contains(t, capturedHTML, "All time")
	})

	t.Run("renderer failure maps to a domain error", func(t *testing.T) {
		expenseRepo := new(MockExpenseRepository)
		categoryRepo := new(MockCategoryRepository)
		renderer := new(MockPDFRenderer)
		svc := NewExportService(expenseRepo, categoryRepo, renderer, zap.NewNop())

		categoryRepo.On("FindAll", mock.Anything).Return([]catalog.Category{}, nil)
		expenseRepo.On("FindAllForUser", mock.Anything, userID, mock.Anything).
			Return([]finance.Expense{}, nil)
		renderer.On("RenderHTML", mock.Anything, mock.Anything).Return(nil, errors.New("chrome crashed"))

		_, err := svc.RenderPDF(context.Background(), userID, report.ReportFilter{})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "PDF_RENDER_FAILED", domainErr.Code)
	})

	t.Run("disabled renderer is a domain error", func(t *testing.T) {
		expenseRepo := new(MockExpenseRepository)
		categoryRepo := new(MockCategoryRepository)
		svc := NewExportService(expenseRepo, categoryRepo, nil, zap.NewNop())

		_, err := svc.RenderPDF(context.Background(), userID, report.ReportFilter{})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "PDF_DISABLED", domainErr.Code)
	})
}
