package report

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/backend/internal/domain/catalog"
	"github.com/spendlens/backend/internal/domain/finance"
	"github.com/spendlens/backend/internal/domain/report"
	"go.uber.org/zap"
)

// UncategorizedLabel names the bucket for expenses without a category in
// summaries and exports.
const UncategorizedLabel = "uncategorized"

var oneHundred = decimal.NewFromInt(100)

// AnalyticsService computes spending aggregates from the expense store
type AnalyticsService struct {
	expenseRepo  finance.ExpenseRepository
	categoryRepo catalog.CategoryRepository
	logger       *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(
	expenseRepo finance.ExpenseRepository,
	categoryRepo catalog.CategoryRepository,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// GetSummary builds the spending summary for a user over the filter period
func (s *AnalyticsService) GetSummary(ctx context.Context, userID uuid.UUID, filter report.ReportFilter) (*report.SpendingSummary, error) {
	byCategory, err := s.expenseRepo.TotalsByCategory(ctx, userID, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, err
	}
	byMonth, err := s.expenseRepo.TotalsByMonth(ctx, userID, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, err
	}
	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}

	summary := &report.SpendingSummary{
		UserID:      userID,
		PeriodStart: filter.StartDate,
		PeriodEnd:   filter.EndDate,
		Total:       decimal.Zero,
		Average:     decimal.Zero,
	}

	for _, row := range byCategory {
		summary.Total = summary.Total.Add(row.Total)
		summary.Count += row.Count
	}
	if summary.Count > 0 {
		summary.Average = summary.Total.DivRound(decimal.NewFromInt(summary.Count), 2)
	}

	summary.ByCategory = make([]report.CategoryBreakdown, len(byCategory))
	for i, row := range byCategory {
		name := UncategorizedLabel
		if row.CategoryID != nil {
			if n, ok := names[*row.CategoryID]; ok {
				name = n
			}
		}
		percentage := decimal.Zero
		if summary.Total.IsPositive() {
			percentage = row.Total.Mul(oneHundred).DivRound(summary.Total, 2)
		}
		summary.ByCategory[i] = report.CategoryBreakdown{
			CategoryID:   row.CategoryID,
			CategoryName: name,
			Total:        row.Total,
			Count:        row.Count,
			Percentage:   percentage,
		}
	}
	// Largest spend first; stable name order on ties keeps output
	// deterministic for export snapshots.
	sort.SliceStable(summary.ByCategory, func(i, j int) bool {
		if !summary.ByCategory[i].Total.Equal(summary.ByCategory[j].Total) {
			return summary.ByCategory[i].Total.GreaterThan(summary.ByCategory[j].Total)
		}
		return summary.ByCategory[i].CategoryName < summary.ByCategory[j].CategoryName
	})

	summary.ByMonth = make([]report.MonthlySpend, len(byMonth))
	for i, row := range byMonth {
		summary.ByMonth[i] = report.MonthlySpend{
			Year:  row.Year,
			Month: int(row.Month),
			Total: row.Total,
			Count: row.Count,
		}
	}
	sort.SliceStable(summary.ByMonth, func(i, j int) bool {
		if summary.ByMonth[i].Year != summary.ByMonth[j].Year {
			return summary.ByMonth[i].Year < summary.ByMonth[j].Year
		}
		return summary.ByMonth[i].Month < summary.ByMonth[j].Month
	})

	return summary, nil
}

// TopCategory returns the breakdown row with the largest spend, or nil
// when the summary is empty.
func TopCategory(summary *report.SpendingSummary) *report.CategoryBreakdown {
	if summary == nil || len(summary.ByCategory) == 0 {
		return nil
	}
	return &summary.ByCategory[0]
}

func (s *AnalyticsService) categoryNames(ctx context.Context) (map[uuid.UUID]string, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(categories))
	for i := range categories {
		names[categories[i].ID] = categories[i].Name
	}
	return names, nil
}
