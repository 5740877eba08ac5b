package finance

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/backend/internal/domain/finance"
	"github.com/spendlens/backend/internal/domain/shared"
	"github.com/spendlens/backend/internal/domain/shared/valueobject"
	csvimport "github.com/spendlens/backend/internal/infrastructure/import"
	"go.uber.org/zap"
)

// importDateFormat is the accepted format of the optional date column.
const importDateFormat = "2006-01-02"

// importRequiredHeaders must all be present in the CSV header row.
var importRequiredHeaders = []string{"amount", "description"}

// ImportServiceConfig bounds CSV expense imports.
type ImportServiceConfig struct {
	MaxFileSize int64
	MaxRows     int
	MaxErrors   int
}

// DefaultImportServiceConfig returns the default import service configuration
func DefaultImportServiceConfig() ImportServiceConfig {
	return ImportServiceConfig{
		MaxFileSize: 5 * 1024 * 1024,
		MaxRows:     1000,
		MaxErrors:   100,
	}
}

// ImportResult summarizes a CSV import. Row numbers in Errors refer to
// line numbers in the uploaded file, header included.
type ImportResult struct {
	TotalRows   int                  `json:"total_rows"`
	Imported    int                  `json:"imported"`
	Failed      int                  `json:"failed"`
	Errors      []csvimport.RowError `json:"errors,omitempty"`
	TotalErrors int                  `json:"total_errors,omitempty"`
	IsTruncated bool                 `json:"is_truncated,omitempty"`
}

// ImportService bulk-creates expenses from an uploaded CSV file. Imports
// are partial: valid rows are persisted, invalid rows are reported back
// with their line numbers. Each imported row goes through the same
// categorization path as a single expense, with the same fallback.
type ImportService struct {
	expenseRepo finance.ExpenseRepository
	categorizer *CategorizationService
	config      ImportServiceConfig
	metrics     MetricsRecorder
	logger      *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(
	expenseRepo finance.ExpenseRepository,
	categorizer *CategorizationService,
	config ImportServiceConfig,
	logger *zap.Logger,
) *ImportService {
	defaults := DefaultImportServiceConfig()
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = defaults.MaxFileSize
	}
	if config.MaxRows <= 0 {
		config.MaxRows = defaults.MaxRows
	}
	if config.MaxErrors <= 0 {
		config.MaxErrors = defaults.MaxErrors
	}
	return &ImportService{
		expenseRepo: expenseRepo,
		categorizer: categorizer,
		config:      config,
		logger:      logger,
	}
}

// SetMetricsRecorder attaches a business metrics recorder
func (s *ImportService) SetMetricsRecorder(metrics MetricsRecorder) {
	s.metrics = metrics
}

// validationRules returns the per-field rules for an expense CSV row.
// Positivity of the amount is enforced by the expense constructor, not
// here, so the row error carries the domain message.
func (s *ImportService) validationRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("amount").Required().Decimal().Build(),
		csvimport.Field("description").Required().String().MaxLength(finance.MaxDescriptionLength).Build(),
		csvimport.Field("date").Date().DateFormat(importDateFormat).Build(),
	}
}

// Import parses and persists expenses from r. size is the declared
// upload size and is checked against MaxFileSize before any parsing.
// A malformed file fails as a whole; malformed rows fail individually.
func (s *ImportService) Import(ctx context.Context, userID uuid.UUID, r io.Reader, size int64) (*ImportResult, error) {
	if size > s.config.MaxFileSize {
		return nil, shared.NewDomainError("IMPORT_FILE_TOO_LARGE",
			fmt.Sprintf("Import file must not exceed %d bytes", s.config.MaxFileSize))
	}

	parser, err := csvimport.NewCSVParser(io.LimitReader(r, s.config.MaxFileSize))
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CSV", "File is empty or not valid UTF-8 text")
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("INVALID_CSV", "File has no readable header row")
	}
	if missing := parser.ValidateHeaders(importRequiredHeaders); len(missing) > 0 {
		return nil, shared.NewDomainError("INVALID_CSV",
			fmt.Sprintf("Missing required columns: %s", strings.Join(missing, ", ")))
	}

	validator := csvimport.NewFieldValidator(s.validationRules(), s.config.MaxErrors)
	rowErrors := csvimport.NewErrorCollection(s.config.MaxErrors)
	result := &ImportResult{}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.TotalRows++
			result.Failed++
			rowErrors.Add(csvimport.NewRowError(parser.CurrentRow(), "",
				csvimport.ErrCodeImportMalformedRow, "row could not be parsed"))
			continue
		}
		if row.IsEmpty() {
			continue
		}

		result.TotalRows++
		if result.TotalRows > s.config.MaxRows {
			return nil, shared.NewDomainError("INVALID_CSV",
				fmt.Sprintf("Import file must not exceed %d data rows", s.config.MaxRows))
		}

		if !validator.ValidateRow(row) {
			result.Failed++
			continue
		}

		imported, err := s.importRow(ctx, userID, row, rowErrors)
		if err != nil {
			return nil, err
		}
		if imported {
			result.Imported++
		} else {
			result.Failed++
		}
	}

	if result.TotalRows == 0 {
		return nil, shared.NewDomainError("INVALID_CSV", "File contains no data rows")
	}

	merged := append(validator.Errors().Errors(), rowErrors.Errors()...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Row < merged[j].Row })
	result.Errors = merged
	result.TotalErrors = validator.Errors().TotalCount() + rowErrors.TotalCount()
	result.IsTruncated = validator.Errors().IsTruncated() || rowErrors.IsTruncated()

	s.logger.Info("expense import finished",
		zap.String("user_id", userID.String()),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed))

	return result, nil
}

// importRow persists a single validated row. Domain rejections become
// row errors; repository failures abort the whole import.
func (s *ImportService) importRow(ctx context.Context, userID uuid.UUID, row *csvimport.Row, rowErrors *csvimport.ErrorCollection) (bool, error) {
	amount, err := decimal.NewFromString(row.Get("amount"))
	if err != nil {
		rowErrors.AddTypeError(row.LineNumber, "amount", "decimal", row.Get("amount"))
		return false, nil
	}

	expense, err := finance.NewExpense(userID, valueobject.NewMoneyUSD(amount), row.Get("description"))
	if err != nil {
		rowErrors.Add(csvimport.NewRowError(row.LineNumber, "amount",
			csvimport.ErrCodeImportValidation, err.Error()))
		return false, nil
	}

	if dateStr := row.Get("date"); dateStr != "" {
		date, err := time.Parse(importDateFormat, dateStr)
		if err != nil {
			rowErrors.AddFormatError(row.LineNumber, "date", importDateFormat, dateStr)
			return false, nil
		}
		expense.CreatedAt = date.UTC()
	}

	catResult := s.categorizer.Categorize(ctx, expense.Description)
	if catResult.CategoryID != nil {
		expense.AssignCategory(*catResult.CategoryID)
	}

	if err := s.expenseRepo.Save(ctx, expense); err != nil {
		return false, fmt.Errorf("failed to save imported expense: %w", err)
	}
	logDomainEvents(s.logger, expense)

	if s.metrics != nil {
		s.metrics.RecordExpenseCreated(ctx, expense.Amount, catResult.CategoryName)
		source := "model"
		if catResult.Fallback {
			source = "fallback"
		}
		s.metrics.RecordCategorization(ctx, source)
	}
	return true, nil
}
