package finance

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/backend/internal/domain/catalog"
	"github.com/spendlens/backend/internal/domain/finance"
	"github.com/spendlens/backend/internal/domain/shared"
	"github.com/spendlens/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// ReceiptStorage is the object-storage surface the expense service needs.
// Implemented by the S3 adapter; nil when receipt storage is disabled.
type ReceiptStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// MetricsRecorder receives business counters from the expense workflow.
// Source is "model" or "fallback". A nil recorder disables recording.
type MetricsRecorder interface {
	RecordExpenseCreated(ctx context.Context, amount decimal.Decimal, categoryName string)
	RecordCategorization(ctx context.Context, source string)
	RecordReceiptUpload(ctx context.Context, contentType string)
}

// receiptContentTypes is the upload whitelist. Extensions feed the
// storage key so downloads keep a sensible filename.
var receiptContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// ExpenseServiceConfig bounds receipt uploads.
type ExpenseServiceConfig struct {
	MaxReceiptSize int64
}

// DefaultExpenseServiceConfig returns the default expense service configuration
func DefaultExpenseServiceConfig() ExpenseServiceConfig {
	return ExpenseServiceConfig{
		MaxReceiptSize: 5 * 1024 * 1024,
	}
}

// ExpenseService provides application-level expense operations
type ExpenseService struct {
	expenseRepo  finance.ExpenseRepository
	categoryRepo catalog.CategoryRepository
	categorizer  *CategorizationService
	storage      ReceiptStorage
	config       ExpenseServiceConfig
	metrics      MetricsRecorder
	logger       *zap.Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo finance.ExpenseRepository,
	categoryRepo catalog.CategoryRepository,
	categorizer *CategorizationService,
	storage ReceiptStorage,
	config ExpenseServiceConfig,
	logger *zap.Logger,
) *ExpenseService {
	if config.MaxReceiptSize <= 0 {
		config.MaxReceiptSize = DefaultExpenseServiceConfig().MaxReceiptSize
	}
	return &ExpenseService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		categorizer:  categorizer,
		storage:      storage,
		config:       config,
		logger:       logger,
	}
}

// SetMetricsRecorder attaches a business metrics recorder
func (s *ExpenseService) SetMetricsRecorder(metrics MetricsRecorder) {
	s.metrics = metrics
}

// Create validates the request, uploads the optional receipt, categorizes
// the description, and persists the expense. Categorization failure never
// blocks persistence; receipt upload failure does, before anything is
// saved, so the client can retry.
func (s *ExpenseService) Create(ctx context.Context, userID uuid.UUID, req CreateExpenseRequest) (*ExpenseResponse, error) {
	amount := valueobject.NewMoneyUSD(req.Amount)

	expense, err := finance.NewExpense(userID, amount, req.Description)
	if err != nil {
		return nil, err
	}

	if req.Receipt != nil {
		key, err := s.uploadReceipt(ctx, userID, req.Receipt)
		if err != nil {
			return nil, err
		}
		expense.AttachReceipt(key)
	}

	result := s.categorizer.Categorize(ctx, expense.Description)
	if result.CategoryID != nil {
		expense.AssignCategory(*result.CategoryID)
	}
	if result.Fallback {
		s.logger.Info("expense categorization fell back",
			zap.String("user_id", userID.String()),
			zap.String("category", result.CategoryName))
	}

	if err := s.expenseRepo.Save(ctx, expense); err != nil {
		return nil, err
	}
	logDomainEvents(s.logger, expense)

	if s.metrics != nil {
		s.metrics.RecordExpenseCreated(ctx, req.Amount, result.CategoryName)
		source := "model"
		if result.Fallback {
			source = "fallback"
		}
		s.metrics.RecordCategorization(ctx, source)
	}

	resp := toExpenseResponse(expense, result.CategoryName, s.receiptURL(ctx, expense))
	resp.UsedFallback = result.Fallback
	return resp, nil
}

// GetByID gets an expense owned by the user
func (s *ExpenseService) GetByID(ctx context.Context, userID, id uuid.UUID) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Expense not found")
	}

	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(expense, names[derefCategory(expense.CategoryID)], s.receiptURL(ctx, expense)), nil
}

// List lists the user's expenses with filtering and pagination
func (s *ExpenseService) List(ctx context.Context, userID uuid.UUID, filter ExpenseListFilter) (*shared.Paginated[ExpenseResponse], error) {
	domainFilter := finance.ExpenseFilter{
		CategoryID:    filter.CategoryID,
		Uncategorized: filter.Uncategorized,
		FromDate:      filter.FromDate,
		ToDate:        normalizeToDate(filter.ToDate),
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize

	expenses, err := s.expenseRepo.FindAllForUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.expenseRepo.CountForUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, err
	}

	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		e := &expenses[i]
		responses[i] = *toExpenseResponse(e, names[derefCategory(e.CategoryID)], s.receiptURL(ctx, e))
	}

	page, pageSize := domainFilter.Page, domainFilter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	paginated := shared.NewPaginated(responses, total, page, pageSize)
	return &paginated, nil
}

// Delete deletes an expense owned by the user. The receipt object is
// removed best-effort after the row is gone; failures are logged only.
func (s *ExpenseService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	expense, err := s.expenseRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return err
	}
	if expense == nil {
		return shared.NewDomainError("NOT_FOUND", "Expense not found")
	}

	if err := s.expenseRepo.DeleteForUser(ctx, userID, id); err != nil {
		return err
	}

	expense.MarkDeleted()
	logDomainEvents(s.logger, expense)

	if expense.HasReceipt() && s.storage != nil {
		if err := s.storage.Delete(ctx, expense.ReceiptKey); err != nil {
			s.logger.Warn("failed to delete receipt object",
				zap.String("key", expense.ReceiptKey),
				zap.Error(err))
		}
	}
	return nil
}

// logDomainEvents writes the aggregate's pending events to the structured
// log and clears them. There is no event bus; the log is the audit trail.
func logDomainEvents(logger *zap.Logger, agg shared.AggregateRoot) {
	for _, event := range agg.GetDomainEvents() {
		logger.Info("Domain event",
			zap.String("event_type", event.EventType()),
			zap.String("aggregate_type", event.AggregateType()),
			zap.String("aggregate_id", event.AggregateID().String()))
	}
	agg.ClearDomainEvents()
}

func (s *ExpenseService) uploadReceipt(ctx context.Context, userID uuid.UUID, receipt *ReceiptUpload) (string, error) {
	if s.storage == nil {
		return "", shared.ErrStorageUnavailable
	}

	ext, ok := receiptContentTypes[strings.ToLower(receipt.ContentType)]
	if !ok {
		return "", shared.NewDomainError("UNSUPPORTED_RECEIPT_TYPE",
			fmt.Sprintf("Receipt content type %q is not supported", receipt.ContentType))
	}
	if receipt.Size <= 0 || receipt.Size > s.config.MaxReceiptSize {
		return "", shared.NewDomainError("RECEIPT_TOO_LARGE",
			fmt.Sprintf("Receipt must be between 1 byte and %d bytes", s.config.MaxReceiptSize))
	}
	if declared := strings.ToLower(filepath.Ext(receipt.Filename)); declared != "" && declared != ext && !(declared == ".jpeg" && ext == ".jpg") {
		s.logger.Debug("receipt extension does not match content type",
			zap.String("filename", receipt.Filename),
			zap.String("content_type", receipt.ContentType))
	}

	key := fmt.Sprintf("receipts/%s/%s%s", userID, uuid.New(), ext)
	if err := s.storage.Upload(ctx, key, receipt.ContentType, receipt.Body, receipt.Size); err != nil {
		s.logger.Error("receipt upload failed", zap.String("key", key), zap.Error(err))
		return "", shared.ErrStorageUnavailable
	}
	if s.metrics != nil {
		s.metrics.RecordReceiptUpload(ctx, receipt.ContentType)
	}
	return key, nil
}

// receiptURL presigns a GET for the expense's receipt. Presign failures
// degrade to an empty URL rather than failing the read.
func (s *ExpenseService) receiptURL(ctx context.Context, expense *finance.Expense) string {
	if !expense.HasReceipt() || s.storage == nil {
		return ""
	}
	url, err := s.storage.PresignGet(ctx, expense.ReceiptKey)
	if err != nil {
		s.logger.Warn("failed to presign receipt url",
			zap.String("key", expense.ReceiptKey),
			zap.Error(err))
		return ""
	}
	return url
}

// categoryNames returns canonical name by id for response decoration.
func (s *ExpenseService) categoryNames(ctx context.Context) (map[uuid.UUID]string, error) {
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

func derefCategory(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

// normalizeToDate extends a date-only upper bound to the end of that day
// so `to_date=2024-01-31` includes the 31st.
func normalizeToDate(to *time.Time) *time.Time {
	if to == nil {
		return nil
	}
	if to.Hour() == 0 && to.Minute() == 0 && to.Second() == 0 && to.Nanosecond() == 0 {
		end := to.Add(24*time.Hour - time.Nanosecond)
		return &end
	}
	return to
}
