// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks expense activity, automatic categorization
// outcomes, and export usage.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	expenseCreatedTotal         *Counter
	expenseAmountTotal          *Counter
	categorizationTotal         *Counter
	categorizationFallbackTotal *Counter
	receiptUploadTotal          *Counter
	exportTotal                 *Counter

	// Gauge metrics (point-in-time values)
	uncategorizedCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	expenseProvider ExpenseMetricsProvider
}

// ExpenseMetricsProvider provides expense data for periodic metrics
// collection. The interface keeps the telemetry layer from depending on
// the finance domain directly.
type ExpenseMetricsProvider interface {
	// GetUncategorizedCount returns the number of expenses with no
	// resolved category across all users
	GetUncategorizedCount(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	ExpenseProvider ExpenseMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		expenseProvider: cfg.ExpenseProvider,
	}

	var err error

	bm.expenseCreatedTotal, err = NewCounter(
		cfg.Meter,
		"expense_created_total",
		"Total number of expenses created",
		"{expenses}",
	)
	if err != nil {
		return nil, err
	}

	bm.expenseAmountTotal, err = NewCounter(
		cfg.Meter,
		"expense_amount_total",
		"Total expense amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.categorizationTotal, err = NewCounter(
		cfg.Meter,
		"categorization_requests_total",
		"Total number of automatic categorization attempts",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	bm.categorizationFallbackTotal, err = NewCounter(
		cfg.Meter,
		"categorization_fallback_total",
		"Number of categorizations that fell back to the default category",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	bm.receiptUploadTotal, err = NewCounter(
		cfg.Meter,
		"receipt_upload_total",
		"Total number of receipt uploads",
		"{uploads}",
	)
	if err != nil {
		return nil, err
	}

	bm.exportTotal, err = NewCounter(
		cfg.Meter,
		"export_total",
		"Total number of expense exports",
		"{exports}",
	)
	if err != nil {
		return nil, err
	}

	bm.uncategorizedCount, err = NewGauge(
		cfg.Meter,
		"expense_uncategorized_count",
		"Number of expenses with no resolved category",
		"{expenses}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Expense Metrics
// =============================================================================

// RecordExpenseCreated records an expense creation with its amount.
// Amount is converted to cents for the counter.
func (bm *BusinessMetrics) RecordExpenseCreated(ctx context.Context, amount decimal.Decimal, categoryName string) {
	bm.expenseCreatedTotal.Inc(ctx,
		AttrCategoryName.String(categoryName),
	)
	amountCents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.expenseAmountTotal.Add(ctx, amountCents,
		AttrCategoryName.String(categoryName),
	)
}

// =============================================================================
// Categorization Metrics
// =============================================================================

// CategorySource labels how a categorization attempt resolved.
type CategorySource string

const (
	CategorySourceModel    CategorySource = "model"
	CategorySourceFallback CategorySource = "fallback"
)

// RecordCategorization records a categorization attempt and, when it fell
// back, the fallback counter.
func (bm *BusinessMetrics) RecordCategorization(ctx context.Context, source CategorySource) {
	bm.categorizationTotal.Inc(ctx,
		AttrCategorySource.String(string(source)),
	)
	if source == CategorySourceFallback {
		bm.categorizationFallbackTotal.Inc(ctx)
	}
}

// =============================================================================
// Receipt and Export Metrics
// =============================================================================

// RecordReceiptUpload records a stored receipt by content type.
func (bm *BusinessMetrics) RecordReceiptUpload(ctx context.Context, contentType string) {
	bm.receiptUploadTotal.Inc(ctx,
		AttrContentType.String(contentType),
	)
}

// RecordExport records a completed export by format (csv or pdf).
func (bm *BusinessMetrics) RecordExport(ctx context.Context, format string) {
	bm.exportTotal.Inc(ctx,
		AttrExportFormat.String(format),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectExpenseMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectExpenseMetrics(ctx)
		}
	}
}

// collectExpenseMetrics collects expense gauge metrics.
func (bm *BusinessMetrics) collectExpenseMetrics(ctx context.Context) {
	if bm.expenseProvider == nil {
		bm.logger.Debug("No expense provider configured, skipping expense metrics collection")
		return
	}

	count, err := bm.expenseProvider.GetUncategorizedCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get uncategorized expense count", zap.Error(err))
		return
	}
	bm.uncategorizedCount.Record(ctx, count)
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
