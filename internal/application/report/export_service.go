package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"html/template"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlens/backend/internal/domain/catalog"
	"github.com/spendlens/backend/internal/domain/finance"
	"github.com/spendlens/backend/internal/domain/report"
	"github.com/spendlens/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// exportPageSize bounds memory while walking a user's full history.
const exportPageSize = 500

// PDFRenderer renders a complete HTML document to PDF bytes.
// Implemented by the chromedp adapter; nil when PDF export is disabled.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// ExportMetricsRecorder counts completed exports by format.
// A nil recorder disables recording.
type ExportMetricsRecorder interface {
	RecordExport(ctx context.Context, format string)
}

// ExportService streams a user's expenses as CSV or a rendered PDF
type ExportService struct {
	expenseRepo  finance.ExpenseRepository
	categoryRepo catalog.CategoryRepository
	renderer     PDFRenderer
	metrics      ExportMetricsRecorder
	logger       *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	expenseRepo finance.ExpenseRepository,
	categoryRepo catalog.CategoryRepository,
	renderer PDFRenderer,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		renderer:     renderer,
		logger:       logger,
	}
}

// SetMetricsRecorder attaches a business metrics recorder
func (s *ExportService) SetMetricsRecorder(metrics ExportMetricsRecorder) {
	s.metrics = metrics
}

// WriteCSV streams the user's expenses for the period as CSV rows.
// Rows are written oldest first so repeated exports diff cleanly.
func (s *ExportService) WriteCSV(ctx context.Context, userID uuid.UUID, filter report.ReportFilter, w io.Writer) error {
	names, err := s.categoryNames(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "amount", "description", "category", "created_at"}); err != nil {
		return err
	}

	err = s.walkExpenses(ctx, userID, filter, func(e *finance.Expense) error {
		return cw.Write([]string{
			e.ID.String(),
			e.Amount.StringFixed(2),
			e.Description,
			categoryLabel(e.CategoryID, names),
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	})
	if err != nil {
		return err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordExport(ctx, "csv")
	}
	return nil
}

// pdfTemplate is the report layout printed to PDF. Kept self-contained
// so the renderer needs no external assets.
var pdfTemplate = template.Must(template.New("expense_report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Expense Report</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #222; }
h1 { font-size: 18px; margin-bottom: 2px; }
.period { color: #666; margin-bottom: 16px; }
table { width: 100%; border-collapse: collapse; }
th, td { border-bottom: 1px solid #ddd; padding: 6px 8px; text-align: left; }
th { background: #f5f5f5; }
td.amount, th.amount { text-align: right; }
tfoot td { font-weight: bold; border-top: 2px solid #222; }
</style>
</head>
<body>
<h1>Expense Report</h1>
<div class="period">{{ .Period }}</div>
<table>
<thead>
<tr><th>Date</th><th>Description</th><th>Category</th><th class="amount">Amount</th></tr>
</thead>
<tbody>
{{ range .Rows }}<tr><td>{{ .Date }}</td><td>{{ .Description }}</td><td>{{ .Category }}</td><td class="amount">{{ .Amount }}</td></tr>
{{ end }}</tbody>
<tfoot>
<tr><td colspan="3">Total ({{ .Count }} expenses)</td><td class="amount">{{ .Total }}</td></tr>
</tfoot>
</table>
</body>
</html>
`))

type pdfRow struct {
	Date        string
	Description string
	Category    string
	Amount      string
}

type pdfData struct {
	Period string
	Rows   []pdfRow
	Count  int
	Total  string
}

// RenderPDF renders the user's expenses for the period as a PDF document
func (s *ExportService) RenderPDF(ctx context.Context, userID uuid.UUID, filter report.ReportFilter) ([]byte, error) {
	if s.renderer == nil {
		return nil, shared.NewDomainError("PDF_DISABLED", "PDF export is not enabled")
	}

	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}

	data := pdfData{Period: periodLabel(filter)}
	total := decimal.Zero
	err = s.walkExpenses(ctx, userID, filter, func(e *finance.Expense) error {
		data.Rows = append(data.Rows, pdfRow{
			Date:        e.CreatedAt.UTC().Format("2006-01-02"),
			Description: e.Description,
			Category:    titleCase(categoryLabel(e.CategoryID, names)),
			Amount:      e.Amount.StringFixed(2),
		})
		total = total.Add(e.Amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	data.Count = len(data.Rows)
	data.Total = total.StringFixed(2)

	var buf bytes.Buffer
	if err := pdfTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}

	pdf, err := s.renderer.RenderHTML(ctx, buf.String())
	if err != nil {
		s.logger.Error("pdf rendering failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("PDF_RENDER_FAILED", "Failed to render PDF report")
	}
	if s.metrics != nil {
		s.metrics.RecordExport(ctx, "pdf")
	}
	return pdf, nil
}

// walkExpenses visits every expense in the period, oldest first, in
// bounded pages.
func (s *ExportService) walkExpenses(ctx context.Context, userID uuid.UUID, filter report.ReportFilter, visit func(*finance.Expense) error) error {
	domainFilter := finance.ExpenseFilter{
		FromDate: filter.StartDate,
		ToDate:   filter.EndDate,
	}
	domainFilter.PageSize = exportPageSize
	domainFilter.OrderBy = "created_at"
	domainFilter.OrderDir = "asc"

	for page := 1; ; page++ {
		domainFilter.Page = page
		expenses, err := s.expenseRepo.FindAllForUser(ctx, userID, domainFilter)
		if err != nil {
			return err
		}
		for i := range expenses {
			if err := visit(&expenses[i]); err != nil {
				return err
			}
		}
		if len(expenses) < exportPageSize {
			return nil
		}
	}
}

func (s *ExportService) categoryNames(ctx context.Context) (map[uuid.UUID]string, error) {
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

func categoryLabel(id *uuid.UUID, names map[uuid.UUID]string) string {
	if id == nil {
		return UncategorizedLabel
	}
	if name, ok := names[*id]; ok {
		return name
	}
	return UncategorizedLabel
}

// titleCase uppercases category labels for the printed report. CSV
// keeps the canonical lowercase names.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func periodLabel(filter report.ReportFilter) string {
	switch {
	case filter.StartDate != nil && filter.EndDate != nil:
		return filter.StartDate.Format("2006-01-02") + " to " + filter.EndDate.Format("2006-01-02")
	case filter.StartDate != nil:
		return "From " + filter.StartDate.Format("2006-01-02")
	case filter.EndDate != nil:
		return "Through " + filter.EndDate.Format("2006-01-02")
	default:
		return "All time"
	}
}
