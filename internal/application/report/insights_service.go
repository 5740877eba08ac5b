package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spendlens/backend/internal/domain/report"
	"github.com/spendlens/backend/internal/infrastructure/llm"
	"go.uber.org/zap"
)

const (
	insightsMaxTokens   = 256
	insightsTemperature = 0.4
)

// CompletionClient is the language-model surface the insights writer
// needs. Failures are expected and degrade the response, never fail it.
type CompletionClient interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// InsightsService decorates spending summaries with a natural-language
// narrative written by the language model.
type InsightsService struct {
	analytics *AnalyticsService
	client    CompletionClient
	logger    *zap.Logger
}

// NewInsightsService creates a new InsightsService. A nil client always
// produces the degraded computed narrative.
func NewInsightsService(analytics *AnalyticsService, client CompletionClient, logger *zap.Logger) *InsightsService {
	return &InsightsService{
		analytics: analytics,
		client:    client,
		logger:    logger,
	}
}

// GetInsights computes the summary and asks the model for commentary.
// When the model is unavailable the summary is returned with a plain
// computed narrative and the degraded flag set.
func (s *InsightsService) GetInsights(ctx context.Context, userID uuid.UUID, filter report.ReportFilter) (*report.SpendingInsights, error) {
	summary, err := s.analytics.GetSummary(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	narrative, ok := s.narrate(ctx, summary)
	if !ok {
		return &report.SpendingInsights{
			Summary:   *summary,
			Narrative: computedNarrative(summary),
			Degraded:  true,
		}, nil
	}

	return &report.SpendingInsights{
		Summary:   *summary,
		Narrative: narrative,
	}, nil
}

func (s *InsightsService) narrate(ctx context.Context, summary *report.SpendingSummary) (string, bool) {
	if s.client == nil || summary.Count == 0 {
		return "", false
	}

	raw, err := s.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      buildInsightsPrompt(summary),
		MaxTokens:   insightsMaxTokens,
		Temperature: insightsTemperature,
	})
	if err != nil {
		s.logger.Warn("llm insights generation failed",
			zap.String("user_id", summary.UserID.String()),
			zap.Error(err))
		return "", false
	}
	narrative := strings.TrimSpace(raw)
	if narrative == "" {
		return "", false
	}
	return narrative, true
}

func buildInsightsPrompt(summary *report.SpendingSummary) string {
	var b strings.Builder
	b.WriteString("You are a personal finance assistant. Summarize the following spending data ")
	b.WriteString("in two or three sentences, pointing out the largest categories and any notable pattern. ")
	b.WriteString("Do not invent numbers that are not in the table.\n\n")
	fmt.Fprintf(&b, "Total spent: %s across %d expenses (average %s).\n", summary.Total.StringFixed(2), summary.Count, summary.Average.StringFixed(2))
	b.WriteString("By category:\n")
	for _, row := range summary.ByCategory {
		fmt.Fprintf(&b, "- %s: %s (%d expenses, %s%%)\n", row.CategoryName, row.Total.StringFixed(2), row.Count, row.Percentage.StringFixed(1))
	}
	if len(summary.ByMonth) > 0 {
		b.WriteString("By month:\n")
		for _, row := range summary.ByMonth {
			fmt.Fprintf(&b, "- %04d-%02d: %s (%d expenses)\n", row.Year, row.Month, row.Total.StringFixed(2), row.Count)
		}
	}
	return b.String()
}

// computedNarrative is the deterministic fallback used when the model is
// unavailable.
func computedNarrative(summary *report.SpendingSummary) string {
	if summary.Count == 0 {
		return "No expenses recorded in this period."
	}
	top := TopCategory(summary)
	return fmt.Sprintf("You spent %s across %d expenses. Your largest category was %s at %s (%s%% of total).",
		summary.Total.StringFixed(2), summary.Count,
		top.CategoryName, top.Total.StringFixed(2), top.Percentage.StringFixed(1))
}
