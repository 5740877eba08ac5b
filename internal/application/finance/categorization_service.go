package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spendlens/backend/internal/domain/catalog"
	"github.com/spendlens/backend/internal/infrastructure/llm"
	"go.uber.org/zap"
)

// DefaultFallbackCategory is the canonical name assigned when automatic
// categorization cannot produce a match.
const DefaultFallbackCategory = "other"

const (
	categorizeMaxTokens   = 16
	categorizeTemperature = 0.1
)

// categorizeStopSequences truncate run-on completions at the first
// sentence boundary.
var categorizeStopSequences = []string{".", "\n"}

// CategorizationResult is the outcome of a categorization attempt. A nil
// CategoryID means not even the fallback category could be resolved and
// the expense stays uncategorized.
type CategorizationResult struct {
	CategoryID   *uuid.UUID
	CategoryName string
	Fallback     bool
}

// CategorizationService resolves an expense description to a known
// category via the language model. It is deliberately infallible from the
// caller's point of view: every failure mode degrades to the fallback
// category so expense persistence is never blocked.
type CategorizationService struct {
	categoryRepo catalog.CategoryRepository
	client       CompletionClient
	normalizer   *catalog.Normalizer
	fallbackName string
	logger       *zap.Logger
}

// NewCategorizationService creates a new CategorizationService. A nil
// client disables LLM calls and every request takes the fallback path.
func NewCategorizationService(
	categoryRepo catalog.CategoryRepository,
	client CompletionClient,
	fallbackName string,
	logger *zap.Logger,
) *CategorizationService {
	if fallbackName == "" {
		fallbackName = DefaultFallbackCategory
	}
	return &CategorizationService{
		categoryRepo: categoryRepo,
		client:       client,
		normalizer:   catalog.NewNormalizer(),
		fallbackName: strings.ToLower(fallbackName),
		logger:       logger,
	}
}

// Categorize maps description onto one of the active categories. The
// category map is rebuilt from the repository on every call so a request
// always classifies against the current category set.
func (s *CategorizationService) Categorize(ctx context.Context, description string) CategorizationResult {
	categories, err := s.loadCategories(ctx)
	if err != nil {
		s.logger.Warn("failed to load categories for categorization", zap.Error(err))
		return CategorizationResult{Fallback: true}
	}
	if len(categories) == 0 {
		return CategorizationResult{Fallback: true}
	}

	name, ok := s.classify(ctx, description, categories)
	if !ok {
		return s.fallback(categories)
	}

	id := categories[name]
	return CategorizationResult{CategoryID: &id, CategoryName: name}
}

func (s *CategorizationService) loadCategories(ctx context.Context) (catalog.CategoryMap, error) {
	active, err := s.categoryRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.BuildCategoryMap(active), nil
}

// classify runs the LLM round-trip and normalization. Any error, empty
// completion, or normalizer miss reports no match.
func (s *CategorizationService) classify(ctx context.Context, description string, categories catalog.CategoryMap) (string, bool) {
	if s.client == nil {
		return "", false
	}

	raw, err := s.client.Complete(ctx, llm.CompletionRequest{
		Prompt:        buildCategorizationPrompt(description, categories.Names()),
		MaxTokens:     categorizeMaxTokens,
		Temperature:   categorizeTemperature,
		StopSequences: categorizeStopSequences,
	})
	if err != nil {
		s.logger.Warn("llm categorization failed",
			zap.String("description", description),
			zap.Error(err))
		return "", false
	}
	if strings.TrimSpace(raw) == "" {
		s.logger.Warn("llm returned empty completion", zap.String("description", description))
		return "", false
	}

	name, ok := s.normalizer.Normalize(raw, categories)
	if !ok {
		s.logger.Info("llm completion did not normalize to a category",
			zap.String("description", description),
			zap.String("completion", raw))
		return "", false
	}
	return name, true
}

func (s *CategorizationService) fallback(categories catalog.CategoryMap) CategorizationResult {
	if id, ok := categories[s.fallbackName]; ok {
		return CategorizationResult{CategoryID: &id, CategoryName: s.fallbackName, Fallback: true}
	}
	// Fallback category is seeded by migration; missing means the
	// operator removed it. Persist uncategorized rather than failing.
	s.logger.Warn("fallback category missing", zap.String("name", s.fallbackName))
	return CategorizationResult{Fallback: true}
}

func buildCategorizationPrompt(description string, names []string) string {
	return fmt.Sprintf(
		"Classify the following expense into exactly one of these categories: %s.\n"+
			"Expense description: %q\n"+
			"Answer with only the category name, nothing else.",
		strings.Join(names, ", "), description)
}
