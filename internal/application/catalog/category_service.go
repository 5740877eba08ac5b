package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/spendlens/backend/internal/domain/catalog"
	"github.com/spendlens/backend/internal/domain/finance"
	"github.com/spendlens/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CategoryService handles category business operations. Categories are
// shared across all users of the deployment.
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	expenseRepo  finance.ExpenseRepository
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	categoryRepo catalog.CategoryRepository,
	expenseRepo finance.ExpenseRepository,
	logger *zap.Logger,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		expenseRepo:  expenseRepo,
		logger:       logger,
	}
}

// Create creates a new category. The stored name is the canonical
// (lowercased, trimmed) form of the display name.
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	category, err := catalog.NewCategory(req.Name)
	if err != nil {
		return nil, err
	}

	exists, err := s.categoryRepo.ExistsByName(ctx, category.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Category with this name already exists")
	}

	if req.Description != "" {
		category.Update(req.Description)
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	logDomainEvents(s.logger, category)

	s.logger.Info("Category created",
		zap.String("category_id", category.ID.String()),
		zap.String("name", category.Name))

	return ToCategoryResponse(category), nil
}

// GetByID retrieves a category by ID
func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return ToCategoryResponse(category), nil
}

// List retrieves all active categories sorted by name
func (s *CategoryService) List(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = *ToCategoryResponse(&categories[i])
	}

	return responses, nil
}

// Update updates a category's description
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Update(req.Description)

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	return ToCategoryResponse(category), nil
}

// Delete removes a category. Deletion is blocked while any expense
// still references the category.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	inUse, err := s.expenseRepo.CountByCategory(ctx, category.ID)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return shared.ErrCategoryInUse
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}

	category.MarkDeleted()
	logDomainEvents(s.logger, category)

	s.logger.Info("Category deleted",
		zap.String("category_id", id.String()),
		zap.String("name", category.Name))

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

// ActiveCategoryMap loads all active categories as a canonical-name
// lookup used by expense categorization
func (s *CategoryService) ActiveCategoryMap(ctx context.Context) (catalog.CategoryMap, error) {
	categories, err := s.categoryRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.BuildCategoryMap(categories), nil
}
