package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindByID finds a category by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindByName finds a category by its canonical (lowercase) name
	FindByName(ctx context.Context, name string) (*Category, error)

	// FindAll finds all categories ordered by name
	FindAll(ctx context.Context) ([]Category, error)

	// FindAllActive finds all active categories
	FindAllActive(ctx context.Context) ([]Category, error)

	// Save creates or updates a category
	Save(ctx context.Context, category *Category) error

	// Delete deletes a category
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsByName checks if a category with the given canonical name exists
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Count counts all categories
	Count(ctx context.Context) (int64, error)
}
