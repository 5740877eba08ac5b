package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/spendlens/backend/internal/domain/catalog"
)

// CreateCategoryRequest contains the input for creating a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=1000"`
}

// UpdateCategoryRequest contains the input for updating a category
type UpdateCategoryRequest struct {
	Description string `json:"description" binding:"max=1000"`
}

// CategoryResponse is the API representation of a category
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToCategoryResponse converts a domain category to its API representation
func ToCategoryResponse(category *catalog.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		DisplayName: category.DisplayName,
		Description: category.Description,
		Status:      string(category.Status),
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}
