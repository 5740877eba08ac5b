package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spendlens/backend/internal/domain/shared"
)

// CategoryStatus represents the status of a category
type CategoryStatus string

const (
	CategoryStatusActive   CategoryStatus = "active"
	CategoryStatusInactive CategoryStatus = "inactive"
)

// Category represents a spending bucket expenses are classified into.
// Name is the canonical matching key and is always stored lowercase;
// DisplayName preserves the caller's casing for presentation.
type Category struct {
	shared.BaseAggregateRoot
	Name        string         `gorm:"type:varchar(100);not null;uniqueIndex"`
	DisplayName string         `gorm:"type:varchar(100);not null"`
	Description string         `gorm:"type:text"`
	Status      CategoryStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new category. The display name keeps the given
// casing; the matching key is its lowercased, trimmed form.
func NewCategory(displayName string) (*Category, error) {
	if err := validateCategoryName(displayName); err != nil {
		return nil, err
	}

	category := &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              CanonicalName(displayName),
		DisplayName:       strings.TrimSpace(displayName),
		Status:            CategoryStatusActive,
	}

	category.AddDomainEvent(NewCategoryCreatedEvent(category))

	return category, nil
}

// Update updates the category's description
func (c *Category) Update(description string) {
	c.Description = description
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// Deactivate deactivates the category
func (c *Category) Deactivate() error {
	if c.Status == CategoryStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Category is already inactive")
	}

	c.Status = CategoryStatusInactive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// MarkDeleted raises the deletion event for a category about to be removed.
func (c *Category) MarkDeleted() {
	c.AddDomainEvent(NewCategoryDeletedEvent(c))
}

// IsActive returns true if the category is active
func (c *Category) IsActive() bool {
	return c.Status == CategoryStatusActive
}

// CanonicalName returns the canonical matching key for a category name
func CanonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CategoryMap maps canonical (lowercase) category names to category IDs.
// It is built fresh per categorization request and never shared across
// requests.
type CategoryMap map[string]uuid.UUID

// BuildCategoryMap builds a CategoryMap from persisted categories.
// Inactive categories and empty names are skipped.
func BuildCategoryMap(categories []Category) CategoryMap {
	m := make(CategoryMap, len(categories))
	for i := range categories {
		c := &categories[i]
		if !c.IsActive() || c.Name == "" {
			continue
		}
		m[c.Name] = c.ID
	}
	return m
}

// Names returns the map keys in sorted order for deterministic iteration
func (m CategoryMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// validateCategoryName validates the category name
func validateCategoryName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(trimmed) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}
