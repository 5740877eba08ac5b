package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategory(t *testing.T) {
	t.Run("creates category with valid name", func(t *testing.T) {
		category, err := NewCategory("Food")
		require.NoError(t, err)
		require.NotNil(t, category)

		assert.Equal(t, "food", category.Name)
		assert.Equal(t, "Food", category.DisplayName)
		assert.Equal(t, CategoryStatusActive, category.Status)
		assert.True(t, category.IsActive())
		assert.NotEmpty(t, category.ID)
	})

	t.Run("lowercases and trims the matching key", func(t *testing.T) {
		category, err := NewCategory("  Personal Care ")
		require.NoError(t, err)
		assert.Equal(t, "personal care", category.Name)
		assert.Equal(t, "Personal Care", category.DisplayName)
	})

	t.Run("publishes CategoryCreated event", func(t *testing.T) {
		category, err := NewCategory("Fuel")
		require.NoError(t, err)

		events := category.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeCategoryCreated, events[0].EventType())
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewCategory("   ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("fails with name too long", func(t *testing.T) {
		_, err := NewCategory(strings.Repeat("x", 101))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed 100 characters")
	})
}

func TestCategoryMarkDeleted(t *testing.T) {
	category, err := NewCategory("Fuel")
	require.NoError(t, err)
	category.ClearDomainEvents()

	category.MarkDeleted()

	events := category.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeCategoryDeleted, events[0].EventType())
}

func TestCategoryDeactivate(t *testing.T) {
	category, err := NewCategory("Retail")
	require.NoError(t, err)

	require.NoError(t, category.Deactivate())
	assert.False(t, category.IsActive())

	err = category.Deactivate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already inactive")
}

func TestBuildCategoryMap(t *testing.T) {
	food, err := NewCategory("Food")
	require.NoError(t, err)
	fuel, err := NewCategory("Fuel")
	require.NoError(t, err)
	retired, err := NewCategory("Retired")
	require.NoError(t, err)
	require.NoError(t, retired.Deactivate())

	m := BuildCategoryMap([]Category{*food, *fuel, *retired})

	assert.Len(t, m, 2)
	assert.Equal(t, food.ID, m["food"])
	assert.Equal(t, fuel.ID, m["fuel"])
	_, present := m["retired"]
	assert.False(t, present)
}

func TestCategoryMapNamesSorted(t *testing.T) {
	m := categoryMapOf("utilities", "food", "fuel")
	assert.Equal(t, []string{"food", "fuel", "utilities"}, m.Names())
}
