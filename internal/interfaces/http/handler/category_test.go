package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appcatalog "github.com/spendlens/backend/internal/application/catalog"
	"github.com/spendlens/backend/internal/domain/catalog"
	"github.com/spendlens/backend/internal/domain/finance"
	"github.com/spendlens/backend/internal/domain/shared"
	"github.com/spendlens/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockCategoryRepository is a mock implementation of catalog.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByName(ctx context.Context, name string) (*catalog.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAllActive(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockExpenseRepository is a mock implementation of finance.ExpenseRepository
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*finance.Expense, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter finance.ExpenseFilter) ([]finance.Expense, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockExpenseRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter finance.ExpenseFilter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExpenseRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExpenseRepository) SumForUser(ctx context.Context, userID uuid.UUID, filter finance.ExpenseFilter) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockExpenseRepository) TotalsByCategory(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]finance.CategoryTotal, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.CategoryTotal), args.Error(1)
}

func (m *MockExpenseRepository) TotalsByMonth(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]finance.MonthlyTotal, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.MonthlyTotal), args.Error(1)
}

func mustCategory(t *testing.T, displayName string) *catalog.Category {
	t.Helper()
	category, err := catalog.NewCategory(displayName)
	require.NoError(t, err)
	return category
}

func mustExpense(t *testing.T, userID uuid.UUID, amount, description string) *finance.Expense {
	t.Helper()
	value, err := decimal.NewFromString(amount)
	require.NoError(t, err)
	expense, err := finance.NewExpense(userID, valueobject.NewMoneyUSD(value), description)
	require.NoError(t, err)
	return expense
}

type categoryFixture struct {
	categoryRepo *MockCategoryRepository
	expenseRepo  *MockExpenseRepository
	router       *gin.Engine
	userID       uuid.UUID
}

func newCategoryFixture() *categoryFixture {
	gin.SetMode(gin.TestMode)

	categoryRepo := new(MockCategoryRepository)
	expenseRepo := new(MockExpenseRepository)
	service := appcatalog.NewCategoryService(categoryRepo, expenseRepo, zap.NewNop())
	handler := NewCategoryHandler(service)

	userID := uuid.New()
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("jwt_user_id", userID.String())
	})
	r.POST("/api/v1/categories", handler.Create)
	r.GET("/api/v1/categories", handler.List)
	r.GET("/api/v1/categories/:id", handler.GetByID)
	r.PUT("/api/v1/categories/:id", handler.Update)
	r.DELETE("/api/v1/categories/:id", handler.Delete)

	return &categoryFixture{
		categoryRepo: categoryRepo,
		expenseRepo:  expenseRepo,
		router:       r,
		userID:       userID,
	}
}

func (f *categoryFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCategoryHandler_Create_Success(t *testing.T) {
	f := newCategoryFixture()
	f.categoryRepo.On("ExistsByName", mock.Anything, "dining out").Return(false, nil)
	f.categoryRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	w := f.do(t, http.MethodPost, "/api/v1/categories", appcatalog.CreateCategoryRequest{
		Name: "Dining Out",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp["success"].(bool))

	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "dining out", data["name"])
	assert.Equal(t, "Dining Out", data["display_name"])
	assert.Equal(t, "active", data["status"])
}

func TestCategoryHandler_Create_Duplicate(t *testing.T) {
	f := newCategoryFixture()
	f.categoryRepo.On("ExistsByName", mock.Anything, "food").Return(true, nil)

	w := f.do(t, http.MethodPost, "/api/v1/categories", appcatalog.CreateCategoryRequest{
		Name: "Food",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCategoryHandler_Create_MissingName(t *testing.T) {
	f := newCategoryFixture()

	w := f.do(t, http.MethodPost, "/api/v1/categories", appcatalog.CreateCategoryRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoryHandler_List(t *testing.T) {
	f := newCategoryFixture()

	food := mustCategory(t, "Food")
	travel := mustCategory(t, "Travel")
	f.categoryRepo.On("FindAllActive", mock.Anything).Return([]catalog.Category{*food, *travel}, nil)

	w := f.do(t, http.MethodGet, "/api/v1/categories", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].([]interface{})
	assert.Len(t, data, 2)
}

func TestCategoryHandler_GetByID(t *testing.T) {
	f := newCategoryFixture()

	food := mustCategory(t, "Food")
	f.categoryRepo.On("FindByID", mock.Anything, food.ID).Return(food, nil)

	w := f.do(t, http.MethodGet, "/api/v1/categories/"+food.ID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, food.ID.String(), data["id"])
}

func TestCategoryHandler_GetByID_NotFound(t *testing.T) {
	f := newCategoryFixture()

	id := uuid.New()
	f.categoryRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	w := f.do(t, http.MethodGet, "/api/v1/categories/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategoryHandler_GetByID_InvalidID(t *testing.T) {
	f := newCategoryFixture()

	w := f.do(t, http.MethodGet, "/api/v1/categories/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoryHandler_Update(t *testing.T) {
	f := newCategoryFixture()

	food := mustCategory(t, "Food")
	f.categoryRepo.On("FindByID", mock.Anything, food.ID).Return(food, nil)
	f.categoryRepo.On("Save", mock.Anything, food).Return(nil)

	w := f.do(t, http.MethodPut, "/api/v1/categories/"+food.ID.String(), appcatalog.UpdateCategoryRequest{
		Description: "Groceries and restaurants",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Groceries and restaurants", data["description"])
}

func TestCategoryHandler_Delete_Success(t *testing.T) {
	f := newCategoryFixture()

	food := mustCategory(t, "Food")
	f.categoryRepo.On("FindByID", mock.Anything, food.ID).Return(food, nil)
	f.expenseRepo.On("CountByCategory", mock.Anything, food.ID).Return(int64(0), nil)
	f.categoryRepo.On("Delete", mock.Anything, food.ID).Return(nil)

	w := f.do(t, http.MethodDelete, "/api/v1/categories/"+food.ID.String(), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCategoryHandler_Delete_InUse(t *testing.T) {
	f := newCategoryFixture()

	food := mustCategory(t, "Food")
	f.categoryRepo.On("FindByID", mock.Anything, food.ID).Return(food, nil)
	f.expenseRepo.On("CountByCategory", mock.Anything, food.ID).Return(int64(3), nil)

	w := f.do(t, http.MethodDelete, "/api/v1/categories/"+food.ID.String(), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	errInfo := resp["error"].(map[string]interface{})
	assert.Equal(t, "ERR_CATEGORY_IN_USE", errInfo["code"])
}
