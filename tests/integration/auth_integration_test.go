// Package integration provides integration testing for the SpendLens backend API.
// This file covers the authentication endpoints against a real PostgreSQL database.
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	identityapp "github.com/spendlens/backend/internal/application/identity"
	"github.com/spendlens/backend/internal/infrastructure/auth"
	"github.com/spendlens/backend/internal/infrastructure/config"
	"github.com/spendlens/backend/internal/infrastructure/persistence"
	"github.com/spendlens/backend/internal/interfaces/http/handler"
	"github.com/spendlens/backend/internal/interfaces/http/middleware"
)

// AuthTestServer wraps the test database and HTTP server for auth API testing
type AuthTestServer struct {
	DB          *TestDB
	Engine      *gin.Engine
	UserRepo    *persistence.GormUserRepository
	AuthService *identityapp.AuthService
	JWTService  *auth.JWTService
	Blacklist   auth.TokenBlacklist
}

// NewAuthTestServer creates a new test server with auth infrastructure.
// Logout revocation is backed by the in-memory blacklist so revoked
// tokens are rejected by the JWT middleware within the same process.
func NewAuthTestServer(t *testing.T) *AuthTestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	testDB := NewTestDB(t)

	userRepo := persistence.NewGormUserRepository(testDB.DB)

	jwtConfig := config.JWTConfig{
		Secret:                 "test-secret-key-for-auth-testing-1234567890",
		RefreshSecret:          "test-refresh-secret-key-for-auth-testing",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "spendlens-test",
		MaxRefreshCount:        10,
	}
	jwtService := auth.NewJWTService(jwtConfig)
	blacklist := auth.NewInMemoryTokenBlacklist()

	logger := zap.NewNop()
	authService := identityapp.NewAuthService(
		userRepo, jwtService, blacklist, identityapp.DefaultAuthServiceConfig(), logger)

	authHandler := handler.NewAuthHandler(authService)

	engine := gin.New()
	api := engine.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.RefreshToken)

	protectedAuth := authGroup.Group("")
	protectedAuth.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         logger,
	}))
	protectedAuth.POST("/logout", authHandler.Logout)
	protectedAuth.GET("/me", authHandler.GetCurrentUser)
	protectedAuth.PUT("/password", authHandler.ChangePassword)

	return &AuthTestServer{
		DB:          testDB,
		Engine:      engine,
		UserRepo:    userRepo,
		AuthService: authService,
		JWTService:  jwtService,
		Blacklist:   blacklist,
	}
}

// Request makes an HTTP request to the test server
func (ts *AuthTestServer) Request(method, path string, body interface{}, token ...string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	if len(token) > 0 && token[0] != "" {
		req.Header.Set("Authorization", "Bearer "+token[0])
	}

	w := httptest.NewRecorder()
	ts.Engine.ServeHTTP(w, req)
	return w
}

// RegisterUser registers a user through the API and returns the token pair
func (ts *AuthTestServer) RegisterUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()

	w := ts.Request(http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, "registration failed: %s", w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	token := data["token"].(map[string]interface{})
	return token["access_token"].(string), token["refresh_token"].(string)
}

// =============================================================================
// Registration Tests
// =============================================================================

func TestAuth_Register(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAuthTestServer(t)

	t.Run("successful_registration_returns_tokens_and_user", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"email":        "alice@example.com",
			"password":     "SuperSecret123",
			"display_name": "Alice",
		}

		w := ts.Request(http.MethodPost, "/api/v1/auth/register", reqBody)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp["success"].(bool))

		data := resp["data"].(map[string]interface{})

		token := data["token"].(map[string]interface{})
		assert.NotEmpty(t, token["access_token"])
		assert.NotEmpty(t, token["refresh_token"])
		assert.NotEmpty(t, token["access_token_expires_at"])
		assert.Equal(t, "Bearer", token["token_type"])

		userInfo := data["user"].(map[string]interface{})
		assert.Equal(t, "alice@example.com", userInfo["email"])
		assert.Equal(t, "Alice", userInfo["display_name"])
		assert.NotEmpty(t, userInfo["id"])
	})

	t.Run("duplicate_email_returns_409", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"email":    "alice@example.com",
			"password": "AnotherSecret123",
		}

		w := ts.Request(http.MethodPost, "/api/v1/auth/register", reqBody)

		assert.Equal(t, http.StatusConflict, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp["success"].(bool))
	})

	t.Run("invalid_email_returns_400", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"email":    "not-an-email",
			"password": "SuperSecret123",
		}

		w := ts.Request(http.MethodPost, "/api/v1/auth/register", reqBody)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short_password_returns_400", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"email":    "bob@example.com",
			"password": "short",
		}

		w := ts.Request(http.MethodPost, "/api/v1/auth/register", reqBody)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("new_access_token_works_immediately", func(t *testing.T) {
		accessToken, _ := ts.RegisterUser(t, "carol@example.com", "SuperSecret123")

		w := ts.Request(http.MethodGet, "/api/v1/auth/me", nil, accessToken)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp["data"].(map[string]interface{})
		userInfo := data["user"].(map[string]interface{})
		assert.Equal(t, "carol@example.com", userInfo["email"])
	})
}

// =============================================================================
// Login Flow Tests
// =============================================================================

func TestAuth_LoginFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAuthTestServer(t)
	testPassword := "TestPass12345"
	ts.RegisterUser(t, "login@example.com", testPassword)

	t.Run("successful_login_returns_tokens_and_user_info", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"email":    "login@example.com",
			"password": testPassword,
		}

		w := ts.Request(http.MethodPost, "/api/v1/auth/login", reqBody)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.True(t, resp["success"].(bool))

		data := resp["data"].(map[string]interface{})
		token := data["token"].(map[string]interface{})
		assert.NotEmpty(t, token["access_token"])
		assert.NotEmpty(t, token["refresh_token"])
		assert.Equal(t, "Bearer", token["token_type"])

		userInfo := data["user"].(map[string]interface{})
		assert.Equal(t, "login@example.com", userInfo["email"])
		assert.NotEmpty(t, userInfo["last_login_at"])
	})

	t.Run("unknown_email_returns_401", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"email":    "nonexistent@example.com",
			"password": testPassword,
		}

		w := ts.Request(http.MethodPost, "/api/v1/auth/login", reqBody)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp["success"].(bool))
	})

	t.Run("wrong_password_returns_401", func(t *testing.T) {
		reqBody := map[string]interface{}{
			"email":    "login@example.com",
			"password": "WrongPassword123",
		}

		w := ts.Request(http.MethodPost, "/api/v1/auth/login", reqBody)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("repeated_failures_lock_the_account", func(t *testing.T) {
		lockPassword := "LockMeOut12345"
		ts.RegisterUser(t, "lockout@example.com", lockPassword)

		for i := 0; i < 5; i++ {
			ts.Request(http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
				"email":    "lockout@example.com",
				"password": "WrongPassword123",
			})
		}

		// Correct password is rejected while the account is locked
		w := ts.Request(http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
			"email":    "lockout@example.com",
			"password": lockPassword,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

// =============================================================================
// Token Refresh Tests
// =============================================================================

func TestAuth_RefreshToken(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAuthTestServer(t)
	_, refreshToken := ts.RegisterUser(t, "refresh@example.com", "SuperSecret123")

	t.Run("valid_refresh_token_returns_new_pair", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/refresh", map[string]interface{}{
			"refresh_token": refreshToken,
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp["data"].(map[string]interface{})
		token := data["token"].(map[string]interface{})
		assert.NotEmpty(t, token["access_token"])
		assert.NotEmpty(t, token["refresh_token"])

		// The new access token must be accepted by protected endpoints
		newAccess := token["access_token"].(string)
		me := ts.Request(http.MethodGet, "/api/v1/auth/me", nil, newAccess)
		assert.Equal(t, http.StatusOK, me.Code)
	})

	t.Run("garbage_refresh_token_returns_401", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/refresh", map[string]interface{}{
			"refresh_token": "not-a-valid-token",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("access_token_is_rejected_as_refresh_token", func(t *testing.T) {
		accessToken, _ := ts.RegisterUser(t, "refresh2@example.com", "SuperSecret123")

		w := ts.Request(http.MethodPost, "/api/v1/auth/refresh", map[string]interface{}{
			"refresh_token": accessToken,
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// =============================================================================
// Logout and Revocation Tests
// =============================================================================

func TestAuth_Logout(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAuthTestServer(t)
	accessToken, _ := ts.RegisterUser(t, "logout@example.com", "SuperSecret123")

	t.Run("logout_succeeds_with_valid_token", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/logout", nil, accessToken)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("revoked_token_is_rejected", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/auth/me", nil, accessToken)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout_without_token_returns_401", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/logout", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// =============================================================================
// Password Change Tests
// =============================================================================

func TestAuth_ChangePassword(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAuthTestServer(t)
	oldPassword := "OldSecret12345"
	newPassword := "NewSecret12345"
	accessToken, _ := ts.RegisterUser(t, "password@example.com", oldPassword)

	t.Run("wrong_old_password_is_rejected", func(t *testing.T) {
		w := ts.Request(http.MethodPut, "/api/v1/auth/password", map[string]interface{}{
			"old_password": "WrongOldPassword1",
			"new_password": newPassword,
		}, accessToken)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("change_password_succeeds", func(t *testing.T) {
		w := ts.Request(http.MethodPut, "/api/v1/auth/password", map[string]interface{}{
			"old_password": oldPassword,
			"new_password": newPassword,
		}, accessToken)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("old_password_no_longer_works", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
			"email":    "password@example.com",
			"password": oldPassword,
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("new_password_works", func(t *testing.T) {
		w := ts.Request(http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
			"email":    "password@example.com",
			"password": newPassword,
		})

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// =============================================================================
// Middleware Tests
// =============================================================================

func TestAuth_ProtectedEndpoints(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewAuthTestServer(t)

	t.Run("missing_token_returns_401", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/auth/me", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed_token_returns_401", func(t *testing.T) {
		w := ts.Request(http.MethodGet, "/api/v1/auth/me", nil, "garbage.token.value")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token_signed_with_wrong_secret_returns_401", func(t *testing.T) {
		otherService := auth.NewJWTService(config.JWTConfig{
			Secret:                 "a-completely-different-secret-key-000000",
			RefreshSecret:          "a-completely-different-refresh-key-0000",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "spendlens-test",
		})
		pair, err := otherService.GenerateTokenPair(auth.GenerateTokenInput{
			UserID: uuid.New(),
			Email:  "evil@example.com",
		})
		require.NoError(t, err)

		w := ts.Request(http.MethodGet, "/api/v1/auth/me", nil, pair.AccessToken)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
