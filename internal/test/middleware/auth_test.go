package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cookie-cutter-backend/internal/config"
	"cookie-cutter-backend/internal/middleware"
	"cookie-cutter-backend/internal/models"
)

const testSecret = "test-secret-key-for-jwt-signing-must-be-long-enough"

func newAuthRouter(onRequest func(c *gin.Context)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: testSecret}

	router := gin.New()
	router.Use(middleware.AuthMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		if onRequest != nil {
			onRequest(c)
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	router := newAuthRouter(nil)

	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	router := newAuthRouter(nil)

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	router := newAuthRouter(nil)

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	router := newAuthRouter(nil)
	tokenString := signToken(t, jwt.MapClaims{
		"email": "baker@example.com",
		"role":  "baker",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ValidBakerToken(t *testing.T) {
	router := newAuthRouter(func(c *gin.Context) {
		actor, ok := middleware.Actor(c)
		assert.True(t, ok)
		assert.Equal(t, models.RoleBaker, actor.Role)
		assert.Equal(t, "baker-123", actor.BakerID)
		assert.Equal(t, "baker@example.com", actor.Email)
	})
	tokenString := signToken(t, jwt.MapClaims{
		"email":    "baker@example.com",
		"role":     "baker",
		"baker_id": "baker-123",
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_BakerTokenMissingBakerID(t *testing.T) {
	router := newAuthRouter(nil)
	tokenString := signToken(t, jwt.MapClaims{
		"email": "baker@example.com",
		"role":  "baker",
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_AdminTokenNeedsNoBakerID(t *testing.T) {
	router := newAuthRouter(func(c *gin.Context) {
		actor, ok := middleware.Actor(c)
		assert.True(t, ok)
		assert.True(t, actor.IsAdmin())
	})
	tokenString := signToken(t, jwt.MapClaims{
		"email": "admin@example.com",
		"role":  "admin",
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_UnknownRole(t *testing.T) {
	router := newAuthRouter(nil)
	tokenString := signToken(t, jwt.MapClaims{
		"email": "x@example.com",
		"role":  "superuser",
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
