package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubedigest/infrastructure/utils"
	"tubedigest/interfaces/middleware"
)

const testSecret = "test-secret"

func protectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Auth(testSecret))
	router.GET("/protected", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"email": ctx.GetString("email")})
	})
	return router
}

func mintToken(t *testing.T, secret string, ttl time.Duration) string {
	t.Helper()
	now := time.Now().UTC()
	token, err := utils.GenerateToken(map[string]interface{}{
		"email": "a@b.test",
		"iss":   "u-1",
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}, secret)
	require.NoError(t, err)
	return token
}

func TestAuth_NoTokenIs401(t *testing.T) {
	router := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_BearerTokenAccepted(t *testing.T) {
	router := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, time.Hour))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@b.test")
}

func TestAuth_CookieTokenAccepted(t *testing.T) {
	router := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: mintToken(t, testSecret, time.Hour)})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_ExpiredTokenIs401(t *testing.T) {
	router := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, -time.Hour))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_WrongKeyIs401(t *testing.T) {
	router := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, "other-secret", time.Hour))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_GarbageTokenIs401(t *testing.T) {
	router := protectedRouter()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "That's not even a token")
}
