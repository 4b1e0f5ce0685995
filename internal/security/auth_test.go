package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/openclaw/vivian-memory/internal/config"
	"github.com/stretchr/testify/require"
)

func authRouter(keys map[string]string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	resolver := NewTokenResolver(&config.Config{APIKeys: keys})
	router.GET("/protected", AuthMiddleware(resolver), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"client": GetClientID(c)})
	})
	return router
}

func TestAuthMiddleware_MissingTokenRejected(t *testing.T) {
	router := authRouter(map[string]string{"secret": "agent"})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_InvalidTokenRejected(t *testing.T) {
	router := authRouter(map[string]string{"secret": "agent"})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_ValidTokenResolvesClientID(t *testing.T) {
	router := authRouter(map[string]string{"secret": "agent"})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"client":"agent"}`, rec.Body.String())
}

func TestTokenResolver_EmptyToken(t *testing.T) {
	resolver := NewTokenResolver(&config.Config{APIKeys: map[string]string{"k": "c"}})
	require.Empty(t, resolver.Resolve(""))
}
