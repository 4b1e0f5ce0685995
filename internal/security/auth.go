package security

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/openclaw/vivian-memory/internal/config"
)

const (
	// ContextKeyClientID is the gin context key for the authenticated client ID.
	ContextKeyClientID = "clientID"
)

// TokenResolver resolves bearer API keys to client IDs. Initialized once at
// startup and shared by all routes.
type TokenResolver struct {
	apiKeys map[string]string // key value → clientId
}

// NewTokenResolver creates a TokenResolver from the application config.
func NewTokenResolver(cfg *config.Config) *TokenResolver {
	if len(cfg.APIKeys) == 0 {
		log.Warn("No API keys configured; all authenticated routes will reject requests")
	}
	return &TokenResolver{apiKeys: cfg.APIKeys}
}

// Resolve maps a raw bearer token (without the "Bearer " prefix) to a client
// ID. Returns "" when the token is unknown.
func (r *TokenResolver) Resolve(token string) string {
	if token == "" {
		return ""
	}
	return r.apiKeys[token]
}

// AuthMiddleware returns a gin middleware that enforces bearer-token
// authentication and stores the resolved client ID in the request context.
func AuthMiddleware(resolver *TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": "missing bearer token"})
			return
		}
		clientID := resolver.Resolve(strings.TrimSpace(token))
		if clientID == "" {
			log.Warn("Rejected request with invalid API key", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": "invalid API key"})
			return
		}
		c.Set(ContextKeyClientID, clientID)
		c.Next()
	}
}

// GetClientID returns the authenticated client ID for the request, or "".
func GetClientID(c *gin.Context) string {
	return c.GetString(ContextKeyClientID)
}
