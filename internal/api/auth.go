package api

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	apiKeyContextKey = "api_key"
	developmentKey   = "development"
)

var (
	errMissingKey = &AuthError{Message: "API Key is required"}
	errInvalidKey = &AuthError{Message: "Invalid API Key"}
)

// requireAPIKey checks the Authorization bearer token against apiKey. With
// no key configured every request passes as "development".
func requireAPIKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Set(apiKeyContextKey, developmentKey)
			c.Next()
			return
		}
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			writeError(c, errMissingKey)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(c, errInvalidKey)
			return
		}
		c.Set(apiKeyContextKey, token)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// maskKey keeps the first four characters of key.
func maskKey(key string) string {
	if len(key) > 4 {
		key = key[:4]
	}
	return key + "..."
}
