package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	jwtpkg "treevite/server/pkg/jwt"
	"treevite/server/pkg/response"
)

const ContextKeyClaims = "participant_claims"

func JWTAuth(jwtManager *jwtpkg.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, jwtManager)
		if !ok {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// OptionalJWTAuth parses a bearer token when one is present but lets
// anonymous requests through. Redemption accepts both: an authenticated
// participant reuses their identity, an anonymous caller gets a new one.
func OptionalJWTAuth(jwtManager *jwtpkg.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c, jwtManager); ok {
			c.Set(ContextKeyClaims, claims)
		}
		c.Next()
	}
}

func bearerClaims(c *gin.Context, jwtManager *jwtpkg.Manager) (*jwtpkg.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := jwtManager.Validate(parts[1])
	if err != nil {
		return nil, false
	}
	if claims.TokenType != jwtpkg.TokenTypeParticipant {
		return nil, false
	}
	return claims, true
}
