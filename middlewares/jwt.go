package middlewares

import (
	"jojarts/utils"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	ClaimsKey           = "claims"

	MsgMissingToken = "Hiányzó token."
	MsgInvalidToken = "Érvénytelen token."
	MsgForbidden    = "Nincs jogosultság a művelethez."
)

// TokenVerifier is the part of the token service the middleware needs.
type TokenVerifier interface {
	Verify(token string) (*utils.Claims, error)
}

// JWT rejects requests without a valid bearer token and stores the verified
// claims under ClaimsKey.
func JWT(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := Logger(c)

		authHeader := c.GetHeader(AuthorizationHeader)
		tokenString := ""
		if strings.HasPrefix(authHeader, BearerPrefix) {
			tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		}

		if tokenString == "" {
			logger.Debug("Missing bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": MsgMissingToken})
			return
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			logger.Warn("Invalid bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": MsgInvalidToken})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole must run after JWT.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": MsgMissingToken})
			return
		}

		if ok, err := utils.AuthorizeRole(claims.Role, allowedRoles...); err != nil || !ok {
			Logger(c).Warn("Role not allowed", zap.String("username", claims.Username), zap.String("role", claims.Role))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": MsgForbidden})
			return
		}
		c.Next()
	}
}

// GetClaims returns the claims stored by JWT.
func GetClaims(c *gin.Context) (*utils.Claims, bool) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*utils.Claims)
	return claims, ok && claims != nil
}
