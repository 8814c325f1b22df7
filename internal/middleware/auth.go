package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

const (
	contextClaims = "auth_claims"
	contextScope  = "auth_scope"
)

type AuthMiddleware struct {
	jwt auth.JWTService
}

func NewAuthMiddleware(jwt auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Authenticate validates the bearer token and puts the caller scope into the
// request context. Everything behind it can assume a valid scope.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			httputil.RespondWithError(c, errors.Unauthorized("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondWithError(c, errors.Unauthorized("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwt.ValidateAccessToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, errors.Unauthorized("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(contextClaims, claims)
		c.Set(contextScope, claims.Scope())
		c.Next()
	}
}

// ScopeFrom extracts the caller scope set by Authenticate.
func ScopeFrom(c *gin.Context) (model.Scope, bool) {
	v, ok := c.Get(contextScope)
	if !ok {
		return model.Scope{}, false
	}
	scope, ok := v.(model.Scope)
	return scope, ok
}

// ClaimsFrom extracts the raw token claims set by Authenticate.
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(contextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
