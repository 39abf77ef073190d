// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dealbridge-billing/internal/pkg/jwt"
	"dealbridge-billing/internal/pkg/response"
)

const (
	ctxUserID   = "user_id"
	ctxJTI      = "jti"
	ctxRoles    = "roles"
	ctxUserType = "user_type"
	ctxCountry  = "country"
	ctxEmail    = "email"
)

type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

type RevocationChecker interface {
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

type AuthMiddleware struct {
	verifier  TokenVerifier
	blacklist RevocationChecker
	logger    *zap.Logger
}

func NewAuthMiddleware(verifier TokenVerifier, blacklist RevocationChecker, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:  verifier,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Auth validates the bearer token and stores the caller in the context.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing authorization token")
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		revoked, err := m.blacklist.IsTokenBlacklisted(c.Request.Context(), claims.ID)
		if err != nil {
			// Fail closed when the blacklist cannot be read.
			m.logger.Error("token blacklist lookup failed", zap.Error(err))
			response.Error(c, http.StatusServiceUnavailable, "authentication unavailable", nil)
			return
		}
		if revoked {
			response.Unauthorized(c, "token has been revoked")
			return
		}

		c.Set(ctxUserID, claims.UserID())
		c.Set(ctxJTI, claims.ID)
		c.Set(ctxRoles, claims.Roles)
		c.Set(ctxUserType, claims.UserType)
		c.Set(ctxCountry, claims.Country)
		c.Set(ctxEmail, claims.Email)

		c.Next()
	}
}

// RequireRole must run after Auth.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, r := range roles {
			if HasRole(c, r) {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
	}
}

// RequireUserType must run after Auth.
func (m *AuthMiddleware) RequireUserType(types ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType := GetUserType(c)
		for _, t := range types {
			if strings.EqualFold(userType, t) {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "not available for this account type")
	}
}

// AdminOnly returns Auth followed by an admin role check.
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole(jwt.RoleAdmin, jwt.RoleSuperAdmin),
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	// Browsers cannot set headers on websocket upgrades.
	return c.Query("token")
}
