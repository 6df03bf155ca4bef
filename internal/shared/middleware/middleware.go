package middleware

import (
	"context"
	"net/http"
	"strings"

	"eventix/internal/shared/config"
	"eventix/internal/shared/utils/response"
	"eventix/internal/users"
	"eventix/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

// AccountChecker reports whether the user behind a valid token may still act
type AccountChecker interface {
	IsUserActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

// JWTAuth creates a JWT authentication middleware. A nil accounts skips the
// deactivated-account check.
func JWTAuth(cfg *config.Config, accounts AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		claims, ok := parseAccessToken(parts[1], cfg.JWT.Secret)
		if !ok {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), "invalid or expired token", c.ClientIP())
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		setClaims(c, claims)

		if accounts != nil {
			userID, _, ok := CallerFromContext(c)
			if !ok {
				response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
				c.Abort()
				return
			}
			active, err := accounts.IsUserActive(c.Request.Context(), userID)
			if err != nil {
				response.RespondError(c, err)
				c.Abort()
				return
			}
			if !active {
				logger.GetDefault().LogAuthFailure(c.Request.Context(), "account deactivated", c.ClientIP())
				response.RespondJSON(c, "error", http.StatusForbidden, "Account is deactivated", nil, nil)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// RequireRole middleware checks if user has required role
func RequireRole(requiredRole users.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextUserRole)
		if !exists {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "user role not found in context", nil, nil)
			c.Abort()
			return
		}

		if role, _ := userRole.(string); users.ParseRole(role) != requiredRole {
			response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(users.RoleAdmin)
}

// CallerFromContext returns the authenticated user id and role set by JWTAuth
func CallerFromContext(c *gin.Context) (uuid.UUID, users.Role, bool) {
	rawID, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, "", false
	}
	idStr, _ := rawID.(string)
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, "", false
	}

	rawRole, _ := c.Get(ContextUserRole)
	role, _ := rawRole.(string)
	return userID, users.ParseRole(role), true
}

func parseAccessToken(tokenString, secret string) (jwt.MapClaims, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	if tokenType, ok := claims["type"]; !ok || tokenType != "access" {
		return nil, false
	}
	return claims, true
}

func setClaims(c *gin.Context, claims jwt.MapClaims) {
	c.Set(ContextUserID, claims["user_id"])
	c.Set(ContextUserEmail, claims["email"])
	c.Set(ContextUserRole, claims["role"])
}
