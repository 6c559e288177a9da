package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/response"
	"github.com/sangkips/repairshop-api/pkg/utils"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserName  = "user_name"
	ContextUserRole  = "user_role"
)

// AuthMiddleware requires a bearer access token and puts the caller's
// identity in the context for operator stamping.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		sub, err := jwtManager.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}
		role := enum.Role(sub.Role)
		if !role.Valid() {
			response.Unauthorized(c, "Token carries an unknown role")
			c.Abort()
			return
		}

		c.Set(ContextUserID, sub.ID)
		c.Set(ContextUserEmail, sub.Email)
		c.Set(ContextUserName, sub.Name)
		c.Set(ContextUserRole, role)
		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...enum.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ContextUserRole)
		if r, ok := role.(enum.Role); ok && slices.Contains(roles, r) {
			c.Next()
			return
		}
		response.Forbidden(c, "Your role cannot access this resource")
		c.Abort()
	}
}
