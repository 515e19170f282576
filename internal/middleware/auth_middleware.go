package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/btrade/btrade-backend/internal/app/models"
	"github.com/btrade/btrade-backend/internal/app/models/dto"
	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
	"github.com/btrade/btrade-backend/internal/pkg/auth"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// JWTAuth middleware for JWT token validation. On success the user ID,
// email and role are placed on the request context.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		// Websocket clients cannot set headers, so the token may arrive
		// as a query parameter instead.
		if authHeader == "" {
			if queryToken := c.Query("token"); queryToken != "" {
				authHeader = queryToken
			}
		}

		if authHeader == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Authorization header missing")

			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		var tokenString string
		if strings.Count(authHeader, ".") == 2 && !strings.HasPrefix(authHeader, "Bearer ") {
			// Raw JWT without the Bearer prefix
			tokenString = authHeader
		} else {
			var err error
			tokenString, err = auth.ExtractBearerToken(authHeader)
			if err != nil {
				errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
				errorDetail = errorDetail.WithDetails("Invalid token format")

				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
				return
			}
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			errorDetails := "Invalid token"

			if errors.Is(err, apperrors.ErrTokenExpired) {
				errorCode = dto.ErrorCodeExpiredToken
				errorDetails = "Token has expired"
			}

			errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed")
			errorDetail = errorDetail.WithDetails(errorDetails)

			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("userRole", models.RoleType(claims.RoleType))

		c.Next()
	}
}

// OptionalJWTAuth validates a bearer token when one is present but never
// rejects the request. Public catalog endpoints use it so admins see
// unpublished courses through the same routes.
func (m *AuthMiddleware) OptionalJWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			c.Next()
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			c.Next()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("userRole", models.RoleType(claims.RoleType))
		c.Next()
	}
}

// RoleRequired middleware to check if user has the required role
func (m *AuthMiddleware) RoleRequired(requiredRole models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Assumes JWTAuth has run first
		role, exists := c.Get("userRole")
		if !exists {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("User role not found")

			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		roleType, ok := role.(models.RoleType)
		if !ok || roleType != requiredRole {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied")
			errorDetail = errorDetail.WithDetails("You don't have sufficient permissions for this operation")

			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}

// CurrentUserID returns the authenticated user's ID from the request
// context, or false when the request is unauthenticated.
func CurrentUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	userID, ok := value.(int64)
	return userID, ok
}

// CurrentUserRole returns the authenticated user's role, defaulting to the
// regular user role when missing.
func CurrentUserRole(c *gin.Context) models.RoleType {
	value, exists := c.Get("userRole")
	if !exists {
		return models.RoleUser
	}
	role, ok := value.(models.RoleType)
	if !ok {
		return models.RoleUser
	}
	return role
}
