package dto

import (
	"time"

	"github.com/btrade/btrade-backend/internal/app/models"
)

// UserResponse represents basic user information
type UserResponse struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	RoleType       string     `json:"roleType" example:"USER" enums:"ADMIN,USER"`
	IsActive       bool       `json:"isActive"`
	TraderVerified bool       `json:"traderVerified"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// NewUserResponse maps a user model (with optional trader relation) to its
// response shape.
func NewUserResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:             user.ID,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		RoleType:       string(user.RoleType),
		IsActive:       user.IsActive,
		TraderVerified: user.Trader.Verified(),
		LastLoginAt:    user.LastLoginAt,
		CreatedAt:      user.CreatedAt,
	}
}

// UpdateRoleRequest changes a user's role.
type UpdateRoleRequest struct {
	RoleType string `json:"roleType" binding:"required,oneof=ADMIN USER"`
}

// UpdateActiveRequest enables or disables a user account.
type UpdateActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}
