package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id"`                             // Unique identifier for the user
	Email       string     `json:"email" db:"email"`                       // User's email address
	Password    string     `json:"-" db:"password"`                        // User's hashed password (excluded from JSON)
	FirstName   string     `json:"firstName" db:"first_name"`              // User's first name
	LastName    string     `json:"lastName" db:"last_name"`                // User's last name
	RoleType    RoleType   `json:"roleType" db:"role_type"`                // User's role (ADMIN or USER)
	IsActive    bool       `json:"isActive" db:"is_active"`                // Whether the user account is active
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"` // Timestamp of the last login (nullable)
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`

	// Relation, no db tag
	Trader *Trader `json:"trader,omitempty"`
}

// Trader defines the trader profile model based on the 'traders' table.
// A trader is the registered student profile distinct from the login account;
// it carries the 13-digit ID card number used for identity verification
// before checkout.
type Trader struct {
	ID           int64      `json:"id" db:"id"`
	UserID       int64      `json:"userId" db:"user_id"`
	IDCardNumber string     `json:"-" db:"id_card_number"` // 13 digits, never returned to clients
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	VerifiedAt   *time.Time `json:"verifiedAt,omitempty" db:"verified_at"` // Set once the ID card has been verified
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// Verified reports whether the trader profile has passed ID verification.
func (t *Trader) Verified() bool {
	return t != nil && t.VerifiedAt != nil
}
