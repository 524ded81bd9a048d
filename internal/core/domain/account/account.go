package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is the employee login record owned by the account store.
type Account struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NormalizeEmail is the canonical form used for lookups and link binding.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPasswordRequest represents the request to set a password through a link
type SetPasswordRequest struct {
	Password string `json:"password"`
	Email    string `json:"email"`
	LinkID   string `json:"link_id"`
}

// EmailRequest represents a request that only carries the account email
type EmailRequest struct {
	Email string `json:"email"`
}
