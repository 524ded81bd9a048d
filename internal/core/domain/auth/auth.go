package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the default role allowed to issue links and resend welcome emails.
const RoleAdmin = "admin"

// Claims represents the claims of an operator bearer token
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`

	jwt.RegisteredClaims
}

// IsAdmin reports whether the token carries the given admin role.
func (c *Claims) IsAdmin(adminRole string) bool {
	return c != nil && c.Role == adminRole
}
