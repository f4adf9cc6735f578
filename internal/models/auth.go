package models

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// UserInfo is the identity a token is issued for.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// JWTClaims is the access token payload.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// DisplayName is the name record owners are compared with by the mine tab.
// Tokens minted without a full name fall back to the email address.
func (c *JWTClaims) DisplayName() string {
	if c == nil {
		return ""
	}
	if name := strings.TrimSpace(c.FullName); name != "" {
		return name
	}
	return c.Email
}

// HasRole reports whether the token carries one of roles.
func (c *JWTClaims) HasRole(roles ...UserRole) bool {
	if c == nil {
		return false
	}
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller is an administrator.
func (c *JWTClaims) IsAdmin() bool {
	return c.HasRole(RoleAdmin)
}
