// Package auth issues and checks the credentials accepted by the upgrade service.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT token claims
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the caller identity resolved from a request.
type Principal struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
	Method  string `json:"method"` // "apikey", "jwt" or "none"
}

// Role constants
const (
	RoleAdmin    = "admin"
	RoleUpgrader = "upgrader"
)

// DefaultIssuer is used when no issuer is configured.
const DefaultIssuer = "contentupgrade"

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUpgrader
}
