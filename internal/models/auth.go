package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// JWTClaims represents the JWT payload for access tokens. Roles carries the
// raw datatracker tuples; parse with ParseRoles before matching.
type JWTClaims struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Superuser bool       `json:"superuser"`
	Roles     [][]string `json:"roles"`
	jwt.RegisteredClaims
}

// RoleSet parses the claim's raw role tuples.
func (c *JWTClaims) RoleSet() RoleSet {
	return ParseRoles(c.Roles)
}
