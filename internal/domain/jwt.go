package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the access token payload. Subject carries the employee profile ID.
type AuthClaims struct {
	NationalID string   `json:"nationalId"`
	Roles      []string `json:"roles"`
	jwt.RegisteredClaims
}
