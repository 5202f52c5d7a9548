package service

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims defines the custom claims for the session tokens.
type Claims struct {
	UserID uuid.UUID `json:"-"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// TokenService defines the interface for generating and validating session tokens.
// This abstracts the details of token creation from the use cases.
type TokenService interface {
	// GenerateToken creates a signed bearer token for the given account.
	GenerateToken(userID uuid.UUID, role string) (string, error)

	// ValidateToken checks signature and expiry. Every failure is reported as the same error.
	ValidateToken(tokenString string) (*Claims, error)
}
