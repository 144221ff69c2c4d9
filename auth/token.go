package auth

import (
	"errors"
	"fmt"

	"finora/api/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken  = errors.New("missing or invalid token")
	ErrInvalidIssuer = errors.New("invalid token issuer")
)

// Verifier checks Supabase access tokens (HS256 with the project secret).
type Verifier struct {
	Secret []byte
	Issuer string
}

func (v Verifier) Verify(tokenString string) (*models.SupabaseClaims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if len(v.Secret) == 0 {
		return nil, fmt.Errorf("SUPABASE_JWT_SECRET environment variable not set")
	}

	claims := &models.SupabaseClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if v.Issuer != "" && claims.Issuer != v.Issuer {
		return nil, ErrInvalidIssuer
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
