package models

import "github.com/golang-jwt/jwt/v5"

// SupabaseClaims represents the claims in a Supabase access token.
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	Role        string `json:"role"`
	AppMetadata struct {
		Provider string `json:"provider"`
	} `json:"app_metadata"`
	UserMetadata struct {
		Name          string `json:"name"`
		FullName      string `json:"full_name"`
		EmailVerified bool   `json:"email_verified"`
	} `json:"user_metadata"`
}

// UserID is the provider's id for the signed-in user (the "sub" claim).
func (c *SupabaseClaims) UserID() string {
	return c.Subject
}

// DisplayName prefers the name set at sign-up, then the federated full name.
func (c *SupabaseClaims) DisplayName() string {
	if c.UserMetadata.Name != "" {
		return c.UserMetadata.Name
	}
	return c.UserMetadata.FullName
}
