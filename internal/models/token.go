package models

import "time"

type TokenType string

const (
	TokenTypeJWT TokenType = "jwt"
)

// AccessLevel controls what a token may do with schedules and
// occurrence records.
type AccessLevel string

const (
	AccessLevelRead      AccessLevel = "read"
	AccessLevelWrite     AccessLevel = "write"
	AccessLevelReadWrite AccessLevel = "read_write"
	AccessLevelAdmin     AccessLevel = "admin"
)

// Token is a validated JWT. Scope holds the schedule tags the token is
// restricted to; an empty scope grants no tag-scoped access.
type Token struct {
	Sub       string      `json:"sub"`
	Access    AccessLevel `json:"access"`
	Scope     []string    `json:"scope"`
	ExpiresAt time.Time   `json:"exp"`
}

type CreateTokenRequest struct {
	Type      TokenType   `json:"type" binding:"required"`
	Sub       string      `json:"sub" binding:"required"`
	Access    AccessLevel `json:"access" binding:"required"`
	Scope     []string    `json:"scope" binding:"required"`
	ExpiresAt time.Time   `json:"expires_at" binding:"required"`
}

type CreateTokenResponse struct {
	Token     string      `json:"token"`
	Type      TokenType   `json:"type"`
	Sub       string      `json:"sub"`
	Access    AccessLevel `json:"access"`
	Scope     []string    `json:"scope"`
	ExpiresAt time.Time   `json:"expires_at"`
}
