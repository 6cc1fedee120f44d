package dto

import "time"

// LoginRequest represents a primary-site login request.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a successful login. The session handle travels
// only as a cookie, never in the body.
type LoginResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionResponse is the introspection view of the current session.
type SessionResponse struct {
	UserID    string                 `json:"user_id"`
	Email     string                 `json:"email"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	ExpiresAt time.Time              `json:"expires_at"`
	CreatedAt time.Time              `json:"created_at"`
}

// TokenRequest represents the community platform's authorization_code
// exchange (form encoded).
type TokenRequest struct {
	GrantType    string `form:"grant_type" binding:"required"`
	Code         string `form:"code" binding:"required"`
	ClientID     string `form:"client_id" binding:"required"`
	ClientSecret string `form:"client_secret" binding:"required"`
}

// TokenResponse represents an issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// ReturnRequest carries the return-trip assertion, via query string (GET) or
// form body (POST).
type ReturnRequest struct {
	Token     string `form:"token"`
	ReturnURL string `form:"return_url"`
}

// ReturnResponse is the JSON success body for POST return trips.
type ReturnResponse struct {
	Success   bool   `json:"success"`
	UserID    string `json:"user_id"`
	ReturnURL string `json:"return_url"`
}
