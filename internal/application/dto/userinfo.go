package dto

import (
	"time"

	"github.com/solarity-seb/solarity-acres-courses/internal/domain/principal"
)

// UserInfo projects a principal into standard federated-identity claim names
// for the community platform's user-info endpoint.
type UserInfo struct {
	Sub               string     `json:"sub"`
	Email             string     `json:"email"`
	EmailVerified     bool       `json:"email_verified"`
	Name              string     `json:"name"`
	PreferredUsername string     `json:"preferred_username"`
	Picture           string     `json:"picture,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CreatedAt         time.Time  `json:"created_at"`
	LastSignInAt      *time.Time `json:"last_sign_in_at,omitempty"`
}

// NewUserInfo builds the projection. Name falls back from display name to the
// email local part; preferred_username carries the sanitized community
// username supplied by the caller.
func NewUserInfo(p *principal.Principal, preferredUsername string) *UserInfo {
	name := p.DisplayName()
	if name == "" {
		name = emailLocalPart(p.Email)
	}
	if name == "" {
		name = "User"
	}

	info := &UserInfo{
		Sub:               p.ID,
		Email:             p.Email,
		EmailVerified:     p.EmailVerified,
		Name:              name,
		PreferredUsername: preferredUsername,
		Picture:           p.AvatarURL(),
		UpdatedAt:         p.UpdatedAt,
		CreatedAt:         p.CreatedAt,
	}
	if !p.LastSignInAt.IsZero() {
		t := p.LastSignInAt
		info.LastSignInAt = &t
	}
	return info
}

func emailLocalPart(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}
