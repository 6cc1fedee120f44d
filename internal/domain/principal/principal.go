package principal

import "time"

// Metadata is the schema-less key-value bag attached to a principal by the
// identity provider. The bridge reads only the documented keys below; unknown
// keys are opaque passthrough and never interpreted.
type Metadata map[string]interface{}

// Documented metadata keys.
const (
	KeyDisplayName      = "display_name"
	KeyFullName         = "full_name"
	KeyAvatarURL        = "avatar_url"
	KeyIsAdmin          = "is_admin"
	KeyIsModerator      = "is_moderator"
	KeySubscriptionTier = "subscription_tier"
)

// Principal is a validated identity asserted by the primary identity
// provider. It is never created locally; the provider owns it.
type Principal struct {
	ID            string
	Email         string
	EmailVerified bool
	Metadata      Metadata
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastSignInAt  time.Time
}

func (m Metadata) str(key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func (m Metadata) flag(key string) bool {
	if m == nil {
		return false
	}
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// DisplayName returns the display name, falling back to the full name.
func (p *Principal) DisplayName() string {
	if name := p.Metadata.str(KeyDisplayName); name != "" {
		return name
	}
	return p.Metadata.str(KeyFullName)
}

// AvatarURL returns the avatar URL, if set.
func (p *Principal) AvatarURL() string {
	return p.Metadata.str(KeyAvatarURL)
}

// IsAdmin reports the admin flag.
func (p *Principal) IsAdmin() bool {
	return p.Metadata.flag(KeyIsAdmin)
}

// IsModerator reports the moderator flag.
func (p *Principal) IsModerator() bool {
	return p.Metadata.flag(KeyIsModerator)
}

// SubscriptionTier returns the subscription tier, if set.
func (p *Principal) SubscriptionTier() string {
	return p.Metadata.str(KeySubscriptionTier)
}
