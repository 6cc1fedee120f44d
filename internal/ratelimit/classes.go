package ratelimit

import "time"

// Class names an operation class with its own request budget.
type Class string

// Operation classes gated by the limiter.
const (
	ClassAuthentication Class = "authentication"
	ClassTokenIssuance  Class = "token_issuance"
	ClassFileUpload     Class = "file_upload"
	ClassPasswordReset  Class = "password_reset"
	ClassProfileUpdate  Class = "profile_update"
	ClassAPI            Class = "api"
)

// ClassConfig holds the ceiling and window for one operation class.
type ClassConfig struct {
	Requests int
	Window   time.Duration
}

// DefaultClasses is the process-wide class table, loaded once. Deliberately
// immutable after startup: an unknown class is a configuration error, not a
// request-time condition.
func DefaultClasses() map[Class]ClassConfig {
	return map[Class]ClassConfig{
		ClassAuthentication: {Requests: 5, Window: time.Minute},
		ClassTokenIssuance:  {Requests: 10, Window: time.Minute},
		ClassFileUpload:     {Requests: 20, Window: time.Minute},
		ClassPasswordReset:  {Requests: 3, Window: time.Hour},
		ClassProfileUpdate:  {Requests: 10, Window: time.Minute},
		ClassAPI:            {Requests: 100, Window: time.Minute},
	}
}
