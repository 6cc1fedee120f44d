package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solarity-seb/solarity-acres-courses/internal/domain/session"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// ContextKeyUserID is the context key for user ID.
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyEmail is the context key for the session email.
	ContextKeyEmail ContextKey = "email"
	// ContextKeySessionID is the context key for the session handle.
	ContextKeySessionID ContextKey = "session_id"
)

// SessionMiddleware resolves the session cookie into the local identity.
// The provider's credential is not re-validated here; the session record is
// the fast-path check.
type SessionMiddleware struct {
	sessions   session.Store
	cookieName string
}

// NewSessionMiddleware creates a new session middleware.
func NewSessionMiddleware(sessions session.Store, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{
		sessions:   sessions,
		cookieName: cookieName,
	}
}

// RequireSession returns a middleware that rejects requests without a live
// session.
func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := m.resolve(c)
		if rec == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "authentication required",
			})
			return
		}

		setSessionContext(c, rec)
		c.Next()
	}
}

// OptionalSession resolves the session if present but does not require it.
func (m *SessionMiddleware) OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rec := m.resolve(c); rec != nil {
			setSessionContext(c, rec)
		}
		c.Next()
	}
}

func (m *SessionMiddleware) resolve(c *gin.Context) *session.Record {
	sessionID, err := c.Cookie(m.cookieName)
	if err != nil || sessionID == "" {
		return nil
	}

	rec, err := m.sessions.Get(c.Request.Context(), sessionID)
	if err != nil || rec == nil {
		return nil
	}
	return rec
}

func setSessionContext(c *gin.Context, rec *session.Record) {
	c.Set(string(ContextKeyUserID), rec.UserID)
	c.Set(string(ContextKeyEmail), rec.Email)
	c.Set(string(ContextKeySessionID), rec.SessionID)
}

// GetUserID extracts the authenticated user ID from context, or "".
func GetUserID(c *gin.Context) string {
	if v, exists := c.Get(string(ContextKeyUserID)); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// GetSessionID extracts the session handle from context, or "".
func GetSessionID(c *gin.Context) string {
	if v, exists := c.Get(string(ContextKeySessionID)); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
