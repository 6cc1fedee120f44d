package cookies

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthPrefix tags identity cookies so the optimizer can rank them first and
// logout can wipe them wholesale.
const AuthPrefix = "sa-"

// Attributes are the transport attributes of one cookie.
type Attributes struct {
	Path     string
	Domain   string
	MaxAge   int
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
}

// Descriptor describes one cookie for the current response. Transient;
// constructed per response and never persisted.
type Descriptor struct {
	Name       string
	Value      string
	Attributes Attributes
}

// NewAuthCookie builds an identity cookie with the standard attributes:
// httpOnly, sameSite=lax, path "/".
func NewAuthCookie(name, value string, maxAge int, secure bool) Descriptor {
	return Descriptor{
		Name:  name,
		Value: value,
		Attributes: Attributes{
			Path:     "/",
			MaxAge:   maxAge,
			HTTPOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// IsAuth reports whether the cookie is identity-tagged.
func (d Descriptor) IsAuth() bool {
	name := strings.ToLower(d.Name)
	return strings.HasPrefix(name, AuthPrefix) ||
		strings.Contains(name, "auth") ||
		strings.Contains(name, "session")
}

// Write sets all descriptors on the response.
func Write(c *gin.Context, descs []Descriptor) {
	for _, d := range descs {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     d.Name,
			Value:    d.Value,
			Path:     d.Attributes.Path,
			Domain:   d.Attributes.Domain,
			MaxAge:   d.Attributes.MaxAge,
			HttpOnly: d.Attributes.HTTPOnly,
			Secure:   d.Attributes.Secure,
			SameSite: d.Attributes.SameSite,
		})
	}
}

// ClearAuth expires every identity-tagged cookie present on the request.
func ClearAuth(c *gin.Context, secure bool) {
	for _, ck := range c.Request.Cookies() {
		d := Descriptor{Name: ck.Name}
		if !d.IsAuth() {
			continue
		}
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     ck.Name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
