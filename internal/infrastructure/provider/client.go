package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/solarity-seb/solarity-acres-courses/config"
	"github.com/solarity-seb/solarity-acres-courses/internal/domain/principal"
	apperrors "github.com/solarity-seb/solarity-acres-courses/pkg/errors"
)

// Credential is the opaque credential pair returned by the provider on a
// successful password grant. The refresh token is never inspected locally,
// only handed back to the provider.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Client is the boundary to the primary identity provider. Password and
// email verification live on the other side of it.
type Client interface {
	// Authenticate performs a password grant and returns the validated
	// principal with the provider's credential.
	Authenticate(ctx context.Context, email, password string) (*principal.Principal, *Credential, error)

	// UserByID fetches a principal via the admin API.
	UserByID(ctx context.Context, id string) (*principal.Principal, error)

	// UserByToken resolves the principal for a provider access token.
	UserByToken(ctx context.Context, accessToken string) (*principal.Principal, error)
}

// HTTPClient talks to the provider's REST API with a bearer service key.
type HTTPClient struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

// NewHTTPClient creates a provider client from configuration.
func NewHTTPClient(cfg *config.ProviderConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		serviceKey: cfg.ServiceKey,
		http:       &http.Client{Timeout: cfg.Timeout},
	}
}

type userPayload struct {
	ID               string                 `json:"id"`
	Email            string                 `json:"email"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at"`
	UserMetadata     map[string]interface{} `json:"user_metadata"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	LastSignInAt     *time.Time             `json:"last_sign_in_at"`
}

func (u *userPayload) toPrincipal() *principal.Principal {
	p := &principal.Principal{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailConfirmedAt != nil,
		Metadata:      u.UserMetadata,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.LastSignInAt != nil {
		p.LastSignInAt = *u.LastSignInAt
	}
	return p
}

type grantResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	User         userPayload `json:"user"`
}

// Authenticate performs a password grant against the provider.
func (c *HTTPClient) Authenticate(ctx context.Context, email, password string) (*principal.Principal, *Credential, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to encode grant request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/token?grant_type=password", bytes.NewReader(body))
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to build grant request")
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrProviderUnavailable, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized:
		return nil, nil, apperrors.ErrInvalidCredentials
	default:
		return nil, nil, apperrors.Wrap(apperrors.ErrProviderUnavailable,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var grant grantResponse
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to decode grant response")
	}

	cred := &Credential{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresIn:    grant.ExpiresIn,
	}
	return grant.User.toPrincipal(), cred, nil
}

// UserByID fetches a principal through the provider's admin API.
func (c *HTTPClient) UserByID(ctx context.Context, id string) (*principal.Principal, error) {
	return c.fetchUser(ctx, c.baseURL+"/admin/users/"+id, c.serviceKey)
}

// UserByToken resolves the principal owning a provider access token.
func (c *HTTPClient) UserByToken(ctx context.Context, accessToken string) (*principal.Principal, error) {
	return c.fetchUser(ctx, c.baseURL+"/user", accessToken)
}

func (c *HTTPClient) fetchUser(ctx context.Context, url, bearer string) (*principal.Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build user request")
	}
	c.decorate(req)
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderUnavailable, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.ErrUserNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.ErrUnauthorized
	default:
		return nil, apperrors.Wrap(apperrors.ErrProviderUnavailable,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var user userPayload
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode user response")
	}

	return user.toPrincipal(), nil
}

func (c *HTTPClient) decorate(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.serviceKey)
}
