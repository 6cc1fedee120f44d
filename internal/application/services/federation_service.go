package services

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/solarity-seb/solarity-acres-courses/config"
	"github.com/solarity-seb/solarity-acres-courses/internal/application/dto"
	"github.com/solarity-seb/solarity-acres-courses/internal/domain/principal"
	"github.com/solarity-seb/solarity-acres-courses/internal/infrastructure/crypto"
	"github.com/solarity-seb/solarity-acres-courses/internal/infrastructure/provider"
	"github.com/solarity-seb/solarity-acres-courses/pkg/errors"
	"github.com/solarity-seb/solarity-acres-courses/pkg/jwt"
	"github.com/solarity-seb/solarity-acres-courses/pkg/logger"
)

// Community groups derived from principal attributes.
const (
	GroupMember    = "member"
	GroupAdmin     = "admin"
	GroupModerator = "moderator"
	GroupStaff     = "staff"
	GroupPremium   = "premium"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 30
	accessTokenTTL = time.Hour
)

type accessGrant struct {
	userID    string
	expiresAt time.Time
}

// FederationService is the bridge into the community platform: it issues and
// verifies signed SSO assertions, refreshes stale ones, validates return
// trips, and runs the bearer-token exchange behind the user-info endpoint.
type FederationService struct {
	assertions *jwt.Manager
	provider   provider.Client
	tokenGen   *crypto.TokenGenerator
	cfg        *config.FederationConfig
	log        logger.Logger

	mu     sync.Mutex
	grants map[string]accessGrant // keyed by token hash
}

// NewFederationService creates a new federation bridge.
func NewFederationService(
	assertions *jwt.Manager,
	providerClient provider.Client,
	tokenGen *crypto.TokenGenerator,
	cfg *config.FederationConfig,
	log logger.Logger,
) *FederationService {
	return &FederationService{
		assertions: assertions,
		provider:   providerClient,
		tokenGen:   tokenGen,
		cfg:        cfg,
		log:        log,
		grants:     make(map[string]accessGrant),
	}
}

// Issue signs a one-hour assertion for the principal.
func (s *FederationService) Issue(p *principal.Principal) (string, error) {
	username := s.Username(p)
	groups := s.Groups(p)

	token, err := s.assertions.Sign(p.ID, username, p.Email, p.AvatarURL(), groups)
	if err != nil {
		return "", err
	}

	s.log.Info("assertion issued",
		logger.Component("federation"),
		logger.UserID(p.ID),
	)
	return token, nil
}

// Verify validates an assertion. Any failure yields a nil payload with
// ErrInvalidAssertion; the reason is never distinguished to the caller.
func (s *FederationService) Verify(token string) (*jwt.AssertionClaims, error) {
	return s.assertions.Verify(token)
}

// RefreshIfStale returns the token unchanged while it has more than the
// configured threshold of validity left, re-issues it when it is close to
// expiry, and fails with ErrInvalidAssertion when it does not verify. When
// no principal is supplied the subject is looked up at the provider.
func (s *FederationService) RefreshIfStale(ctx context.Context, token string, p *principal.Principal) (string, error) {
	claims, err := s.assertions.Verify(token)
	if err != nil {
		return "", errors.ErrInvalidAssertion
	}

	if s.assertions.Remaining(claims) > s.cfg.RefreshThreshold {
		return token, nil
	}

	if p == nil {
		p, err = s.provider.UserByID(ctx, claims.Subject)
		if err != nil {
			return "", errors.ErrInvalidAssertion
		}
	}

	return s.Issue(p)
}

// ValidateReturnTrip enforces that the assertion's subject matches the
// locally authenticated user. A mismatch is a security event: a stale or
// foreign assertion being replayed against someone else's session.
func (s *FederationService) ValidateReturnTrip(claims *jwt.AssertionClaims, localUserID string) error {
	if localUserID == "" || claims.Subject != localUserID {
		s.log.Warn("assertion subject does not match local session",
			logger.Component("federation"),
			logger.String("assertion_subject", claims.Subject),
			logger.UserID(localUserID),
		)
		return errors.ErrAuthenticationMismatch
	}
	return nil
}

// SSORedirectURL builds the community platform's SSO entry URL carrying the
// assertion and optional return URL.
func (s *FederationService) SSORedirectURL(token, returnURL string) string {
	u, err := url.Parse(s.cfg.CommunityBaseURL)
	if err != nil {
		u = &url.URL{Scheme: "https", Host: "community.invalid"}
	}
	u.Path = "/auth/sso"

	q := u.Query()
	q.Set("token", token)
	if returnURL != "" {
		q.Set("return_url", returnURL)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// SignInRedirect builds the local sign-in path with a re-entry redirect that
// re-invokes issuance after login.
func (s *FederationService) SignInRedirect(reentryPath string) string {
	return s.cfg.SignInPath + "?redirectTo=" + url.QueryEscape(reentryPath)
}

// SafeReturnURL validates a redirect target supplied by the community
// platform against the allow-list. Anything else collapses to the default
// destination.
func (s *FederationService) SafeReturnURL(raw string) string {
	if raw == "" {
		return s.cfg.DefaultReturn
	}
	// Relative paths stay on this site.
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return s.cfg.DefaultReturn
	}

	hostname := strings.ToLower(u.Hostname())
	for _, domain := range s.cfg.AllowedHosts {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if hostname == domain || strings.HasSuffix(hostname, "."+domain) {
			return raw
		}
	}

	return s.cfg.DefaultReturn
}

// ExchangeCode implements the authorization_code exchange the community
// platform calls before hitting user-info. Client credentials come from
// configuration; codes are issued assertions.
func (s *FederationService) ExchangeCode(req *dto.TokenRequest) (*dto.TokenResponse, error) {
	if req.GrantType != "authorization_code" {
		return nil, errors.NewFederationError("unsupported_grant_type", "only authorization_code grant type is supported")
	}

	if req.ClientID != s.cfg.ClientID || !crypto.ConstantTimeEquals(req.ClientSecret, s.cfg.ClientSecret) {
		return nil, errors.NewFederationError("invalid_client", "invalid client credentials")
	}

	// The code is the SSO assertion handed over during the redirect.
	claims, err := s.assertions.Verify(req.Code)
	if err != nil {
		return nil, errors.NewFederationError("invalid_grant", "invalid authorization code")
	}

	token, err := s.tokenGen.GenerateAccessToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}

	s.mu.Lock()
	s.grants[s.tokenGen.HashToken(token)] = accessGrant{
		userID:    claims.Subject,
		expiresAt: time.Now().UTC().Add(accessTokenTTL),
	}
	s.sweepGrantsLocked()
	s.mu.Unlock()

	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(accessTokenTTL.Seconds()),
		Scope:       "openid profile email",
	}, nil
}

// ResolveAccessToken maps a bearer token from the exchange back to its
// subject. Expired grants are purged on the way out.
func (s *FederationService) ResolveAccessToken(token string) (string, bool) {
	if !strings.HasPrefix(token, crypto.AccessTokenPrefix) {
		return "", false
	}

	hash := s.tokenGen.HashToken(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[hash]
	if !ok {
		return "", false
	}
	if !time.Now().UTC().Before(grant.expiresAt) {
		delete(s.grants, hash)
		return "", false
	}

	return grant.userID, true
}

// UserInfo resolves a bearer token to the OIDC-style claim projection.
func (s *FederationService) UserInfo(ctx context.Context, token string) (*dto.UserInfo, error) {
	userID, ok := s.ResolveAccessToken(token)
	if !ok {
		return nil, errors.ErrInvalidToken
	}

	p, err := s.provider.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewUserInfo(p, s.Username(p)), nil
}

// Username derives the community username: display name, then the email
// local part, then a synthetic handle from the subject id.
func (s *FederationService) Username(p *principal.Principal) string {
	name := p.DisplayName()
	if name == "" {
		if at := strings.IndexByte(p.Email, '@'); at > 0 {
			name = p.Email[:at]
		}
	}
	if name == "" {
		id := strings.ReplaceAll(p.ID, "-", "")
		if len(id) > 8 {
			id = id[:8]
		}
		name = "user_" + id
	}
	return SanitizeUsername(name)
}

// Groups derives community groups deterministically from the principal.
func (s *FederationService) Groups(p *principal.Principal) []string {
	groups := []string{GroupMember}

	if p.IsAdmin() {
		groups = append(groups, GroupAdmin)
	}
	if p.IsModerator() {
		groups = append(groups, GroupModerator)
	}
	if domain := staffDomainSuffix(s.cfg.StaffEmailDomain); domain != "" && strings.HasSuffix(strings.ToLower(p.Email), domain) {
		groups = append(groups, GroupStaff)
	}
	if p.SubscriptionTier() == "premium" {
		groups = append(groups, GroupPremium)
	}

	return groups
}

// staffDomainSuffix lowercases the configured staff domain and forces a
// mailbox boundary, so "solarity.farm" matches only "@solarity.farm"
// addresses and never "anyone@notsolarity.farm".
func staffDomainSuffix(domain string) string {
	if domain == "" {
		return ""
	}
	domain = strings.ToLower(domain)
	if !strings.HasPrefix(domain, "@") && !strings.HasPrefix(domain, ".") {
		domain = "@" + domain
	}
	return domain
}

// SanitizeUsername reduces a raw name to the community platform's username
// rules: [A-Za-z0-9_-] only, padded to 3 with '0', cut at 30, and the
// literal "user" when nothing survives the stripping.
func SanitizeUsername(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	sanitized := b.String()
	if sanitized == "" {
		return "user"
	}
	for len(sanitized) < usernameMinLen {
		sanitized += "0"
	}
	if len(sanitized) > usernameMaxLen {
		sanitized = sanitized[:usernameMaxLen]
	}
	return sanitized
}

func (s *FederationService) sweepGrantsLocked() {
	now := time.Now().UTC()
	for hash, grant := range s.grants {
		if !now.Before(grant.expiresAt) {
			delete(s.grants, hash)
		}
	}
}
