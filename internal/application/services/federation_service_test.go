package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarity-seb/solarity-acres-courses/config"
	"github.com/solarity-seb/solarity-acres-courses/internal/application/dto"
	"github.com/solarity-seb/solarity-acres-courses/internal/domain/principal"
	"github.com/solarity-seb/solarity-acres-courses/internal/infrastructure/crypto"
	"github.com/solarity-seb/solarity-acres-courses/internal/infrastructure/provider"
	"github.com/solarity-seb/solarity-acres-courses/pkg/errors"
	"github.com/solarity-seb/solarity-acres-courses/pkg/jwt"
	"github.com/solarity-seb/solarity-acres-courses/pkg/logger"
)

const (
	testSecret = "federation-test-signing-secret"
	testUserID = "5f8a1c2e-9b4d-4f6a-8c3e-1d2b3a4c5d6e"
	testEmail  = "grower@solarity.farm"
)

// fakeProvider serves canned principals keyed by id.
type fakeProvider struct {
	users map[string]*principal.Principal
}

func (f *fakeProvider) Authenticate(_ context.Context, email, _ string) (*principal.Principal, *provider.Credential, error) {
	for _, p := range f.users {
		if p.Email == email {
			return p, &provider.Credential{AccessToken: "provider-token"}, nil
		}
	}
	return nil, nil, errors.ErrInvalidCredentials
}

func (f *fakeProvider) UserByID(_ context.Context, id string) (*principal.Principal, error) {
	p, ok := f.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return p, nil
}

func (f *fakeProvider) UserByToken(_ context.Context, _ string) (*principal.Principal, error) {
	return nil, errors.ErrUserNotFound
}

func testPrincipal() *principal.Principal {
	return &principal.Principal{
		ID:    testUserID,
		Email: testEmail,
		Metadata: principal.Metadata{
			"display_name":      "Grower",
			"subscription_tier": "premium",
		},
	}
}

func testFederationConfig() *config.FederationConfig {
	return &config.FederationConfig{
		SigningSecret:    testSecret,
		Issuer:           "solarity-acres",
		Audience:         "solarity-community",
		TokenTTL:         time.Hour,
		RefreshThreshold: 15 * time.Minute,
		CommunityBaseURL: "https://community.solarity.farm",
		ClientID:         "solarityfarm-main",
		ClientSecret:     "community-client-secret",
		AllowedHosts:     []string{"localhost", "solarity.farm", "www.solarity.farm"},
		StaffEmailDomain: "@solarity.farm",
		DefaultReturn:    "/private",
		SignInPath:       "/signin",
	}
}

func newTestService(t *testing.T, users ...*principal.Principal) *FederationService {
	t.Helper()
	cfg := testFederationConfig()

	assertions, err := jwt.NewManager(cfg.SigningSecret, cfg.Issuer, cfg.Audience, cfg.TokenTTL)
	require.NoError(t, err)

	prov := &fakeProvider{users: make(map[string]*principal.Principal)}
	for _, u := range users {
		prov.users[u.ID] = u
	}

	log, err := logger.New(logger.Config{Level: "error", EnableConsole: false}, nil)
	require.NoError(t, err)

	return NewFederationService(assertions, prov, crypto.NewTokenGenerator(), cfg, log)
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Issue(testPrincipal())
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.Subject)
	assert.Equal(t, "Grower", claims.Username)
	assert.Equal(t, testEmail, claims.Email)
	assert.Equal(t, []string{"member", "staff", "premium"}, claims.Groups)
}

func TestVerifyRejectsForeignToken(t *testing.T) {
	svc := newTestService(t)

	other, err := jwt.NewManager("another-secret-entirely", "solarity-acres", "solarity-community", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Sign(testUserID, "grower", testEmail, "", nil)
	require.NoError(t, err)

	_, err = svc.Verify(foreign)
	assert.ErrorIs(t, err, errors.ErrInvalidAssertion)
}

func TestRefreshIfStaleKeepsFreshToken(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Issue(testPrincipal())
	require.NoError(t, err)

	// A just-issued token has ~60 minutes left, far above the threshold.
	out, err := svc.RefreshIfStale(context.Background(), token, nil)
	require.NoError(t, err)
	assert.Equal(t, token, out)
}

func TestRefreshIfStaleReissuesNearExpiry(t *testing.T) {
	p := testPrincipal()
	svc := newTestService(t, p)

	// Sign with a short-lived manager so the token sits below the threshold.
	short, err := jwt.NewManager(testSecret, "solarity-acres", "solarity-community", 10*time.Minute)
	require.NoError(t, err)
	stale, err := short.Sign(p.ID, "Grower", p.Email, "", []string{"member"})
	require.NoError(t, err)

	out, err := svc.RefreshIfStale(context.Background(), stale, nil)
	require.NoError(t, err)
	require.NotEqual(t, stale, out)

	claims, err := svc.Verify(out)
	require.NoError(t, err)
	assert.Equal(t, p.ID, claims.Subject)
	// The replacement carries a full fresh lifetime.
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestRefreshIfStaleUsesSuppliedPrincipal(t *testing.T) {
	// Provider knows nobody; the supplied principal must carry the refresh.
	svc := newTestService(t)

	short, err := jwt.NewManager(testSecret, "solarity-acres", "solarity-community", 10*time.Minute)
	require.NoError(t, err)
	stale, err := short.Sign(testUserID, "Grower", testEmail, "", nil)
	require.NoError(t, err)

	out, err := svc.RefreshIfStale(context.Background(), stale, testPrincipal())
	require.NoError(t, err)
	assert.NotEqual(t, stale, out)
}

func TestRefreshIfStaleRejectsInvalidToken(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RefreshIfStale(context.Background(), "garbage", nil)
	assert.ErrorIs(t, err, errors.ErrInvalidAssertion)
}

func TestValidateReturnTrip(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Issue(testPrincipal())
	require.NoError(t, err)
	claims, err := svc.Verify(token)
	require.NoError(t, err)

	assert.NoError(t, svc.ValidateReturnTrip(claims, testUserID))
	assert.ErrorIs(t, svc.ValidateReturnTrip(claims, "someone-else"), errors.ErrAuthenticationMismatch)
	assert.ErrorIs(t, svc.ValidateReturnTrip(claims, ""), errors.ErrAuthenticationMismatch)
}

func TestSSORedirectURL(t *testing.T) {
	svc := newTestService(t)

	u := svc.SSORedirectURL("tok123", "/discussions")
	assert.Contains(t, u, "https://community.solarity.farm/auth/sso?")
	assert.Contains(t, u, "token=tok123")
	assert.Contains(t, u, "return_url=%2Fdiscussions")

	u = svc.SSORedirectURL("tok123", "")
	assert.NotContains(t, u, "return_url")
}

func TestSignInRedirect(t *testing.T) {
	svc := newTestService(t)

	u := svc.SignInRedirect("/sso/community?return_url=%2Fd")
	assert.Equal(t, "/signin?redirectTo="+
		"%2Fsso%2Fcommunity%3Freturn_url%3D%252Fd", u)
}

func TestSafeReturnURL(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		in   string
		want string
	}{
		{"", "/private"},
		{"/dashboard", "/dashboard"},
		{"//evil.example.com", "/private"},
		{"https://solarity.farm/courses", "https://solarity.farm/courses"},
		{"https://www.solarity.farm/", "https://www.solarity.farm/"},
		{"https://app.solarity.farm/x", "https://app.solarity.farm/x"},
		{"http://localhost:5173/dev", "http://localhost:5173/dev"},
		{"https://evil.example.com/phish", "/private"},
		{"https://solarity.farm.evil.com/", "/private"},
		{"not a url", "/private"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, svc.SafeReturnURL(tc.in), "input %q", tc.in)
	}
}

func TestExchangeCodeHappyPath(t *testing.T) {
	p := testPrincipal()
	svc := newTestService(t, p)

	code, err := svc.Issue(p)
	require.NoError(t, err)

	resp, err := svc.ExchangeCode(&dto.TokenRequest{
		GrantType:    "authorization_code",
		Code:         code,
		ClientID:     "solarityfarm-main",
		ClientSecret: "community-client-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.True(t, len(resp.AccessToken) > len(crypto.AccessTokenPrefix))

	userID, ok := svc.ResolveAccessToken(resp.AccessToken)
	require.True(t, ok)
	assert.Equal(t, p.ID, userID)
}

func TestExchangeCodeRejections(t *testing.T) {
	p := testPrincipal()
	svc := newTestService(t, p)
	code, err := svc.Issue(p)
	require.NoError(t, err)

	cases := []struct {
		name string
		req  dto.TokenRequest
		code string
	}{
		{
			name: "wrong grant type",
			req:  dto.TokenRequest{GrantType: "client_credentials", Code: code, ClientID: "solarityfarm-main", ClientSecret: "community-client-secret"},
			code: "unsupported_grant_type",
		},
		{
			name: "wrong client id",
			req:  dto.TokenRequest{GrantType: "authorization_code", Code: code, ClientID: "intruder", ClientSecret: "community-client-secret"},
			code: "invalid_client",
		},
		{
			name: "wrong client secret",
			req:  dto.TokenRequest{GrantType: "authorization_code", Code: code, ClientID: "solarityfarm-main", ClientSecret: "guess"},
			code: "invalid_client",
		},
		{
			name: "bad code",
			req:  dto.TokenRequest{GrantType: "authorization_code", Code: "nonsense", ClientID: "solarityfarm-main", ClientSecret: "community-client-secret"},
			code: "invalid_grant",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ExchangeCode(&tc.req)
			require.Error(t, err)
			var fedErr *errors.FederationError
			require.ErrorAs(t, err, &fedErr)
			assert.Equal(t, tc.code, fedErr.Code)
		})
	}
}

func TestResolveAccessTokenUnknown(t *testing.T) {
	svc := newTestService(t)

	_, ok := svc.ResolveAccessToken("sk_unknowntoken")
	assert.False(t, ok)
	_, ok = svc.ResolveAccessToken("not-even-prefixed")
	assert.False(t, ok)
}

func TestUserInfo(t *testing.T) {
	p := testPrincipal()
	svc := newTestService(t, p)

	code, err := svc.Issue(p)
	require.NoError(t, err)
	resp, err := svc.ExchangeCode(&dto.TokenRequest{
		GrantType:    "authorization_code",
		Code:         code,
		ClientID:     "solarityfarm-main",
		ClientSecret: "community-client-secret",
	})
	require.NoError(t, err)

	info, err := svc.UserInfo(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, p.ID, info.Sub)
	assert.Equal(t, p.Email, info.Email)
	assert.Equal(t, "Grower", info.PreferredUsername)

	_, err = svc.UserInfo(context.Background(), "sk_bogus")
	assert.ErrorIs(t, err, errors.ErrInvalidToken)
}

func TestUsernameFallbacks(t *testing.T) {
	svc := newTestService(t)

	full := testPrincipal()
	assert.Equal(t, "Grower", svc.Username(full))

	noName := &principal.Principal{ID: testUserID, Email: "seed.saver@example.com"}
	assert.Equal(t, "seedsaver", svc.Username(noName))

	bare := &principal.Principal{ID: "abc-def-123456"}
	assert.Equal(t, "user_abcdef12", svc.Username(bare))
}

func TestGroupsDerivation(t *testing.T) {
	svc := newTestService(t)

	plain := &principal.Principal{ID: testUserID, Email: "visitor@example.com"}
	assert.Equal(t, []string{"member"}, svc.Groups(plain))

	admin := &principal.Principal{
		ID:    testUserID,
		Email: "ops@solarity.farm",
		Metadata: principal.Metadata{
			"is_admin":          true,
			"is_moderator":      true,
			"subscription_tier": "premium",
		},
	}
	assert.Equal(t, []string{"member", "admin", "moderator", "staff", "premium"}, svc.Groups(admin))
}

func TestGroupsStaffDomainRequiresBoundary(t *testing.T) {
	svc := newTestService(t)
	svc.cfg.StaffEmailDomain = "solarity.farm"

	staff := &principal.Principal{ID: testUserID, Email: "ops@solarity.farm"}
	assert.Contains(t, svc.Groups(staff), "staff")

	// A bare domain must not match addresses on a superstring domain.
	lookalike := &principal.Principal{ID: testUserID, Email: "anyone@notsolarity.farm"}
	assert.NotContains(t, svc.Groups(lookalike), "staff")

	svc.cfg.StaffEmailDomain = ".solarity.farm"
	sub := &principal.Principal{ID: testUserID, Email: "crew@fields.solarity.farm"}
	assert.Contains(t, svc.Groups(sub), "staff")
	assert.NotContains(t, svc.Groups(lookalike), "staff")
}

func TestSanitizeUsername(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"grower", "grower"},
		{"Grower 42!", "Grower42"},
		{"ab", "ab0"},
		{"a", "a00"},
		{"!!!", "user"},
		{"...", "user"},
		{"héllo wörld", "hllowrld"},
		{"under_score-dash", "under_score-dash"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeUsername(tc.in), "input %q", tc.in)
	}

	long := SanitizeUsername(strings.Repeat("a", 40))
	assert.Len(t, long, 30)
}
