package services

import (
	"context"

	"github.com/solarity-seb/solarity-acres-courses/config"
	"github.com/solarity-seb/solarity-acres-courses/internal/application/dto"
	"github.com/solarity-seb/solarity-acres-courses/internal/cookies"
	"github.com/solarity-seb/solarity-acres-courses/internal/domain/session"
	"github.com/solarity-seb/solarity-acres-courses/internal/infrastructure/provider"
	"github.com/solarity-seb/solarity-acres-courses/pkg/errors"
	"github.com/solarity-seb/solarity-acres-courses/pkg/logger"
)

// AuthService handles primary-site login, logout and session lifecycle.
// The provider validates credentials; the local session is the fast-path
// identity check afterwards.
type AuthService struct {
	sessions session.Store
	provider provider.Client
	cfg      *config.Config
	log      logger.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(sessions session.Store, providerClient provider.Client, cfg *config.Config, log logger.Logger) *AuthService {
	return &AuthService{
		sessions: sessions,
		provider: providerClient,
		cfg:      cfg,
		log:      log,
	}
}

// Login authenticates against the provider, creates a local session, and
// returns the identity cookies to set, already run through the byte budget.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, []cookies.Descriptor, error) {
	p, cred, err := s.provider.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, nil, err
	}

	sessionID, err := s.sessions.Create(ctx, p.ID, p.Email, p.Metadata)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create session")
	}

	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil || rec == nil {
		return nil, nil, errors.Wrap(errors.ErrInternal, "session vanished after create")
	}

	maxAge := int(s.cfg.Session.Duration.Seconds())
	secure := s.cfg.Session.SecureCookies

	descs := []cookies.Descriptor{
		cookies.NewAuthCookie(s.cfg.Session.CookieName, sessionID, maxAge, secure),
	}
	// Provider credential passthrough for clients that talk to the provider
	// directly. These are the large entries the budget exists for.
	if cred.AccessToken != "" {
		descs = append(descs, cookies.NewAuthCookie(cookies.AuthPrefix+"access-token", cred.AccessToken, cred.ExpiresIn, secure))
	}
	if cred.RefreshToken != "" {
		descs = append(descs, cookies.NewAuthCookie(cookies.AuthPrefix+"refresh-token", cred.RefreshToken, maxAge, secure))
	}

	descs = cookies.Optimize(descs, s.cfg.Session.CookieBudget)

	s.log.Info("session created",
		logger.Component("auth"),
		logger.UserID(p.ID),
	)

	resp := &dto.LoginResponse{
		UserID:    p.ID,
		Email:     p.Email,
		ExpiresAt: rec.ExpiresAt,
	}
	return resp, descs, nil
}

// Logout removes the session. Idempotent; an unknown handle is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// Session returns the introspection view of a session, or nil if absent.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	return &dto.SessionResponse{
		UserID:    rec.UserID,
		Email:     rec.Email,
		Metadata:  rec.Metadata,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// RefreshMetadata re-fetches the principal from the provider and merges the
// fresh metadata into the session, preserving its expiry.
func (s *AuthService) RefreshMetadata(ctx context.Context, sessionID string) (bool, error) {
	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	p, err := s.provider.UserByID(ctx, rec.UserID)
	if err != nil {
		return false, err
	}

	email := p.Email
	return s.sessions.Update(ctx, sessionID, session.Update{
		Email:    &email,
		Metadata: p.Metadata,
	})
}
