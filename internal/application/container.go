package application

import (
	"github.com/solarity-seb/solarity-acres-courses/config"
	"github.com/solarity-seb/solarity-acres-courses/internal/application/services"
	"github.com/solarity-seb/solarity-acres-courses/internal/domain/session"
	"github.com/solarity-seb/solarity-acres-courses/internal/infrastructure/crypto"
	"github.com/solarity-seb/solarity-acres-courses/internal/infrastructure/provider"
	"github.com/solarity-seb/solarity-acres-courses/pkg/jwt"
	"github.com/solarity-seb/solarity-acres-courses/pkg/logger"
)

// Services holds all application services.
type Services struct {
	Auth       *services.AuthService
	Federation *services.FederationService
}

// Dependencies holds shared dependencies for services.
type Dependencies struct {
	TokenGen   *crypto.TokenGenerator
	Assertions *jwt.Manager
	Provider   provider.Client
}

// NewDependencies creates shared dependencies from config.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	assertions, err := jwt.NewManager(
		cfg.Federation.SigningSecret,
		cfg.Federation.Issuer,
		cfg.Federation.Audience,
		cfg.Federation.TokenTTL,
	)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		TokenGen:   crypto.NewTokenGenerator(),
		Assertions: assertions,
		Provider:   provider.NewHTTPClient(&cfg.Provider),
	}, nil
}

// NewServices creates all application services.
func NewServices(sessions session.Store, deps *Dependencies, cfg *config.Config, log logger.Logger) *Services {
	return &Services{
		Auth: services.NewAuthService(sessions, deps.Provider, cfg, log),
		Federation: services.NewFederationService(
			deps.Assertions,
			deps.Provider,
			deps.TokenGen,
			&cfg.Federation,
			log,
		),
	}
}
