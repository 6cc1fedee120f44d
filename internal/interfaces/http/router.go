package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/solarity-seb/solarity-acres-courses/config"
	"github.com/solarity-seb/solarity-acres-courses/internal/application/services"
	"github.com/solarity-seb/solarity-acres-courses/internal/domain/session"
	"github.com/solarity-seb/solarity-acres-courses/internal/interfaces/http/handlers"
	"github.com/solarity-seb/solarity-acres-courses/internal/interfaces/http/middleware"
	"github.com/solarity-seb/solarity-acres-courses/internal/ratelimit"
	"github.com/solarity-seb/solarity-acres-courses/pkg/logger"
)

// Router wraps the Gin engine with application dependencies.
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
}

// RouterDeps contains dependencies needed by the router.
type RouterDeps struct {
	AuthService       *services.AuthService
	FederationService *services.FederationService
	Sessions          session.Store
	Limiter           *ratelimit.Limiter
	Logger            logger.Logger
	RedisHealth       handlers.HealthChecker
}

// NewRouter creates and configures the HTTP router.
func NewRouter(cfg *config.Config, deps *RouterDeps) *Router {
	if cfg.Logging.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.NewRequestLoggerMiddleware(deps.Logger).Handler())

	authHandler := handlers.NewAuthHandler(
		deps.AuthService,
		cfg.Session.CookieName,
		cfg.Session.SecureCookies,
	)
	federationHandler := handlers.NewFederationHandler(deps.FederationService, deps.Sessions)
	healthHandler := handlers.NewHealthHandler(deps.RedisHealth)

	sessionMW := middleware.NewSessionMiddleware(deps.Sessions, cfg.Session.CookieName)
	rateMW := middleware.NewRateLimitMiddleware(deps.Limiter, cfg.RateLimit.Enabled)

	classGate := func(class ratelimit.Class) gin.HandlerFunc {
		h, err := rateMW.Class(class)
		if err != nil {
			// Classes are compile-time constants; an unknown one is a
			// programming error, surfaced before the server starts.
			panic(fmt.Sprintf("rate limit class %q: %v", class, err))
		}
		return h
	}

	// Health endpoints stay outside rate limiting.
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/live", healthHandler.Live)

	engine.Use(corsMiddleware(cfg.Federation.CommunityBaseURL))

	auth := engine.Group("/auth")
	{
		auth.POST("/login", classGate(ratelimit.ClassAuthentication), authHandler.Login)
		auth.POST("/logout", sessionMW.OptionalSession(), authHandler.Logout)

		current := auth.Group("/session")
		current.Use(sessionMW.RequireSession())
		{
			current.GET("", classGate(ratelimit.ClassAPI), authHandler.Session)
			current.POST("/refresh", classGate(ratelimit.ClassProfileUpdate), authHandler.RefreshSession)
		}
	}

	sso := engine.Group("/sso/community")
	sso.Use(sessionMW.OptionalSession())
	{
		sso.GET("", classGate(ratelimit.ClassTokenIssuance), federationHandler.SSO)
		sso.GET("/return", classGate(ratelimit.ClassAuthentication), federationHandler.Return)
		sso.POST("/return", classGate(ratelimit.ClassAuthentication), federationHandler.Return)
		sso.GET("/login", classGate(ratelimit.ClassAuthentication), federationHandler.LoginRedirect)
		sso.POST("/refresh", classGate(ratelimit.ClassTokenIssuance), federationHandler.Refresh)
		sso.POST("/token", classGate(ratelimit.ClassTokenIssuance), federationHandler.Token)
		sso.GET("/userinfo", classGate(ratelimit.ClassAPI), federationHandler.UserInfo)
	}

	return &Router{
		engine: engine,
		cfg:    cfg,
	}
}

// Engine returns the underlying Gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// corsMiddleware allows cross-origin calls from the community platform,
// which talks to the token and userinfo endpoints server-to-server but hits
// the return endpoint from the browser.
func corsMiddleware(communityOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if origin != "" && origin == communityOrigin {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
