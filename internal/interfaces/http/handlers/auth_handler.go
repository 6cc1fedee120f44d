package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solarity-seb/solarity-acres-courses/internal/application/dto"
	"github.com/solarity-seb/solarity-acres-courses/internal/application/services"
	"github.com/solarity-seb/solarity-acres-courses/internal/cookies"
	"github.com/solarity-seb/solarity-acres-courses/internal/interfaces/http/middleware"
)

// AuthHandler handles primary-site session endpoints.
type AuthHandler struct {
	authService   *services.AuthService
	cookieName    string
	secureCookies bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *services.AuthService, cookieName string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		cookieName:    cookieName,
		secureCookies: secureCookies,
	}
}

// Login authenticates against the provider and establishes a local session.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": err.Error(),
		})
		return
	}

	resp, descs, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	cookies.Write(c, descs)
	c.JSON(http.StatusOK, resp)
}

// Logout removes the session and expires every identity cookie.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	if sessionID == "" {
		// No session middleware on this route group; pick the handle
		// straight from the request so logout stays idempotent.
		sessionID, _ = c.Cookie(h.cookieName)
	}

	if err := h.authService.Logout(c.Request.Context(), sessionID); err != nil {
		handleAuthError(c, err)
		return
	}

	cookies.ClearAuth(c, h.secureCookies)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// Session returns the introspection view of the current session.
// GET /auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	resp, err := h.authService.Session(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		handleAuthError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthorized",
			"error_description": "authentication required",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RefreshSession merges fresh provider metadata into the session.
// POST /auth/session/refresh
func (h *AuthHandler) RefreshSession(c *gin.Context) {
	ok, err := h.authService.RefreshMetadata(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		handleAuthError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthorized",
			"error_description": "authentication required",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "session refreshed"})
}
