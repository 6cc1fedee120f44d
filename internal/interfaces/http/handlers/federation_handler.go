package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/solarity-seb/solarity-acres-courses/internal/application/dto"
	"github.com/solarity-seb/solarity-acres-courses/internal/application/services"
	"github.com/solarity-seb/solarity-acres-courses/internal/domain/principal"
	"github.com/solarity-seb/solarity-acres-courses/internal/domain/session"
	"github.com/solarity-seb/solarity-acres-courses/internal/interfaces/http/middleware"
	apperrors "github.com/solarity-seb/solarity-acres-courses/pkg/errors"
)

const ssoBase = "/sso/community"

// FederationHandler handles the community SSO bridge endpoints.
type FederationHandler struct {
	federation *services.FederationService
	sessions   session.Store
}

// NewFederationHandler creates a new federation handler.
func NewFederationHandler(federation *services.FederationService, sessions session.Store) *FederationHandler {
	return &FederationHandler{
		federation: federation,
		sessions:   sessions,
	}
}

// SSO issues an assertion for the current session and redirects the browser
// into the community platform. Without a session it redirects to sign-in with
// a re-entry path that lands back here.
// GET /sso/community
func (h *FederationHandler) SSO(c *gin.Context) {
	returnURL := c.Query("return_url")

	rec := h.sessionRecord(c)
	if rec == nil {
		reentry := ssoBase
		if returnURL != "" {
			reentry += "?return_url=" + url.QueryEscape(returnURL)
		}
		c.Redirect(http.StatusSeeOther, h.federation.SignInRedirect(reentry))
		return
	}

	token, err := h.federation.Issue(principalFromSession(rec))
	if err != nil {
		handleFederationError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, h.federation.SSORedirectURL(token, returnURL))
}

// Return validates assertions coming back from the community platform.
// GET|POST /sso/community/return
func (h *FederationHandler) Return(c *gin.Context) {
	var req dto.ReturnRequest
	if c.Request.Method == http.MethodGet {
		req.Token = c.Query("token")
		req.ReturnURL = c.Query("return_url")
	} else if err := c.ShouldBind(&req); err != nil {
		handleFederationError(c, apperrors.ErrMissingToken)
		return
	}

	if req.Token == "" {
		handleFederationError(c, apperrors.ErrMissingToken)
		return
	}

	claims, err := h.federation.Verify(req.Token)
	if err != nil {
		handleFederationError(c, apperrors.ErrInvalidAssertion)
		return
	}

	// A round trip only succeeds for the user who is locally signed in;
	// a replayed or foreign assertion must not attach to this session.
	if err := h.federation.ValidateReturnTrip(claims, middleware.GetUserID(c)); err != nil {
		handleFederationError(c, err)
		return
	}

	if c.Request.Method == http.MethodGet {
		c.Redirect(http.StatusSeeOther, h.federation.SafeReturnURL(req.ReturnURL))
		return
	}

	c.JSON(http.StatusOK, dto.ReturnResponse{
		Success:   true,
		UserID:    claims.Subject,
		ReturnURL: h.federation.SafeReturnURL(req.ReturnURL),
	})
}

// LoginRedirect handles community-initiated sign-in: it forwards to the
// sign-in page with a redirect that re-enters SSO issuance afterwards.
// GET /sso/community/login
func (h *FederationHandler) LoginRedirect(c *gin.Context) {
	returnURL := c.Query("return_url")
	fromCommunity := c.Query("source") == "community"

	target := h.federation.SignInRedirect(reentryPath(returnURL))
	if fromCommunity {
		target += "&source=community&message=" + url.QueryEscape("Please sign in to access the community")
	}

	c.Redirect(http.StatusSeeOther, target)
}

// Refresh re-issues an assertion that is close to expiry and returns a still
// fresh one unchanged.
// POST /sso/community/refresh
func (h *FederationHandler) Refresh(c *gin.Context) {
	var req dto.ReturnRequest
	if err := c.ShouldBind(&req); err != nil || req.Token == "" {
		handleFederationError(c, apperrors.ErrMissingToken)
		return
	}

	var p *principal.Principal
	if rec := h.sessionRecord(c); rec != nil {
		p = principalFromSession(rec)
	}

	token, err := h.federation.RefreshIfStale(c.Request.Context(), req.Token, p)
	if err != nil {
		handleFederationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Token runs the authorization_code exchange for the community platform.
// POST /sso/community/token
func (h *FederationHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperrors.NewFederationError("invalid_request", err.Error()))
		return
	}

	resp, err := h.federation.ExchangeCode(&req)
	if err != nil {
		handleFederationError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UserInfo projects the token's subject into standard claim names.
// GET /sso/community/userinfo
func (h *FederationHandler) UserInfo(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthorized",
			"error_description": "missing or invalid authorization header",
		})
		return
	}

	info, err := h.federation.UserInfo(c.Request.Context(), token)
	if err != nil {
		handleFederationError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *FederationHandler) sessionRecord(c *gin.Context) *session.Record {
	sessionID := middleware.GetSessionID(c)
	if sessionID == "" {
		return nil
	}
	rec, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		return nil
	}
	return rec
}

func principalFromSession(rec *session.Record) *principal.Principal {
	return &principal.Principal{
		ID:       rec.UserID,
		Email:    rec.Email,
		Metadata: rec.Metadata,
	}
}

func reentryPath(returnURL string) string {
	if returnURL == "" {
		return ssoBase
	}
	return ssoBase + "?return_url=" + url.QueryEscape(returnURL)
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
