package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solarity-seb/solarity-acres-courses/pkg/errors"
)

// handleAuthError converts domain errors to HTTP responses. Raw internal
// detail never reaches the client.
func handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_credentials",
			"error_description": "invalid email or password",
		})
	case errors.Is(err, errors.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "user_not_found",
			"error_description": "user not found",
		})
	case errors.Is(err, errors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthorized",
			"error_description": "authentication required",
		})
	case errors.Is(err, errors.ErrProviderUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":             "provider_unavailable",
			"error_description": "identity provider is unavailable",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "internal server error",
		})
	}
}

// handleFederationError converts bridge errors to HTTP responses. Every
// verification failure maps to the same generic body; the reason is a
// side-channel the client does not get.
func handleFederationError(c *gin.Context, err error) {
	if fedErr, ok := err.(*errors.FederationError); ok {
		status := http.StatusBadRequest
		if fedErr.Code == "invalid_client" {
			status = http.StatusUnauthorized
		}
		c.JSON(status, fedErr)
		return
	}

	switch {
	case errors.Is(err, errors.ErrMissingToken):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "missing authentication token",
		})
	case errors.Is(err, errors.ErrInvalidAssertion),
		errors.Is(err, errors.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_token",
			"error_description": "authentication failed",
		})
	case errors.Is(err, errors.ErrAuthenticationMismatch):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "authentication_mismatch",
			"error_description": "authentication failed",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "internal server error",
		})
	}
}
