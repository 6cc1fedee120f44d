package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarity-seb/solarity-acres-courses/config"
	apperrors "github.com/solarity-seb/solarity-acres-courses/pkg/errors"
)

const (
	testUserID     = "5f8a1c2e-9b4d-4f6a-8c3e-1d2b3a4c5d6e"
	testEmail      = "grower@solarity.farm"
	testServiceKey = "service-role-key"
)

func userJSON(t *testing.T) []byte {
	t.Helper()
	confirmed := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	b, err := json.Marshal(map[string]interface{}{
		"id":                 testUserID,
		"email":              testEmail,
		"email_confirmed_at": confirmed,
		"user_metadata": map[string]interface{}{
			"display_name": "Grower",
		},
		"created_at": confirmed,
		"updated_at": confirmed,
	})
	require.NoError(t, err)
	return b
}

func newClient(baseURL string) *HTTPClient {
	return NewHTTPClient(&config.ProviderConfig{
		BaseURL:    baseURL,
		ServiceKey: testServiceKey,
		Timeout:    5 * time.Second,
	})
}

func TestAuthenticateSuccess(t *testing.T) {
	confirmed := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, testServiceKey, r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testEmail, body["email"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "provider-access",
			"refresh_token": "provider-refresh",
			"expires_in":    3600,
			"user": map[string]interface{}{
				"id":                 testUserID,
				"email":              testEmail,
				"email_confirmed_at": confirmed,
				"user_metadata":      map[string]interface{}{"display_name": "Grower"},
				"created_at":         confirmed,
				"updated_at":         confirmed,
			},
		})
	}))
	defer srv.Close()

	p, cred, err := newClient(srv.URL).Authenticate(context.Background(), testEmail, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testUserID, p.ID)
	assert.Equal(t, testEmail, p.Email)
	assert.True(t, p.EmailVerified)
	assert.Equal(t, "Grower", p.DisplayName())
	assert.Equal(t, "provider-access", cred.AccessToken)
	assert.Equal(t, "provider-refresh", cred.RefreshToken)
	assert.Equal(t, 3600, cred.ExpiresIn)
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, _, err := newClient(srv.URL).Authenticate(context.Background(), testEmail, "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuthenticateProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, _, err := newClient(srv.URL).Authenticate(context.Background(), testEmail, "hunter2")
	assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
}

func TestUserByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/users/"+testUserID, r.URL.Path)
		assert.Equal(t, "Bearer "+testServiceKey, r.Header.Get("Authorization"))
		w.Write(userJSON(t))
	}))
	defer srv.Close()

	p, err := newClient(srv.URL).UserByID(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, testUserID, p.ID)
	assert.True(t, p.EmailVerified)
}

func TestUserByIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).UserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserByTokenUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).UserByToken(context.Background(), "stale-token")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUserByTokenSendsUserToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "Bearer user-access-token", r.Header.Get("Authorization"))
		w.Write(userJSON(t))
	}))
	defer srv.Close()

	p, err := newClient(srv.URL).UserByToken(context.Background(), "user-access-token")
	require.NoError(t, err)
	assert.Equal(t, testEmail, p.Email)
}
