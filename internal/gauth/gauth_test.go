package gauth_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/gauth"
	"golang.org/x/oauth2/google"
)

func TestOAuthConfig(t *testing.T) {
	cfg := gauth.Credentials{ClientID: "id", ClientSecret: "secret", RedirectURI: config.DefaultRedirectURI}.OAuthConfig()

	assert.Equal(t, google.Endpoint.TokenURL, cfg.Endpoint.TokenURL)
	assert.Contains(t, cfg.Scopes, "https://www.googleapis.com/auth/spreadsheets")
	assert.Contains(t, cfg.Scopes, "https://www.googleapis.com/auth/gmail.send")
}

func TestClient_RefreshesAndAuthorizes(t *testing.T) {
	var refreshes atomic.Int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt-1", r.PostForm.Get("refresh_token"))

		w.Header().Set(config.HeaderContentType, config.MimeJSON)
		_, _ = io.WriteString(w, `{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get(config.HeaderAuthorization))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer apiSrv.Close()

	client, err := gauth.Client(context.Background(), gauth.Credentials{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "rt-1",
		TokenURL:     tokenSrv.URL,
	})
	require.NoError(t, err)

	for range 2 {
		resp, err := client.Get(apiSrv.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}
	// The eager token is reused while it is valid.
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestClient_RevokedToken(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(config.HeaderContentType, config.MimeJSON)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`)
	}))
	defer tokenSrv.Close()

	_, err := gauth.Client(context.Background(), gauth.Credentials{RefreshToken: "revoked", TokenURL: tokenSrv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrTokenRefresh)
}
