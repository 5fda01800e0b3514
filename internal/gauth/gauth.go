// Package gauth builds the OAuth2 HTTP client shared by the Sheets and Gmail
// adapters from a stored refresh token.
package gauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tartampluch/go-taskdigest/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/sheets/v4"
)

// Scopes are the permissions the refresh token must carry.
var Scopes = []string{sheets.SpreadsheetsScope, gmail.GmailSendScope}

// Credentials identify the OAuth client and the user that granted it.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RefreshToken string
	// TokenURL overrides Google's token endpoint.
	TokenURL string
}

// OAuthConfig returns the client configuration against Google's endpoint.
func (c Credentials) OAuthConfig() *oauth2.Config {
	endpoint := google.Endpoint
	if c.TokenURL != "" {
		endpoint.TokenURL = c.TokenURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Endpoint:     endpoint,
		Scopes:       Scopes,
	}
}

// Client returns an HTTP client that refreshes its access token as needed.
// The first token is fetched eagerly so a revoked refresh token fails the
// run before any spreadsheet or mail call.
func Client(ctx context.Context, creds Credentials) (*http.Client, error) {
	src := creds.OAuthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})

	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrTokenRefresh, err)
	}
	slog.Debug(config.MsgTokenRefreshed,
		config.LogKeyComponent, config.CompAuth,
		config.LogKeyExpiry, tok.Expiry)

	return oauth2.NewClient(ctx, src), nil
}
