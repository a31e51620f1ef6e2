// Package auth wraps the GitHub OAuth web flow.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/kurihiro0119/gitpeek/internal/config"
)

// ErrNotConfigured is returned when no OAuth client credentials are set
var ErrNotConfigured = errors.New("GitHub OAuth is not configured")

// Scopes requested from GitHub
var Scopes = []string{"repo", "user"}

// OAuth drives the authorization code exchange with GitHub
type OAuth struct {
	config *oauth2.Config
}

// NewOAuth creates the OAuth flow from cfg. It returns nil when OAuth is not configured.
func NewOAuth(cfg *config.Config) *OAuth {
	if !cfg.OAuthConfigured() {
		return nil
	}
	return NewOAuthWithEndpoint(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURI, github.Endpoint)
}

// NewOAuthWithEndpoint creates the OAuth flow against an explicit endpoint
func NewOAuthWithEndpoint(clientID, clientSecret, redirectURI string, endpoint oauth2.Endpoint) *OAuth {
	return &OAuth{config: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint:     endpoint,
	}}
}

// AuthCodeURL returns the GitHub authorization URL and the state it carries.
// An empty redirectURI keeps the configured one.
func (o *OAuth) AuthCodeURL(redirectURI string) (authURL, state string, err error) {
	if o == nil {
		return "", "", ErrNotConfigured
	}
	state = uuid.New().String()

	var opts []oauth2.AuthCodeOption
	if redirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	}
	return o.config.AuthCodeURL(state, opts...), state, nil
}

// Exchange trades an authorization code for an access token
func (o *OAuth) Exchange(ctx context.Context, code string) (string, error) {
	if o == nil {
		return "", ErrNotConfigured
	}
	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("GitHub returned no access token")
	}
	return token.AccessToken, nil
}
