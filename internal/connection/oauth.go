package connection

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"crosspost/internal/domain"
)

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	// AuthInParams sends client credentials in the form body instead of
	// HTTP basic auth.
	AuthInParams bool
}

// OAuth2Refresher refreshes credentials against a standard OAuth2 token
// endpoint.
type OAuth2Refresher struct {
	config *oauth2.Config
	client *http.Client
}

func NewOAuth2Refresher(cfg OAuthConfig, client *http.Client) *OAuth2Refresher {
	style := oauth2.AuthStyleInHeader
	if cfg.AuthInParams {
		style = oauth2.AuthStyleInParams
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OAuth2Refresher{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: style,
			},
		},
		client: client,
	}
}

// Refresh makes a single token request bounded by ctx. It does not retry.
func (r *OAuth2Refresher) Refresh(ctx context.Context, conn *domain.Connection) (domain.Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)

	// A token without an access token is never valid, which forces the
	// source to hit the token endpoint.
	src := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: conn.Credential.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return domain.Credential{}, fmt.Errorf("refresh token: %w", err)
	}

	cred := domain.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = conn.Credential.RefreshToken
	}
	return cred, nil
}
