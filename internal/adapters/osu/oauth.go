package osu

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/okian/osuwrapped/internal/domain/model"
)

// Scopes requested at login.
var Scopes = []string{"identify", "public"}

// Credential is a bearer token plus its expiry.
type Credential struct {
	AccessToken string
	Expiry      time.Time
}

// TTL returns the remaining lifetime at now, never negative.
func (c Credential) TTL(now time.Time) time.Duration {
	if c.Expiry.IsZero() {
		return 0
	}
	if d := c.Expiry.Sub(now); d > 0 {
		return d
	}
	return 0
}

// OAuthConfig names the client registration and provider endpoints.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
}

// OAuth runs the authorization-code grant against osu!.
type OAuth struct {
	cfg        *oauth2.Config
	httpClient *http.Client
}

// NewOAuth builds an OAuth flow. A nil httpClient uses http.DefaultClient.
func NewOAuth(c OAuthConfig, httpClient *http.Client) *OAuth {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   c.AuthURL,
				TokenURL:  c.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}
}

// AuthCodeURL returns the provider consent URL carrying state.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.cfg.AuthCodeURL(state)
}

// Exchange trades an authorization code for a Credential.
// A rejected code maps to model.ErrAuth, anything else to model.ErrUpstream.
func (o *OAuth) Exchange(ctx context.Context, code string) (Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	started := time.Now()
	tok, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			observe(endpointToken, re.Response.StatusCode, started)
			switch re.Response.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
				return Credential{}, fmt.Errorf("%w: token exchange rejected: %w", model.ErrAuth, err)
			}
		} else {
			observe(endpointToken, 0, started)
		}
		return Credential{}, fmt.Errorf("%w: token exchange: %w", model.ErrUpstream, err)
	}
	observe(endpointToken, http.StatusOK, started)
	if tok.AccessToken == "" {
		return Credential{}, fmt.Errorf("%w: token exchange returned no access token", model.ErrUpstream)
	}
	return Credential{AccessToken: tok.AccessToken, Expiry: tok.Expiry}, nil
}
