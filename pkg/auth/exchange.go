package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	errs "fbinsights/pkg/errors"
	"fbinsights/pkg/graph"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

// PageScopes are the permissions needed to read page and post insights
var PageScopes = []string{"pages_show_list", "pages_read_engagement", "read_insights"}

// NewOAuthConfig builds the OAuth2 configuration of a Meta app
func NewOAuthConfig(appID, appSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     appID,
		ClientSecret: appSecret,
		RedirectURL:  redirectURL,
		Scopes:       PageScopes,
		Endpoint:     facebook.Endpoint,
	}
}

// ExchangeOption configures ExchangeLongLivedToken
type ExchangeOption func(*exchangeOptions)

type exchangeOptions struct {
	baseURL    string
	version    string
	httpClient *http.Client
}

// WithGraphEndpoint sets the Graph API base URL and version the token
// endpoint lives under
func WithGraphEndpoint(baseURL, version string) ExchangeOption {
	return func(o *exchangeOptions) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
		if version != "" {
			o.version = version
		}
	}
}

// WithExchangeHTTPClient sets the HTTP client used for the exchange
func WithExchangeHTTPClient(hc *http.Client) ExchangeOption {
	return func(o *exchangeOptions) {
		o.httpClient = hc
	}
}

// ExchangeLongLivedToken trades a short-lived access token for a
// long-lived one with the fb_exchange_token grant. The app id and secret
// are taken from cfg.
func ExchangeLongLivedToken(ctx context.Context, cfg *oauth2.Config, shortLived string, opts ...ExchangeOption) (*oauth2.Token, error) {
	if cfg == nil || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("app id and app secret are required")
	}
	if shortLived == "" {
		return nil, errors.New("short-lived token is required")
	}

	o := exchangeOptions{
		baseURL: graph.DefaultBaseURL,
		version: graph.DefaultAPIVersion,
	}
	for _, opt := range opts {
		opt(&o)
	}

	conf := *cfg
	conf.RedirectURL = ""
	conf.Endpoint = oauth2.Endpoint{
		AuthURL:   cfg.Endpoint.AuthURL,
		TokenURL:  graph.BuildURL(o.baseURL, o.version, "oauth", "access_token", nil),
		AuthStyle: oauth2.AuthStyleInParams,
	}

	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}

	token, err := conf.Exchange(ctx, shortLived,
		oauth2.SetAuthURLParam("grant_type", "fb_exchange_token"),
		oauth2.SetAuthURLParam("fb_exchange_token", shortLived),
	)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, fmt.Errorf("token exchange failed: %w", graph.ParseError(retrieveErr.Response.StatusCode, retrieveErr.Body))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("token exchange cancelled: %w", ctxErr)
		}
		return nil, fmt.Errorf("token exchange failed: %w", errs.Network(err))
	}

	return token, nil
}
