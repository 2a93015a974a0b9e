package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"fbinsights/internal/graphtest"
	errs "fbinsights/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2/facebook"
)

func TestNewOAuthConfig(t *testing.T) {
	cfg := NewOAuthConfig("1234", "secret", "http://localhost/callback")
	assert.Equal(t, "1234", cfg.ClientID)
	assert.Equal(t, facebook.Endpoint.AuthURL, cfg.Endpoint.AuthURL)
	assert.Contains(t, cfg.Scopes, "read_insights")
	assert.Contains(t, cfg.AuthCodeURL("state"), "client_id=1234")
}

func TestExchangeLongLivedToken(t *testing.T) {
	server := graphtest.NewServer()
	defer server.Close()

	cfg := NewOAuthConfig("1234", "secret", "")
	token, err := ExchangeLongLivedToken(context.Background(), cfg, "EAAshort",
		WithGraphEndpoint(server.URL(), graphtest.Version))
	require.NoError(t, err)

	assert.Equal(t, "EAAlonglivedEAAshort", token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(5183944*time.Second), token.Expiry, time.Minute)
	assert.Equal(t, []string{"EAAshort"}, server.ExchangedTokens())
}

func TestExchangeLongLivedTokenAPIError(t *testing.T) {
	server := graphtest.NewServer()
	defer server.Close()
	server.SetErrorResponse("oauth/access_token", http.StatusBadRequest,
		graphtest.GraphError("Error validating access token: Session has expired", 190))

	cfg := NewOAuthConfig("1234", "secret", "")
	_, err := ExchangeLongLivedToken(context.Background(), cfg, "EAAexpired",
		WithGraphEndpoint(server.URL(), graphtest.Version),
		WithExchangeHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
	assert.Contains(t, err.Error(), "Session has expired")
}

func TestExchangeLongLivedTokenValidation(t *testing.T) {
	_, err := ExchangeLongLivedToken(context.Background(), NewOAuthConfig("", "secret", ""), "EAAshort")
	assert.Error(t, err)

	_, err = ExchangeLongLivedToken(context.Background(), NewOAuthConfig("1234", "secret", ""), "")
	assert.Error(t, err)
}

func TestExchangeLongLivedTokenTransportError(t *testing.T) {
	server := graphtest.NewServer()
	url := server.URL()
	server.Close()

	_, err := ExchangeLongLivedToken(context.Background(), NewOAuthConfig("1234", "secret", ""), "EAAshort",
		WithGraphEndpoint(url, graphtest.Version))
	require.Error(t, err)
	assert.True(t, errs.IsNetwork(err))
}
