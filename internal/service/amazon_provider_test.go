package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/yourusername/quiz-web/internal/config"
)

func newTestAmazonProvider(t *testing.T, profileStatus int, profile map[string]string) *AmazonProvider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access-123",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/user/profile", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-123", r.Header.Get("Authorization"))
		w.WriteHeader(profileStatus)
		_ = json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p, err := NewAmazonProvider(config.AmazonConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		CallbackURL:  "http://localhost/auth/amazon/callback",
	})
	require.NoError(t, err)
	p.oauth.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	p.profileURL = srv.URL + "/user/profile"
	return p
}

func TestNewAmazonProvider_RequiresClientID(t *testing.T) {
	_, err := NewAmazonProvider(config.AmazonConfig{})
	assert.ErrorIs(t, err, ErrAuthDisabled)
}

func TestAmazonProvider_AuthCodeURL(t *testing.T) {
	p, err := NewAmazonProvider(config.AmazonConfig{ClientID: "client", CallbackURL: "https://example.com/auth/amazon/callback"})
	require.NoError(t, err)
	assert.Equal(t, "amazon", p.Name())

	u, err := url.Parse(p.AuthCodeURL("nonce-1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "www.amazon.com", u.Host)
	assert.Equal(t, "profile", q.Get("scope"))
	assert.Equal(t, "nonce-1", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://example.com/auth/amazon/callback", q.Get("redirect_uri"))
}

func TestAmazonProvider_Exchange(t *testing.T) {
	p := newTestAmazonProvider(t, http.StatusOK, map[string]string{
		"user_id": "amzn1.account.ABC",
		"name":    " Alice ",
		"email":   "alice@example.com",
	})

	profile, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "amzn1.account.ABC", profile.ID)
	assert.Equal(t, "Alice", profile.DisplayName)
	assert.Equal(t, "alice@example.com", profile.Email)
}

func TestAmazonProvider_ExchangeErrors(t *testing.T) {
	ctx := context.Background()

	p := newTestAmazonProvider(t, http.StatusOK, map[string]string{"user_id": "x"})
	_, err := p.Exchange(ctx, "")
	assert.ErrorIs(t, err, ErrProviderExchange)
	_, err = p.Exchange(ctx, "bad-code")
	assert.ErrorIs(t, err, ErrProviderExchange)

	p = newTestAmazonProvider(t, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
	_, err = p.Exchange(ctx, "good-code")
	assert.ErrorIs(t, err, ErrProviderExchange)

	p = newTestAmazonProvider(t, http.StatusOK, map[string]string{"name": "No Id"})
	_, err = p.Exchange(ctx, "good-code")
	assert.ErrorIs(t, err, ErrProviderExchange)
}
