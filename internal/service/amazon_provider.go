package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/amazon"

	"github.com/yourusername/quiz-web/internal/config"
)

const (
	amazonProviderName = "amazon"
	amazonProfileURL   = "https://api.amazon.com/user/profile"
)

// Profile - профиль пользователя, полученный от провайдера
type Profile struct {
	ID          string
	DisplayName string
	Email       string
}

// OAuthProvider описывает authorization-code поток внешнего провайдера
type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// AmazonProvider реализует вход через Login with Amazon
type AmazonProvider struct {
	oauth      *oauth2.Config
	profileURL string
	httpClient *http.Client
}

// NewAmazonProvider создает провайдер Amazon с областью доступа "profile"
func NewAmazonProvider(cfg config.AmazonConfig) (*AmazonProvider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("%w: amazon client id is not configured", ErrAuthDisabled)
	}
	return &AmazonProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     amazon.Endpoint,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"profile"},
		},
		profileURL: amazonProfileURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Name возвращает имя провайдера, используемое в маршрутах /auth/<name>
func (p *AmazonProvider) Name() string {
	return amazonProviderName
}

// AuthCodeURL возвращает адрес страницы согласия Amazon
func (p *AmazonProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

type amazonProfileResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Exchange обменивает код на токен и загружает профиль пользователя
func (p *AmazonProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: empty authorization code", ErrProviderExchange)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", ErrProviderExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create amazon profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: profile request: %v", ErrProviderExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: profile status=%d body=%s", ErrProviderExchange, resp.StatusCode, string(body))
	}

	var payload amazonProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode profile: %v", ErrProviderExchange, err)
	}
	if strings.TrimSpace(payload.UserID) == "" {
		return nil, fmt.Errorf("%w: profile without user_id", ErrProviderExchange)
	}

	return &Profile{
		ID:          strings.TrimSpace(payload.UserID),
		DisplayName: strings.TrimSpace(payload.Name),
		Email:       strings.TrimSpace(payload.Email),
	}, nil
}
