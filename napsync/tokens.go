package napsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// TokenService is the external OAuth collaborator boundary (Google only).
// The engine asks it whether a stored token is stale and for a replacement;
// issuance and consent flows live outside this core.
type TokenService interface {
	IsExpired(expiresAt *time.Time) bool
	Refresh(ctx context.Context, orgId string, refreshToken string) (accessToken string, expiresAt time.Time, err error)
}

type googleTokenService struct {
	http         *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
}

// NewGoogleTokenService reads client credentials from env. Base URL is
// overridable for tests/staging.
func NewGoogleTokenService(client *http.Client) TokenService {
	tokenURL := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_URL"))
	if tokenURL == "" {
		tokenURL = "https://oauth2.googleapis.com/token"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &googleTokenService{
		http:         client,
		tokenURL:     tokenURL,
		clientID:     strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_ID")),
		clientSecret: strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET")),
	}
}

// IsExpired treats a missing expiry as expired and refreshes one minute
// early to absorb clock skew.
func (s *googleTokenService) IsExpired(expiresAt *time.Time) bool {
	if expiresAt == nil {
		return true
	}
	return time.Now().Add(time.Minute).After(*expiresAt)
}

func (s *googleTokenService) Refresh(ctx context.Context, orgId string, refreshToken string) (string, time.Time, error) {
	if s.clientID == "" || s.clientSecret == "" {
		return "", time.Time{}, errors.New("google oauth client credentials not configured")
	}
	if strings.TrimSpace(refreshToken) == "" {
		return "", time.Time{}, errors.New("refresh token is empty")
	}

	form := url.Values{}
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", time.Time{}, fmt.Errorf("token refresh failed %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", time.Time{}, fmt.Errorf("malformed token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", time.Time{}, errors.New("token response missing access_token")
	}

	expiresIn := parsed.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	return parsed.AccessToken, time.Now().Add(time.Duration(expiresIn) * time.Second), nil
}
