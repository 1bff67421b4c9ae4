package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const calendarScope = "https://www.googleapis.com/auth/calendar"

// AuthContext carries the credential for one request. It is an explicit
// value handed into every API call rather than ambient client state, so the
// core pipeline stays testable without a live session.
type AuthContext struct {
	AccessToken string
}

// Auth handles the OAuth2 device code flow against Google's endpoints.
type Auth struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewAuth(clientID, clientSecret string, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Auth{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// DeviceCodeResponse holds the response from the device code endpoint.
type DeviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// StartDeviceCodeFlow requests a user code the user enters at the
// verification URL.
func (a *Auth) StartDeviceCodeFlow(ctx context.Context) (*DeviceCodeResponse, error) {
	form := url.Values{
		"client_id": {a.clientID},
		"scope":     {calendarScope},
	}

	body, err := a.postForm(ctx, "https://oauth2.googleapis.com/device/code", form)
	if err != nil {
		return nil, fmt.Errorf("requesting device code: %w", err)
	}

	var dcResp DeviceCodeResponse
	if err := json.Unmarshal(body, &dcResp); err != nil {
		return nil, fmt.Errorf("parsing device code response: %w", err)
	}
	if dcResp.DeviceCode == "" {
		return nil, fmt.Errorf("device code request rejected: %s", string(body))
	}

	return &dcResp, nil
}

// PollForToken polls the token endpoint until the user completes
// authorization or the device code expires.
func (a *Auth) PollForToken(ctx context.Context, deviceCode string, interval int) (*TokenData, error) {
	if interval < 1 {
		interval = 5
	}

	form := url.Values{
		"client_id":     {a.clientID},
		"client_secret": {a.clientSecret},
		"grant_type":    {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code":   {deviceCode},
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(interval) * time.Second):
		}

		body, err := a.postForm(ctx, "https://oauth2.googleapis.com/token", form)
		if err != nil {
			return nil, fmt.Errorf("polling for token: %w", err)
		}

		var tokenResp tokenResponse
		if err := json.Unmarshal(body, &tokenResp); err != nil {
			return nil, fmt.Errorf("parsing token response: %w", err)
		}

		switch tokenResp.Error {
		case "":
			return &TokenData{
				AccessToken:  tokenResp.AccessToken,
				RefreshToken: tokenResp.RefreshToken,
				ExpiresAt:    time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
				Scope:        tokenResp.Scope,
			}, nil
		case "authorization_pending":
			a.logger.Debug("waiting for user authorization")
			continue
		case "slow_down":
			interval += 5
			a.logger.Debug("slowing down polling", "interval", interval)
			continue
		case "expired_token":
			return nil, fmt.Errorf("device code expired — please try again")
		default:
			return nil, fmt.Errorf("token error: %s — %s", tokenResp.Error, tokenResp.ErrorDesc)
		}
	}
}

// RefreshAccessToken exchanges a refresh token for a new access token.
func (a *Auth) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenData, error) {
	form := url.Values{
		"client_id":     {a.clientID},
		"client_secret": {a.clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	body, err := a.postForm(ctx, "https://oauth2.googleapis.com/token", form)
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("parsing refresh response: %w", err)
	}
	if tokenResp.Error != "" {
		return nil, fmt.Errorf("refresh failed: %s — %s", tokenResp.Error, tokenResp.ErrorDesc)
	}

	// Google omits the refresh token on refresh responses; keep the old one.
	if tokenResp.RefreshToken == "" {
		tokenResp.RefreshToken = refreshToken
	}

	return &TokenData{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
		Scope:        tokenResp.Scope,
	}, nil
}

// Authenticated loads cached tokens, refreshing if expired, and returns the
// AuthContext for this request.
func (a *Auth) Authenticated(ctx context.Context) (AuthContext, error) {
	tokens, err := LoadTokens()
	if err != nil {
		return AuthContext{}, fmt.Errorf("loading cached tokens: %w", err)
	}
	if tokens == nil {
		return AuthContext{}, fmt.Errorf("not authenticated with Google Calendar — run 'slotted auth' first")
	}

	if !tokens.IsExpired() {
		return AuthContext{AccessToken: tokens.AccessToken}, nil
	}

	a.logger.Debug("access token expired, refreshing")
	newTokens, err := a.RefreshAccessToken(ctx, tokens.RefreshToken)
	if err != nil {
		return AuthContext{}, fmt.Errorf("token refresh failed (run 'slotted auth' to re-authenticate): %w", err)
	}

	if err := SaveTokens(newTokens); err != nil {
		a.logger.Warn("failed to cache refreshed tokens", "error", err)
	}

	return AuthContext{AccessToken: newTokens.AccessToken}, nil
}

func (a *Auth) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
