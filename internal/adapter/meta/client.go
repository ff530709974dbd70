// Package meta talks to the Meta-family token endpoints used by Facebook,
// Instagram, and Threads.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/potensiadev/onesns.ai-sub001/internal/config"
	"github.com/potensiadev/onesns.ai-sub001/internal/domain/social"
)

// Client encapsulates outbound HTTP calls to provider token endpoints.
type Client interface {
	ExchangeCode(ctx context.Context, p social.Provider, app config.OAuthApp, code, codeVerifier, redirectURI string) (*social.ProviderToken, error)
	ExchangeLongLived(ctx context.Context, p social.Provider, app config.OAuthApp, accessToken string) (*social.ProviderToken, error)
	RefreshLongLived(ctx context.Context, p social.Provider, app config.OAuthApp, accessToken string) (*social.ProviderToken, error)
	ExtendToken(ctx context.Context, p social.Provider, app config.OAuthApp, currentToken string) (*social.ProviderToken, error)
}

// GraphClient is the default HTTP implementation. A shared limiter keeps the
// process inside the Graph API call budget.
type GraphClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Client = (*GraphClient)(nil)

// NewGraphClient constructs the default Client. rps bounds outbound token
// calls per second across all providers.
func NewGraphClient(client *http.Client, rps int) *GraphClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if rps < 1 {
		rps = 1
	}
	return &GraphClient{
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// ExchangeCode redeems an authorization code at the provider token endpoint.
func (c *GraphClient) ExchangeCode(ctx context.Context, p social.Provider, app config.OAuthApp, code, codeVerifier, redirectURI string) (*social.ProviderToken, error) {
	if strings.TrimSpace(app.TokenURL) == "" {
		return nil, fmt.Errorf("token url missing")
	}
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)
	data.Set("client_id", app.ClientID)
	data.Set("client_secret", app.ClientSecret)
	if strings.TrimSpace(codeVerifier) != "" {
		data.Set("code_verifier", codeVerifier)
	}
	return c.postForm(ctx, p, app.TokenURL, data)
}

// ExchangeLongLived upgrades a short-lived Instagram token into a long-lived
// one.
func (c *GraphClient) ExchangeLongLived(ctx context.Context, p social.Provider, app config.OAuthApp, accessToken string) (*social.ProviderToken, error) {
	if strings.TrimSpace(app.ExchangeURL) == "" {
		return nil, fmt.Errorf("long-lived exchange url missing")
	}
	params := url.Values{}
	params.Set("grant_type", "ig_exchange_token")
	params.Set("client_secret", app.ClientSecret)
	params.Set("access_token", accessToken)
	return c.getToken(ctx, p, app.ExchangeURL, params)
}

// RefreshLongLived renews an Instagram long-lived token before it expires.
func (c *GraphClient) RefreshLongLived(ctx context.Context, p social.Provider, app config.OAuthApp, accessToken string) (*social.ProviderToken, error) {
	if strings.TrimSpace(app.RefreshURL) == "" {
		return nil, fmt.Errorf("long-lived refresh url missing")
	}
	params := url.Values{}
	params.Set("grant_type", "ig_refresh_token")
	params.Set("access_token", accessToken)
	return c.getToken(ctx, p, app.RefreshURL, params)
}

// ExtendToken trades the current Facebook-family token for a fresh
// long-lived one.
func (c *GraphClient) ExtendToken(ctx context.Context, p social.Provider, app config.OAuthApp, currentToken string) (*social.ProviderToken, error) {
	if strings.TrimSpace(app.TokenURL) == "" {
		return nil, fmt.Errorf("token url missing")
	}
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", app.ClientID)
	params.Set("client_secret", app.ClientSecret)
	params.Set("fb_exchange_token", currentToken)
	return c.getToken(ctx, p, app.TokenURL, params)
}

func (c *GraphClient) postForm(ctx context.Context, p social.Provider, endpoint string, data url.Values) (*social.ProviderToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, p, endpoint)
}

func (c *GraphClient) getToken(ctx context.Context, p social.Provider, endpoint string, params url.Values) (*social.ProviderToken, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse token endpoint: %w", err)
	}
	q := u.Query()
	for key := range params {
		q.Set(key, params.Get(key))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, p, endpoint)
}

func (c *GraphClient) do(req *http.Request, p social.Provider, endpoint string) (*social.ProviderToken, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("token call throttled: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &social.ExchangeError{
			Provider:   p,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	token := &social.ProviderToken{
		AccessToken:  stringValue(raw["access_token"]),
		RefreshToken: stringValue(raw["refresh_token"]),
		TokenType:    stringValue(raw["token_type"]),
		Scope:        stringValue(raw["scope"]),
		Raw:          raw,
	}
	if exp := raw["expires_in"]; exp != nil {
		token.ExpiresIn = int64Value(exp)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, social.ErrEmptyToken
	}
	return token, nil
}

func stringValue(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func int64Value(input any) int64 {
	switch v := input.(type) {
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
