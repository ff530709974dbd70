// Package connect orchestrates the account-connect flow: authorization
// URL construction, code exchange, and the sanitized connection listing.
package connect

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/potensiadev/onesns.ai-sub001/internal/adapter/meta"
	"github.com/potensiadev/onesns.ai-sub001/internal/config"
	"github.com/potensiadev/onesns.ai-sub001/internal/domain/social"
	"github.com/potensiadev/onesns.ai-sub001/internal/metrics"
	"github.com/potensiadev/onesns.ai-sub001/internal/pkce"
	"github.com/potensiadev/onesns.ai-sub001/internal/provider"
	"github.com/potensiadev/onesns.ai-sub001/internal/repository"
	"github.com/potensiadev/onesns.ai-sub001/internal/secrets"
)

// Service defines the connect orchestration behaviors.
type Service interface {
	StartAuthorization(ctx context.Context, in StartAuthorizationInput) (*StartAuthorizationOutput, error)
	ExchangeCode(ctx context.Context, userID int64, in ExchangeCodeInput) (*Connection, error)
	ListConnections(ctx context.Context, userID int64) ([]Connection, error)
}

// StartAuthorizationInput contains parameters for constructing an
// authorization URL.
type StartAuthorizationInput struct {
	Provider    string
	RedirectURI string
}

// StartAuthorizationOutput returns the prepared authorization URL and the
// PKCE material the client must hold until the callback. Nothing here is
// persisted server-side.
type StartAuthorizationOutput struct {
	Provider         social.Provider
	AuthorizationURL string
	State            string
	CodeVerifier     string
}

// ExchangeCodeInput captures the callback parameters forwarded by the client.
type ExchangeCodeInput struct {
	Provider     string
	Code         string
	CodeVerifier string
	RedirectURI  string
}

// Connection is the sanitized view of a stored social account. Token
// ciphertext never leaves the service layer.
type Connection struct {
	Provider           social.Provider      `json:"provider"`
	Status             social.AccountStatus `json:"status"`
	NeedsReconnect     bool                 `json:"needs_reconnect"`
	Scopes             []string             `json:"scopes"`
	ExpiresAt          *time.Time           `json:"expires_at"`
	LongLivedExpiresAt *time.Time           `json:"long_lived_expires_at"`
	LastSyncedAt       time.Time            `json:"last_synced_at"`
	LastError          *string              `json:"last_error"`
	ConnectedAt        time.Time            `json:"connected_at"`
}

type connectService struct {
	registry *provider.Registry
	client   meta.Client
	accounts repository.AccountRepository
	codec    secrets.Codec
	node     *snowflake.Node
	logger   *zap.Logger
}

// NewService wires the connect service implementation.
func NewService(
	registry *provider.Registry,
	client meta.Client,
	accounts repository.AccountRepository,
	codec secrets.Codec,
	node *snowflake.Node,
	logger *zap.Logger,
) Service {
	return &connectService{
		registry: registry,
		client:   client,
		accounts: accounts,
		codec:    codec,
		node:     node,
		logger:   logger,
	}
}

func (s *connectService) StartAuthorization(ctx context.Context, in StartAuthorizationInput) (*StartAuthorizationOutput, error) {
	prov, err := social.ParseProvider(in.Provider)
	if err != nil {
		return nil, err
	}
	app, err := s.registry.App(prov)
	if err != nil {
		return nil, err
	}
	redirect := resolveRedirect(in.RedirectURI, app)

	verifier, err := pkce.GenerateVerifier()
	if err != nil {
		return nil, err
	}
	state := pkce.GenerateState()

	authURL, err := url.Parse(app.AuthURL)
	if err != nil {
		return nil, fmt.Errorf("parse auth url: %w", err)
	}
	params := authURL.Query()
	params.Set("client_id", app.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", redirect)
	// Meta dialogs take comma-separated scopes.
	params.Set("scope", strings.Join(app.Scopes, ","))
	params.Set("state", state)
	params.Set("code_challenge", pkce.DeriveChallenge(verifier))
	params.Set("code_challenge_method", "S256")
	authURL.RawQuery = params.Encode()

	// The verifier travels back with the response and only returns on the
	// exchange call; it is never stored here.
	return &StartAuthorizationOutput{
		Provider:         prov,
		AuthorizationURL: authURL.String(),
		State:            state,
		CodeVerifier:     verifier,
	}, nil
}

func (s *connectService) ExchangeCode(ctx context.Context, userID int64, in ExchangeCodeInput) (*Connection, error) {
	prov, err := social.ParseProvider(in.Provider)
	if err != nil {
		return nil, err
	}
	app, err := s.registry.App(prov)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(in.Code)
	verifier := strings.TrimSpace(in.CodeVerifier)
	if code == "" || verifier == "" {
		return nil, social.ErrInvalidRequest
	}
	redirect := resolveRedirect(in.RedirectURI, app)

	status := "failed"
	defer func() {
		metrics.CodeExchanges.WithLabelValues(prov.String(), status).Inc()
	}()

	token, err := s.client.ExchangeCode(ctx, prov, app, code, verifier, redirect)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	// The code is consumed upstream from here on; any failure below is a
	// post-exchange failure and must not leave partial rows behind.
	now := time.Now().UTC()
	account := social.SocialAccount{
		ID:        s.node.Generate().Int64(),
		UserID:    userID,
		Provider:  prov,
		Scopes:    grantedScopes(token.Scope, app.Scopes),
		ExpiresAt: social.ExpiryFrom(now, token.ExpiresIn),
	}

	cipherAccess, err := s.codec.Encrypt(ctx, token.AccessToken)
	if err != nil {
		return nil, &social.PostExchangeError{Err: fmt.Errorf("encrypt access token: %w", err)}
	}
	account.AccessToken = cipherAccess

	if token.RefreshToken != "" {
		cipherRefresh, err := s.codec.Encrypt(ctx, token.RefreshToken)
		if err != nil {
			return nil, &social.PostExchangeError{Err: fmt.Errorf("encrypt refresh token: %w", err)}
		}
		account.RefreshToken = &cipherRefresh
	}

	if prov == social.ProviderInstagram {
		longLived, err := s.client.ExchangeLongLived(ctx, prov, app, token.AccessToken)
		if err != nil {
			return nil, &social.PostExchangeError{Err: fmt.Errorf("upgrade to long-lived token: %w", err)}
		}
		cipherLong, err := s.codec.Encrypt(ctx, longLived.AccessToken)
		if err != nil {
			return nil, &social.PostExchangeError{Err: fmt.Errorf("encrypt long-lived token: %w", err)}
		}
		account.LongLivedToken = &cipherLong
		account.LongLivedExpiresAt = social.ExpiryFrom(now, longLived.ExpiresIn)
	}

	account.MarkConnected(now)

	saved, err := s.accounts.Upsert(ctx, account)
	if err != nil {
		return nil, &social.PostExchangeError{Err: fmt.Errorf("persist account: %w", err)}
	}
	status = "connected"

	s.log().Info("social account connected",
		zap.Int64("user_id", userID),
		zap.String("provider", prov.String()),
	)

	conn := toConnection(saved)
	return &conn, nil
}

func (s *connectService) ListConnections(ctx context.Context, userID int64) ([]Connection, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	connections := make([]Connection, 0, len(accounts))
	for _, account := range accounts {
		connections = append(connections, toConnection(account))
	}
	return connections, nil
}

func (s *connectService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}

func resolveRedirect(requested string, app config.OAuthApp) string {
	if trimmed := strings.TrimSpace(requested); trimmed != "" {
		return trimmed
	}
	return app.RedirectURI
}

// grantedScopes prefers the scopes the provider reported on the token
// response and falls back to the configured request scopes.
func grantedScopes(raw string, fallback []string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return append([]string{}, fallback...)
	}
	return fields
}

func toConnection(account social.SocialAccount) Connection {
	return Connection{
		Provider:           account.Provider,
		Status:             account.Status,
		NeedsReconnect:     account.NeedsReconnect,
		Scopes:             account.Scopes,
		ExpiresAt:          account.ExpiresAt,
		LongLivedExpiresAt: account.LongLivedExpiresAt,
		LastSyncedAt:       account.LastSyncedAt,
		LastError:          account.LastError,
		ConnectedAt:        account.CreatedAt,
	}
}
