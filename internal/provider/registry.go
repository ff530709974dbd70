// Package provider resolves static OAuth application settings for the
// supported publishing platforms.
package provider

import (
	"fmt"

	"github.com/potensiadev/onesns.ai-sub001/internal/config"
	"github.com/potensiadev/onesns.ai-sub001/internal/domain/social"
)

// Registry maps each supported provider to its registered OAuth application.
// The provider set is closed; lookups outside it fail with
// social.ErrUnknownProvider.
type Registry struct {
	apps map[social.Provider]config.OAuthApp
}

// NewRegistry builds the registry from loaded configuration. Incomplete
// entries are rejected here so request handling never observes a
// half-configured provider.
func NewRegistry(cfg config.Config) (*Registry, error) {
	apps := map[social.Provider]config.OAuthApp{
		social.ProviderFacebook:  cfg.Facebook,
		social.ProviderInstagram: cfg.Instagram,
		social.ProviderThreads:   cfg.Threads,
	}
	for p, app := range apps {
		if app.ClientID == "" || app.ClientSecret == "" || app.RedirectURI == "" {
			return nil, fmt.Errorf("provider %s credentials: %w", p, social.ErrProviderNotConfigured)
		}
		if app.AuthURL == "" || app.TokenURL == "" {
			return nil, fmt.Errorf("provider %s endpoints: %w", p, social.ErrProviderNotConfigured)
		}
		if p == social.ProviderInstagram && (app.ExchangeURL == "" || app.RefreshURL == "") {
			return nil, fmt.Errorf("provider %s long-lived endpoints: %w", p, social.ErrProviderNotConfigured)
		}
	}
	return &Registry{apps: apps}, nil
}

// App returns the OAuth application settings for a provider.
func (r *Registry) App(p social.Provider) (config.OAuthApp, error) {
	app, ok := r.apps[p]
	if !ok {
		return config.OAuthApp{}, fmt.Errorf("provider %s: %w", p, social.ErrUnknownProvider)
	}
	return app, nil
}
