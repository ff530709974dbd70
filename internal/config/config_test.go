package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://local/onesns")
	t.Setenv("TOKEN_CIPHER_KEY", "0000000000000000000000000000000000000000000000000000000000000000")
	t.Setenv("SESSION_JWT_SECRET", "session-secret")
	t.Setenv("INTERNAL_API_TOKEN", "internal-token")
	for _, prefix := range []string{"FACEBOOK", "INSTAGRAM", "THREADS"} {
		t.Setenv(prefix+"_CLIENT_ID", prefix+"-client")
		t.Setenv(prefix+"_CLIENT_SECRET", prefix+"-secret")
		t.Setenv(prefix+"_REDIRECT_URI", "https://app.onesns.ai/connect/callback")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, 7*24*time.Hour, cfg.SweepWindow)
	require.Equal(t, time.Duration(0), cfg.SweepInterval)
	require.Equal(t, 4, cfg.SweepConcurrency)

	require.Equal(t, "FACEBOOK-client", cfg.Facebook.ClientID)
	require.Equal(t, "https://graph.facebook.com/v21.0/oauth/access_token", cfg.Facebook.TokenURL)
	require.Equal(t, "https://graph.instagram.com/access_token", cfg.Instagram.ExchangeURL)
	require.Equal(t, "https://graph.instagram.com/refresh_access_token", cfg.Instagram.RefreshURL)
	require.NotEmpty(t, cfg.Threads.Scopes)
	require.Empty(t, cfg.Facebook.ExchangeURL)
}

func TestLoad_MissingProviderCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("INSTAGRAM_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "INSTAGRAM_CLIENT_SECRET is required")
}

func TestLoad_MissingCipherKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_CIPHER_KEY", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "TOKEN_CIPHER_KEY is required")
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FACEBOOK_SCOPES", "pages_manage_posts, business_management")
	t.Setenv("FACEBOOK_TOKEN_URL", "http://127.0.0.1:9009/oauth/access_token")
	t.Setenv("SWEEP_INTERVAL", "30m")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"pages_manage_posts", "business_management"}, cfg.Facebook.Scopes)
	require.Equal(t, "http://127.0.0.1:9009/oauth/access_token", cfg.Facebook.TokenURL)
	require.Equal(t, 30*time.Minute, cfg.SweepInterval)
}
