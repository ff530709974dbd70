package social

import (
	"strings"
	"time"
)

// Provider identifies a supported publishing platform.
type Provider string

const (
	ProviderFacebook  Provider = "facebook"
	ProviderInstagram Provider = "instagram"
	ProviderThreads   Provider = "threads"
)

// Providers lists every supported provider in stable order.
func Providers() []Provider {
	return []Provider{ProviderFacebook, ProviderInstagram, ProviderThreads}
}

// ParseProvider normalizes raw caller input into a Provider.
func ParseProvider(raw string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(raw))) {
	case ProviderFacebook:
		return ProviderFacebook, nil
	case ProviderInstagram:
		return ProviderInstagram, nil
	case ProviderThreads:
		return ProviderThreads, nil
	default:
		return "", ErrUnknownProvider
	}
}

func (p Provider) String() string {
	return string(p)
}

// AccountStatus expresses the connection lifecycle of a stored credential.
type AccountStatus string

const (
	StatusConnected         AccountStatus = "connected"
	StatusReconnectRequired AccountStatus = "reconnect_required"
)

// SocialAccount is the stored credential set for one (user, provider) pair.
// Token fields hold ciphertext only; plaintext never reaches the store.
type SocialAccount struct {
	ID                 int64
	UserID             int64
	Provider           Provider
	AccessToken        string
	RefreshToken       *string
	LongLivedToken     *string
	Scopes             []string
	ExpiresAt          *time.Time
	LongLivedExpiresAt *time.Time
	Status             AccountStatus
	NeedsReconnect     bool
	LastSyncedAt       time.Time
	LastError          *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// MarkConnected records a healthy credential write. Status and the
// needs_reconnect flag always move together.
func (a *SocialAccount) MarkConnected(now time.Time) {
	a.Status = StatusConnected
	a.NeedsReconnect = false
	a.LastSyncedAt = now
	a.LastError = nil
}

// MarkReconnectRequired flags the account for manual re-authorization.
// Token fields are left untouched.
func (a *SocialAccount) MarkReconnectRequired(cause string) {
	a.Status = StatusReconnectRequired
	a.NeedsReconnect = true
	a.LastError = &cause
}

// ExpiryFrom converts a token lifetime in seconds into an absolute expiry.
// Providers omit expires_in for tokens without a known lifetime; zero or
// negative means no expiry is recorded.
func ExpiryFrom(now time.Time, expiresIn int64) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	t := now.Add(time.Duration(expiresIn) * time.Second).UTC()
	return &t
}

// ProviderToken models the response from a provider token endpoint.
type ProviderToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresIn    int64
	Raw          map[string]any
}
