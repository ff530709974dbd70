// Package token verifies the session tokens minted by the main
// application. This service never issues sessions itself.
package token

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
)

var allowedAlgorithms = []gojose.SignatureAlgorithm{gojose.HS256}

// Verifier checks session tokens against the shared application secret
// and extracts the authenticated user.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a session token verifier.
func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("session secret is empty")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// SessionClaims carries the session fields this service reads.
type SessionClaims struct {
	UserID int64
	Email  string
	Expiry time.Time
}

// Verify parses and validates a session token, returning its claims.
func (v *Verifier) Verify(raw string) (*SessionClaims, error) {
	parsed, err := gojwt.ParseSigned(raw, allowedAlgorithms)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	var std gojwt.Claims
	var custom struct {
		Email string `json:"email"`
	}
	if err := parsed.Claims(v.secret, &std, &custom); err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if err := std.Validate(gojwt.Expected{Time: time.Now()}); err != nil {
		return nil, fmt.Errorf("validate claims: %w", err)
	}

	userID, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("invalid subject %q", std.Subject)
	}

	claims := &SessionClaims{UserID: userID, Email: custom.Email}
	if std.Expiry != nil {
		claims.Expiry = std.Expiry.Time()
	}
	return claims, nil
}
