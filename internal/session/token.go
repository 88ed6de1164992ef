package session

import (
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zeebo/blake3"
)

// Fingerprint returns a short, stable identifier of a token that is safe to
// log.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}

// TokenInfo is what can be read from a token without the signing key.
type TokenInfo struct {
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	JWT         bool      `json:"jwt" yaml:"jwt"`
	Subject     string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Issuer      string    `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	IssuedAt    time.Time `json:"issuedAt,omitempty" yaml:"issuedAt,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

// Expired reports whether the token carries an expiry that has passed.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect decodes token claims without verifying the signature. The
// console never trusts these values; they are only shown to the operator.
// Opaque tokens yield a TokenInfo with JWT false.
func Inspect(token string) TokenInfo {
	info := TokenInfo{Fingerprint: Fingerprint(token)}
	if token == "" {
		return info
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return info
	}

	info.JWT = true
	info.Subject = claims.Subject
	info.Issuer = claims.Issuer
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}

// TokenInfo inspects the current token.
func (s *Store) TokenInfo() TokenInfo {
	return Inspect(s.Token())
}
