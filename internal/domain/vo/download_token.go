package vo

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
)

// tokenAlphabet is deliberately narrow: alphanumerics, hyphen, underscore.
// Do not broaden it — see spec Open Questions on token validation.
var tokenAlphabet = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const minTokenLength = 32

// DownloadToken is a cryptographically random, URL-safe identifier that
// authorizes exactly one download. Equality is value-based.
type DownloadToken struct {
	value string
}

// NewDownloadToken validates an existing token string (e.g. read back from
// the KV store). Use GenerateDownloadToken to mint a fresh one.
func NewDownloadToken(value string) (DownloadToken, error) {
	if len(value) < minTokenLength {
		return DownloadToken{}, fmt.Errorf("invalid download token: must be at least %d characters, got %d", minTokenLength, len(value))
	}
	if !tokenAlphabet.MatchString(value) {
		return DownloadToken{}, fmt.Errorf("invalid download token: must be URL-safe alphanumeric/-/_ only")
	}
	return DownloadToken{value: value}, nil
}

// GenerateDownloadToken mints a new cryptographically secure token using
// 32 bytes of randomness, base64url-encoded without padding (matching the
// original implementation's secrets.token_urlsafe(32)).
func GenerateDownloadToken() (DownloadToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return DownloadToken{}, fmt.Errorf("generate download token: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(buf)
	return NewDownloadToken(encoded)
}

// String returns the token's wire value. Callers must not log this above
// debug level.
func (t DownloadToken) String() string { return t.value }

// Equal compares two tokens by value.
func (t DownloadToken) Equal(other DownloadToken) bool { return t.value == other.value }

// IsZero reports whether the token was never set.
func (t DownloadToken) IsZero() bool { return t.value == "" }
