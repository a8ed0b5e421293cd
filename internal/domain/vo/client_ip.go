package vo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/netip"
)

// ClientIP is a validated, parsed client address used as the key for
// rate-limit bookkeeping. It never appears in logs or wire payloads in its
// raw form; HashForKey is used instead.
type ClientIP struct {
	addr netip.Addr
}

// NewClientIP parses and validates raw as an IPv4 or IPv6 address.
func NewClientIP(raw string) (ClientIP, error) {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return ClientIP{}, fmt.Errorf("invalid client ip %q: %w", raw, err)
	}
	return ClientIP{addr: addr}, nil
}

// String returns the canonical textual form of the address.
func (c ClientIP) String() string { return c.addr.String() }

// HashForKey derives a stable, non-reversible-in-practice key suffix for
// rate-limit counters: the first 16 hex characters of SHA-256(address).
func (c ClientIP) HashForKey() string {
	sum := sha256.Sum256([]byte(c.addr.String()))
	return hex.EncodeToString(sum[:])[:16]
}

// IsWhitelisted reports whether this address appears in the given whitelist,
// comparing canonical forms.
func (c ClientIP) IsWhitelisted(whitelist []string) bool {
	for _, w := range whitelist {
		addr, err := netip.ParseAddr(w)
		if err != nil {
			continue
		}
		if addr == c.addr {
			return true
		}
	}
	return false
}
