// Package creds supplies the opaque identifiers the catalog fetcher needs:
// an API key (possibly rotating among several), a catalog id, and a
// channel id.
package creds

import (
	"encoding/base64"
	"fmt"
	"sync/atomic"
)

// Static holds fixed, plain-text credentials. Useful for tests and for
// deployments that keep secrets in the environment.
type Static struct {
	Key     string
	Catalog string
	Channel string
}

// APIKey returns the fixed key.
func (s Static) APIKey() string { return s.Key }

// CatalogID returns the listing collection id.
func (s Static) CatalogID() string { return s.Catalog }

// ChannelID returns the search scope id.
func (s Static) ChannelID() string { return s.Channel }

// Obfuscated stores its secrets XOR-ed with a salt and base64-encoded,
// revealing them on demand and rotating round-robin among the configured
// keys. The obfuscation keeps secrets out of casual string dumps; it is
// an obscurement, not a security boundary.
type Obfuscated struct {
	keys    []string // base64(secret XOR salt)
	salt    []byte
	catalog string
	channel string
	next    atomic.Uint64
}

// NewObfuscated creates a provider from obfuscated key material.
// Each key must be base64(plaintext XOR salt).
func NewObfuscated(keys []string, salt []byte, catalogID, channelID string) (*Obfuscated, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("creds: at least one key required")
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("creds: salt required")
	}

	// Validate the material up front so a bad key fails at construction,
	// not on the first request.
	for i, k := range keys {
		if _, err := reveal(k, salt); err != nil {
			return nil, fmt.Errorf("creds: key %d: %w", i, err)
		}
	}

	return &Obfuscated{
		keys:    keys,
		salt:    salt,
		catalog: catalogID,
		channel: channelID,
	}, nil
}

// APIKey reveals the next key in round-robin order.
func (o *Obfuscated) APIKey() string {
	n := o.next.Add(1) - 1
	key, err := reveal(o.keys[n%uint64(len(o.keys))], o.salt)
	if err != nil {
		// Validated at construction; unreachable unless the material
		// was mutated afterwards.
		return ""
	}
	return key
}

// CatalogID returns the listing collection id.
func (o *Obfuscated) CatalogID() string { return o.catalog }

// ChannelID returns the search scope id.
func (o *Obfuscated) ChannelID() string { return o.channel }

// Obfuscate encodes a plain-text secret for storage: XOR with salt, then
// base64. The inverse of reveal; exported so operators can prepare key
// material.
func Obfuscate(plain string, salt []byte) string {
	data := []byte(plain)
	for i := range data {
		data[i] ^= salt[i%len(salt)]
	}
	return base64.StdEncoding.EncodeToString(data)
}

func reveal(encoded string, salt []byte) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode key material: %w", err)
	}
	for i := range data {
		data[i] ^= salt[i%len(salt)]
	}
	return string(data), nil
}
