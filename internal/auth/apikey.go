// Package auth authenticates admin API keys. Keys are never stored in
// plain text: only their HMAC-SHA256 under a server-side pepper is kept.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned for missing, unknown, or inactive keys.
var ErrUnauthorized = errors.New("unauthorized")

// KeyInfo describes an admin API key.
type KeyInfo struct {
	ID      int64
	Name    string
	KeyHash string
}

// Repository finds active keys by hash. Implementations return
// ErrUnauthorized when no key matches.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*KeyInfo, error)
}

// HashKey returns the hex HMAC-SHA256 of key under pepper.
func HashKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticator checks presented keys against a Repository.
type Authenticator struct {
	keys   Repository
	pepper []byte
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(keys Repository, pepper []byte) *Authenticator {
	return &Authenticator{keys: keys, pepper: pepper}
}

// Authenticate hashes key, looks it up, and compares the stored hash in
// constant time.
func (a *Authenticator) Authenticate(ctx context.Context, key string) (*KeyInfo, error) {
	if key == "" {
		return nil, ErrUnauthorized
	}
	hash := HashKey(a.pepper, key)

	info, err := a.keys.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrUnauthorized
		}
		return nil, errors.Wrap(err, "find key")
	}

	want, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil, ErrUnauthorized
	}
	got, _ := hex.DecodeString(hash)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return nil, ErrUnauthorized
	}
	return info, nil
}

// StaticKeys is a Repository over a fixed list of "name:hash" or bare hash
// entries, as read from configuration.
type StaticKeys struct {
	byHash map[string]KeyInfo
}

// NewStaticKeys parses the configured entries.
func NewStaticKeys(entries []string) *StaticKeys {
	s := &StaticKeys{byHash: make(map[string]KeyInfo, len(entries))}
	for i, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		name, hash, ok := strings.Cut(e, ":")
		if !ok {
			name, hash = "config", e
		}
		hash = strings.ToLower(hash)
		s.byHash[hash] = KeyInfo{ID: int64(i + 1), Name: name, KeyHash: hash}
	}
	return s
}

// FindByHash implements Repository.
func (s *StaticKeys) FindByHash(_ context.Context, hash string) (*KeyInfo, error) {
	info, ok := s.byHash[hash]
	if !ok {
		return nil, ErrUnauthorized
	}
	return &info, nil
}

// Len returns the number of configured keys.
func (s *StaticKeys) Len() int { return len(s.byHash) }

// Chain tries each repository in order and returns the first match.
type Chain []Repository

// FindByHash implements Repository.
func (c Chain) FindByHash(ctx context.Context, hash string) (*KeyInfo, error) {
	for _, r := range c {
		info, err := r.FindByHash(ctx, hash)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrUnauthorized) {
			return nil, err
		}
	}
	return nil, ErrUnauthorized
}
