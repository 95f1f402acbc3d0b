// Package token persists the session token between console runs. The token
// is a fallback credential carrier only; the live session rides the cookie
// jar. At rest the token is sealed with a machine-local secretbox key so a
// copied data directory is useless on another machine.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keyFile   = "token.key"
	tokenFile = "token.bin"
)

// ErrNoToken is returned when no token has been stored.
var ErrNoToken = errors.New("no stored token")

// Claims are the identity fields the server embeds in the session token.
// The client reads them without verifying the signature; verification is
// the server's job on every request.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Store reads and writes the sealed token under a data directory.
type Store struct {
	dir string
}

// NewStore creates a token store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating token dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save seals and writes the token.
func (s *Store) Save(token string) error {
	key, err := s.loadOrCreateKey()
	if err != nil {
		return err
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, key)
	if err := os.WriteFile(filepath.Join(s.dir, tokenFile), sealed, 0o600); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

// Load reads and opens the stored token. Returns ErrNoToken when nothing
// is stored, and an error when the stored blob cannot be opened (e.g. the
// key file was replaced).
func (s *Store) Load() (string, error) {
	sealed, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("reading token: %w", err)
	}
	if len(sealed) < 24 {
		return "", errors.New("stored token is corrupt")
	}

	key, err := s.loadOrCreateKey()
	if err != nil {
		return "", err
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	opened, ok := secretbox.Open(nil, sealed[24:], &nonce, key)
	if !ok {
		return "", errors.New("stored token could not be opened")
	}
	return string(opened), nil
}

// Forget removes the stored token. Missing files are not an error.
func (s *Store) Forget() error {
	err := os.Remove(filepath.Join(s.dir, tokenFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token: %w", err)
	}
	return nil
}

// ParseClaims reads the identity claims from a token without verifying its
// signature.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	return claims, nil
}

// Expired reports whether a token's expiry claim has passed. Tokens
// without an expiry claim are treated as expired.
func Expired(token string, now time.Time) bool {
	claims, err := ParseClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Before(now)
}

// loadOrCreateKey returns the machine-local sealing key, generating one on
// first use.
func (s *Store) loadOrCreateKey() (*[32]byte, error) {
	path := filepath.Join(s.dir, keyFile)
	var key [32]byte

	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != 32 {
			return nil, errors.New("token key is corrupt")
		}
		copy(key[:], data)
		return &key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading token key: %w", err)
	}

	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("generating token key: %w", err)
	}
	if err := os.WriteFile(path, key[:], 0o600); err != nil {
		return nil, fmt.Errorf("writing token key: %w", err)
	}
	return &key, nil
}
