// Package credentials stores the LLM provider API key in the system keyring:
// - macOS: Keychain
// - Windows: Credential Manager
// - Linux: Secret Service (libsecret)
//
// The key is stored under the service name "meetsum" with the provider name
// as the account, so OpenRouter and Gemini keys can coexist.
package credentials

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name used in the system keyring.
const KeyringService = "meetsum"

// Common errors.
var (
	// ErrNoCredentials is returned when no key is stored for a provider.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrKeyringUnavailable indicates the system keyring is not available.
	ErrKeyringUnavailable = errors.New("system keyring unavailable")
)

// Store reads and writes provider API keys in the system keyring.
type Store struct {
	mu      sync.Mutex
	service string
}

// NewStore creates a Store using the default keyring service.
func NewStore() *Store {
	return &Store{service: KeyringService}
}

// GetAPIKey returns the key stored for provider. It returns ErrNoCredentials
// when nothing is stored and wraps ErrKeyringUnavailable when the keyring
// cannot be reached.
func (s *Store) GetAPIKey(provider string) (string, error) {
	if provider == "" {
		return "", fmt.Errorf("provider is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := keyring.Get(s.service, provider)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoCredentials
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return key, nil
}

// SetAPIKey stores key for provider, replacing any existing value.
func (s *Store) SetAPIKey(provider, key string) error {
	if provider == "" {
		return fmt.Errorf("provider is required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := keyring.Set(s.service, provider, key); err != nil {
		return fmt.Errorf("%w: storing key: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// DeleteAPIKey removes the key for provider. Deleting a missing key returns
// ErrNoCredentials.
func (s *Store) DeleteAPIKey(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := keyring.Delete(s.service, provider); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNoCredentials
		}
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// Description returns a human-readable name of the keyring backend.
func (s *Store) Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}

// MaskAPIKey returns a masked API key showing only a short prefix.
func MaskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return strings.Repeat("*", len(apiKey))
	}
	// OpenRouter keys look like "sk-or-v1-...".
	if strings.HasPrefix(apiKey, "sk-or-") {
		return "sk-or-" + strings.Repeat("*", 8) + "..."
	}
	return apiKey[:4] + strings.Repeat("*", 8) + "..."
}
