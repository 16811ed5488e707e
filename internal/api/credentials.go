package api

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// CredentialStore holds the access/refresh token pair for the current
// session and persists it to a token file so the CLI survives restarts.
// All reads and writes go through the canonical accessors; historical key
// aliases in the file are handled here and nowhere else.
type CredentialStore struct {
	path string

	mu      sync.RWMutex
	access  string
	refresh string
}

// tokenFile is the on-disk shape. Older clients wrote the same tokens under
// several names; reads fall back through the aliases, writes emit only the
// canonical keys.
type tokenFile struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Access       string `json:"access,omitempty"`
	Refresh      string `json:"refresh,omitempty"`
	Token        string `json:"token,omitempty"`
}

// NewCredentialStore loads any existing tokens from path. A missing or
// unreadable file simply yields an empty (guest) store.
func NewCredentialStore(path string) *CredentialStore {
	s := &CredentialStore{path: path}
	s.load()
	return s
}

func (s *CredentialStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return
	}
	s.access = firstNonEmpty(f.AccessToken, f.Access, f.Token)
	s.refresh = firstNonEmpty(f.RefreshToken, f.Refresh)
}

// Set stores a new credential pair, as returned by login.
func (s *CredentialStore) Set(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	s.persistLocked()
}

// SetAccess replaces the access token only, keeping the refresh token. Used
// after a successful refresh.
func (s *CredentialStore) SetAccess(access string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.persistLocked()
}

// Clear drops both tokens unconditionally (sign-out, rejected refresh).
func (s *CredentialStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	s.persistLocked()
}

// Access returns the current access token, empty for guests.
func (s *CredentialStore) Access() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// RefreshToken returns the stored refresh token, empty for guests.
func (s *CredentialStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// HasAccess reports whether an access token is currently held.
func (s *CredentialStore) HasAccess() bool {
	return s.Access() != ""
}

func (s *CredentialStore) persistLocked() {
	if s.path == "" {
		return
	}
	if s.access == "" && s.refresh == "" {
		_ = os.Remove(s.path)
		return
	}
	data, err := json.Marshal(tokenFile{AccessToken: s.access, RefreshToken: s.refresh})
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o700)
	_ = os.WriteFile(s.path, data, 0o600)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
