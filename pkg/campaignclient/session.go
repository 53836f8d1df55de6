/**
 * @description
 * Session management for the campaign client. The persisted token is the
 * single source of truth for "is there a plausible session"; the user
 * projection is held only in memory and rebuilt by re-validating the token
 * against the whoami endpoint.
 *
 * Ordering invariant: on any failed re-validation the stored token is
 * deleted BEFORE the in-memory user is cleared, so no reader ever observes a
 * token without a corresponding valid-or-pending session check.
 */

package campaignclient

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MemoryTokenStore keeps the token in process memory. Used in tests and for
// callers that do not want persistence.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) DeleteToken() error {
	return s.SetToken("")
}

// FileTokenStore persists the token in a single file, surviving process
// restarts the way browser storage survives page loads.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore creates a store backed by the given file path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileTokenStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

func (s *FileTokenStore) DeleteToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Session tracks the current account across the page's components.
type Session struct {
	client *Client
	tokens TokenStore

	mu       sync.Mutex
	user     *User
	lastFail string
}

// NewSession creates a session bound to a client and its token store.
func NewSession(client *Client, tokens TokenStore) *Session {
	return &Session{client: client, tokens: tokens}
}

// CurrentUser returns the in-memory user projection, if any.
func (s *Session) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a plausible session exists: a non-empty
// stored token. The user projection may still be pending re-validation.
func (s *Session) IsAuthenticated() bool {
	token, err := s.tokens.Token()
	return err == nil && token != ""
}

// LastFailure returns the reason recorded by the most recent failed refresh.
func (s *Session) LastFailure() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFail
}

// Refresh re-validates the stored token against the whoami endpoint. Any
// failure downgrades to logged-out: the token is deleted first, then the
// in-memory user cleared. The failure reason is recorded but never retried.
func (s *Session) Refresh(ctx context.Context) error {
	token, err := s.tokens.Token()
	if err != nil || token == "" {
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		return nil
	}

	user, err := s.client.Me(ctx)
	if err != nil {
		// Delete before clearing so a token never outlives a failed check.
		s.tokens.DeleteToken()
		s.mu.Lock()
		s.user = nil
		s.lastFail = err.Error()
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.user = user
	s.lastFail = ""
	s.mu.Unlock()
	return nil
}

// adopt persists the token first, then installs the user, mirroring the
// delete-before-clear ordering on the way in.
func (s *Session) adopt(auth *AuthResponse) error {
	if err := s.tokens.SetToken(auth.Token); err != nil {
		return err
	}
	s.mu.Lock()
	s.user = &auth.User
	s.lastFail = ""
	s.mu.Unlock()
	return nil
}

// Login authenticates with email and password and installs the session.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	auth, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.adopt(auth); err != nil {
		return nil, err
	}
	return &auth.User, nil
}

// Signup registers an account and installs the session.
func (s *Session) Signup(ctx context.Context, email, password, firstName, lastName string) (*User, error) {
	auth, err := s.client.Signup(ctx, email, password, firstName, lastName)
	if err != nil {
		return nil, err
	}
	if err := s.adopt(auth); err != nil {
		return nil, err
	}
	return &auth.User, nil
}

// LoginWithGoogle installs a session from a Google credential.
func (s *Session) LoginWithGoogle(ctx context.Context, credential string, info SocialUserInfo) (*User, error) {
	auth, err := s.client.GoogleLogin(ctx, credential, info)
	if err != nil {
		return nil, err
	}
	if err := s.adopt(auth); err != nil {
		return nil, err
	}
	return &auth.User, nil
}

// LoginWithFacebook installs a session from a Facebook access token.
func (s *Session) LoginWithFacebook(ctx context.Context, accessToken string, info SocialUserInfo) (*User, error) {
	auth, err := s.client.FacebookLogin(ctx, accessToken, info)
	if err != nil {
		return nil, err
	}
	if err := s.adopt(auth); err != nil {
		return nil, err
	}
	return &auth.User, nil
}

// Logout ends the session. The network call is advisory; local cleanup is
// unconditional and ordered token-first.
func (s *Session) Logout(ctx context.Context) {
	_ = s.client.Logout(ctx)
	s.tokens.DeleteToken()
	s.mu.Lock()
	s.user = nil
	s.lastFail = ""
	s.mu.Unlock()
}
