package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/GriffinCanCode/sketchbox/internal/shared/types"
	"github.com/goccy/go-yaml"
)

// ErrNotAuthenticated is returned by operations that need a logged-in user.
var ErrNotAuthenticated = errors.New("not logged in")

// Credentials is the persisted login.
type Credentials struct {
	Token   string     `yaml:"token"`
	User    types.User `yaml:"user"`
	SavedAt time.Time  `yaml:"saved_at"`
}

// Store holds the bearer token and user record. With a path it persists
// them to a YAML file readable only by the owner; without one it keeps them
// in memory.
type Store struct {
	path string

	mu    sync.RWMutex
	creds *Credentials
}

// Open loads the credential file at path. A missing file means logged out.
// An empty path gives an in-memory store.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", path, err)
	}
	if creds.Token != "" {
		s.creds = &creds
	}
	return s, nil
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds != nil
}

// Token returns the bearer token, or "" when logged out. It has the shape
// of client.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.Token
}

// User returns the logged-in user.
func (s *Store) User() (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return types.User{}, ErrNotAuthenticated
	}
	return s.creds.User, nil
}

// Login stores the result of register or login.
func (s *Store) Login(res *types.AuthResult) error {
	if res == nil || res.Token == "" {
		return errors.New("login result has no token")
	}
	creds := &Credentials{Token: res.Token, User: res.User, SavedAt: time.Now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(creds); err != nil {
		return err
	}
	s.creds = creds
	return nil
}

// Logout forgets the token and removes the credential file.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

func (s *Store) write(creds *Credentials) error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
