package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"rescueplate/internal/models"
)

// Keys the session is persisted under.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// SessionStore is client-local key/value storage that survives restarts.
type SessionStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// MemorySessionStore keeps values for the life of the process.
type MemorySessionStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySessionStore creates an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{values: make(map[string]string)}
}

func (m *MemorySessionStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemorySessionStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemorySessionStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// FileSessionStore keeps values in a JSON object on disk.
type FileSessionStore struct {
	path string
	mu   sync.Mutex
}

// NewFileSessionStore stores values in the file at path. The file is created on first write.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// DefaultSessionPath is ~/.rescueplate/session.json, or a file in the working directory
// when the home directory is unknown.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rescueplate-session.json"
	}
	return filepath.Join(home, ".rescueplate", "session.json")
}

func (f *FileSessionStore) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileSessionStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

func (f *FileSessionStore) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.write(values)
}

func (f *FileSessionStore) read() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return values, nil
}

func (f *FileSessionStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Session is the signed-in state of the client. The in-memory copy and the
// store are always updated together.
type Session struct {
	store SessionStore
	mu    sync.RWMutex
	token string
	user  *models.User
}

// NewSession creates a signed-out session backed by store. Call Init to rehydrate it.
func NewSession(store SessionStore) *Session {
	return &Session{store: store}
}

// Init restores a previously saved session. The session stays signed out
// unless both the token and the user are present; an unreadable user record
// is discarded.
func (s *Session) Init() error {
	token, hasToken, err := s.store.Get(TokenKey)
	if err != nil {
		return err
	}
	rawUser, hasUser, err := s.store.Get(UserKey)
	if err != nil {
		return err
	}
	if !hasToken || !hasUser || token == "" {
		return nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		log.Printf("Discarding unreadable saved session: %v", err)
		return s.Clear()
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()
	return nil
}

// Save signs the session in and persists it.
func (s *Session) Save(token string, user *models.User) error {
	if token == "" || user == nil {
		return errors.New("session needs both a token and a user")
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(TokenKey, token); err != nil {
		return err
	}
	if err := s.store.Set(UserKey, string(rawUser)); err != nil {
		// Put the token key back so the store keeps matching memory.
		var rollbackErr error
		if s.token != "" {
			rollbackErr = s.store.Set(TokenKey, s.token)
		} else {
			rollbackErr = s.store.Remove(TokenKey)
		}
		if rollbackErr != nil {
			log.Printf("Failed to roll back saved token: %v", rollbackErr)
		}
		return err
	}
	u := *user
	s.token = token
	s.user = &u
	return nil
}

// Clear signs the session out and removes the saved copy.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	if err := s.store.Remove(TokenKey); err != nil {
		return err
	}
	return s.store.Remove(UserKey)
}

// Token returns the current access token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// Role returns the signed-in user's role, or "" when signed out.
func (s *Session) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

func (s *Session) IsVendor() bool {
	return s.Role() == models.RoleVendor
}
