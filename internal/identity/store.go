package identity

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// MemoryStore keeps the session for the lifetime of the process.
type MemoryStore struct {
	mu   sync.Mutex
	user *User
}

func (m *MemoryStore) Load() (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyUser(m.user), nil
}

func (m *MemoryStore) Save(u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = copyUser(u)
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	return nil
}

// FileStore keeps the session as JSON in a user-private file.
type FileStore struct {
	Path string
}

// ConfigDir returns the per-user ngotes configuration directory.
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "ngotes")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ngotes")
}

// DefaultFileStore stores the session under ConfigDir.
func DefaultFileStore() *FileStore {
	return &FileStore{Path: filepath.Join(ConfigDir(), "session.json")}
}

// Load returns nil when no session was saved.
func (f *FileStore) Load() (*User, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, err
	}
	if u.Token.AccessToken == "" {
		return nil, nil
	}
	return &u, nil
}

func (f *FileStore) Save(u *User) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o600)
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
