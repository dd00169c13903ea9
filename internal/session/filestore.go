package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the session as a small JSON document of the four
// namespaced keys. Writes go through a temp file rename so a crashed write
// never leaves a torn record behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore builds a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Set writes all fields in one call.
func (s *FileStore) Set(state AuthState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := map[string]string{
		KeyRole:  string(state.Role),
		KeyEmail: state.Email,
		KeyToken: state.Token,
	}
	if state.Name != "" {
		values[KeyName] = state.Name
	}
	s.write(values)
}

// Get reads the stored state, treating a partial record as no session.
func (s *FileStore) Get() (AuthState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stateFromValues(s.read())
}

// Clear removes the backing file; safe when no session exists.
func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = os.Remove(s.path)
}

func (s *FileStore) read() map[string]string {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	values := make(map[string]string)
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}

func (s *FileStore) write(values map[string]string) {
	raw, err := json.Marshal(values)
	if err != nil {
		return
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return
	}
	_ = os.Rename(tmp.Name(), s.path)
}
