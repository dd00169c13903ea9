// Package session provides the client-side session store and the
// token-exchange flow that turns a one-time exchange token into a durable,
// role-scoped session.
package session

import (
	"sync"

	"github.com/spec-kit/hospital-auth/internal/domain"
)

// Storage keys for the four session fields, namespaced to avoid collisions
// with other client state.
const (
	KeyRole  = "auth.role"
	KeyEmail = "auth.email"
	KeyToken = "auth.token"
	KeyName  = "auth.name"
)

// AuthState is the durable client-side record of an authenticated principal.
// Name is optional; its absence is distinguishable from an empty name.
type AuthState struct {
	Role  domain.Role
	Email string
	Token string
	Name  string
}

// Store persists the authenticated session. A state is only considered
// present when role, email and token all exist; a partial record reads as
// no session.
type Store interface {
	Set(state AuthState)
	Get() (AuthState, bool)
	Clear()
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Set writes all fields within a single critical section so a reader never
// observes values from different write generations.
func (s *MemoryStore) Set(state AuthState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[KeyRole] = string(state.Role)
	s.values[KeyEmail] = state.Email
	s.values[KeyToken] = state.Token
	if state.Name != "" {
		s.values[KeyName] = state.Name
	} else {
		delete(s.values, KeyName)
	}
}

// Get returns the stored state. Missing any required field discards the rest.
func (s *MemoryStore) Get() (AuthState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stateFromValues(s.values)
}

// Clear removes all four keys; a no-op when no session exists.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, KeyRole)
	delete(s.values, KeyEmail)
	delete(s.values, KeyToken)
	delete(s.values, KeyName)
}

func stateFromValues(values map[string]string) (AuthState, bool) {
	role, email, token := values[KeyRole], values[KeyEmail], values[KeyToken]
	if role == "" || email == "" || token == "" {
		return AuthState{}, false
	}
	return AuthState{
		Role:  domain.Role(role),
		Email: email,
		Token: token,
		Name:  values[KeyName],
	}, true
}
