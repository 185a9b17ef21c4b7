package session

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryStore is an in-memory session store.
// Sessions are lost on process restart; use it for development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	byToken   map[string]*Session
	tokenByID map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byToken:   make(map[string]*Session),
		tokenByID: make(map[string]string),
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byToken[s.Token] = clone(s)
	m.tokenByID[s.ID] = s.Token
	return nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.byToken[token]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.IsExpired() {
		m.mu.Lock()
		delete(m.byToken, token)
		delete(m.tokenByID, s.ID)
		m.mu.Unlock()
		return nil, ErrExpired
	}
	return clone(s), nil
}

func (m *MemoryStore) Update(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Token rotation: the stored entry may live under an old token.
	if old, ok := m.tokenByID[s.ID]; ok && old != s.Token {
		delete(m.byToken, old)
	} else if !ok {
		return ErrNotFound
	}

	m.byToken[s.Token] = clone(s)
	m.tokenByID[s.ID] = s.Token
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token, ok := m.tokenByID[id]; ok {
		delete(m.byToken, token)
		delete(m.tokenByID, id)
	}
	return nil
}

func (m *MemoryStore) DeleteByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, s := range m.byToken {
		if s.UserID != nil && *s.UserID == userID {
			delete(m.byToken, token)
			delete(m.tokenByID, s.ID)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.byToken {
		if s.ExpiresAt.Before(before) {
			delete(m.byToken, token)
			delete(m.tokenByID, s.ID)
			n++
		}
	}
	return n, nil
}

// clone copies a session so callers never share maps with the store.
func clone(s *Session) *Session {
	c := *s
	c.Values = maps.Clone(s.Values)
	c.Flash = maps.Clone(s.Flash)
	return &c
}
