package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/brizzai/notion-tasks-sync/internal/models"
)

type MemoryStore struct {
	users map[string]models.UserRecord
	mu    sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]models.UserRecord)}
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*models.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryStore) SaveUser(ctx context.Context, rec *models.UserRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("user record needs an id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[rec.ID] = *rec
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
