package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/userdesk/internal/server/repositories/users"
)

// InMemoryRepositoryManager backs the server when no database is configured.
// WithinTx serializes callers instead of providing rollback.
type InMemoryRepositoryManager struct {
	mu    sync.Mutex
	users *users.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{users: users.NewInMemoryRepository()}
}

func (m *InMemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *InMemoryRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m.users)
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Close() error { return nil }
