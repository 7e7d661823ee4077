// Package repomanager vends repositories bound to one storage backend and
// runs multi-step operations against them atomically.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/userdesk/internal/server/repositories/users"
)

type RepositoryManager interface {
	// Users returns a repository outside any transaction.
	Users() users.Repository
	// WithinTx runs fn with repositories bound to a single transaction.
	// The transaction commits when fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error
	RunMigrations(ctx context.Context) error
	Close() error
}
