// Package users persists user accounts. PostgresRepository is used in
// production, InMemoryRepository when no database is configured and in tests.
package users

import (
	"context"

	"github.com/dmitrijs2005/userdesk/internal/server/models"
	"github.com/google/uuid"
)

// Repository is the storage contract for users. Lookups of a missing id or
// e-mail return common.ErrNotFound; a duplicate e-mail returns
// common.ErrAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}
