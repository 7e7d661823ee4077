package storage

import (
	"context"

	"github.com/dmitrijs2005/userdesk/internal/common"
)

// TokenStore persists the bearer token in the metadata table under
// common.TokenStorageKey.
type TokenStore struct {
	repo MetadataRepository
}

func NewTokenStore(repo MetadataRepository) *TokenStore {
	return &TokenStore{repo: repo}
}

// Load returns "" when no token has been saved.
func (s *TokenStore) Load(ctx context.Context) (string, error) {
	v, _, err := s.repo.Get(ctx, common.TokenStorageKey)
	return v, err
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	return s.repo.Set(ctx, common.TokenStorageKey, token)
}

func (s *TokenStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, common.TokenStorageKey)
}
