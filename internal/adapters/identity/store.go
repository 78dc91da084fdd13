package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
)

// Store returns cached identities and generates missing ones. A cached
// identity always wins over regeneration, so table edits never change an
// existing account.
type Store struct {
	repo ports.IdentityRepository
	mu   sync.Mutex
}

var _ ports.IdentityStore = (*Store)(nil)

func NewStore(repo ports.IdentityRepository) *Store {
	return &Store{repo: repo}
}

func (s *Store) GetOrCreate(ctx context.Context, key domain.AccountID) (domain.Identity, error) {
	cacheKey := CacheKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	cached, err := s.repo.Get(ctx, cacheKey)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, domain.ErrIdentityNotFound) {
		return domain.Identity{}, fmt.Errorf("get cached identity: %w", err)
	}

	identity := Generate(key)
	if err := s.repo.Save(ctx, cacheKey, identity); err != nil {
		return domain.Identity{}, fmt.Errorf("save identity: %w", err)
	}

	return identity, nil
}
