package ports

import (
	"context"

	"github.com/bnema/deltahash-cli/internal/domain"
)

// IdentityStore returns the stable identity of an account, creating it on first
// use.
type IdentityStore interface {
	GetOrCreate(ctx context.Context, key domain.AccountID) (domain.Identity, error)
}

type IdentityRepository interface {
	Get(ctx context.Context, key domain.AccountID) (domain.Identity, error)
	Save(ctx context.Context, key domain.AccountID, identity domain.Identity) error
}
