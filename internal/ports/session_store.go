package ports

import (
	"context"

	"github.com/bnema/deltahash-cli/internal/domain"
)

type SessionStore interface {
	Save(ctx context.Context, key domain.AccountID, snapshot domain.Snapshot) error
	List(ctx context.Context) ([]domain.Snapshot, error)
}
