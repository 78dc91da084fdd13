package toml

import (
	"context"
	"sync"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/spf13/viper"
)

const (
	IdentitiesPathKey = "identities.path"
	identitiesFile    = "identities.toml"
)

type IdentityRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.IdentityRepository = (*IdentityRepository)(nil)

func NewIdentityRepository(cfg *viper.Viper) (*IdentityRepository, error) {
	path, err := resolvePath(cfg, IdentitiesPathKey, identitiesFile)
	if err != nil {
		return nil, err
	}

	return &IdentityRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *IdentityRepository) Get(ctx context.Context, key domain.AccountID) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Identity{}, err
	}

	for _, entry := range file.Identities {
		if entry.Key == string(key) {
			return fromIdentitySchema(entry.Identity), nil
		}
	}

	return domain.Identity{}, domain.ErrIdentityNotFound
}

// Save stores identity under key unless an entry already exists; cached
// identities are never replaced.
func (r *IdentityRepository) Save(ctx context.Context, key domain.AccountID, identity domain.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	for _, entry := range file.Identities {
		if entry.Key == string(key) {
			return nil
		}
	}

	file.Identities = append(file.Identities, identityEntrySchema{
		Key:      string(key),
		Identity: toIdentitySchema(identity),
	})

	return writeTOMLFile(r.path, file)
}

func (r *IdentityRepository) readSchema() (identitiesFileSchema, error) {
	var file identitiesFileSchema
	if _, err := readTOMLFile(r.path, &file); err != nil {
		return identitiesFileSchema{}, err
	}
	if err := validateVersion("identities", file.Version); err != nil {
		return identitiesFileSchema{}, err
	}
	defaultVersion(&file.Version)

	return file, nil
}

func toIdentitySchema(identity domain.Identity) identitySchema {
	return identitySchema(identity)
}

func fromIdentitySchema(schema identitySchema) domain.Identity {
	return domain.Identity(schema)
}
