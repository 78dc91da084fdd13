package toml

import (
	"context"
	"sync"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/spf13/viper"
)

const (
	AccountsPathKey = "accounts.path"
	accountsFile    = "accounts.toml"
)

// Repository reads and writes the accounts file.
type Repository struct {
	accountsPath string
	mu           *sync.RWMutex
}

var _ ports.AccountRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	path, err := resolvePath(cfg, AccountsPathKey, accountsFile)
	if err != nil {
		return nil, err
	}

	return &Repository{accountsPath: path, mu: lockForPath(path)}, nil
}

func (r *Repository) Path() string {
	return r.accountsPath
}

// List returns the configured accounts in file order. A missing file is
// ErrAccountsFileNotFound.
func (r *Repository) List(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, found, err := r.readSchema()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrAccountsFileNotFound
	}

	accounts := make([]domain.Account, 0, len(file.Accounts))
	for i, entry := range file.Accounts {
		account := fromAccountSchema(entry, i)
		if err := account.Validate(); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// Save replaces the entry with the same key or appends a new one.
func (r *Repository) Save(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	account.NormalizeProxies()
	if err := account.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, _, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toAccountSchema(account)
	updated := false
	for i := range file.Accounts {
		if fromAccountSchema(file.Accounts[i], i).ID == account.ID {
			file.Accounts[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Accounts = append(file.Accounts, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeTOMLFile(r.accountsPath, file)
}

func (r *Repository) readSchema() (accountsFileSchema, bool, error) {
	var file accountsFileSchema
	found, err := readTOMLFile(r.accountsPath, &file)
	if err != nil {
		return accountsFileSchema{}, found, err
	}
	if err := validateVersion("accounts", file.Version); err != nil {
		return accountsFileSchema{}, found, err
	}
	defaultVersion(&file.Version)

	return file, found, nil
}

func toAccountSchema(account domain.Account) accountSchema {
	entry := accountSchema{
		Cookie:     account.Cookie,
		Identifier: account.Identifier,
		DeviceID:   account.DeviceID,
	}

	switch len(account.Proxies) {
	case 0:
	case 1:
		entry.Proxy = account.Proxies[0]
	default:
		entry.Proxies = append([]string(nil), account.Proxies...)
	}

	return entry
}

func fromAccountSchema(entry accountSchema, index int) domain.Account {
	proxies := make([]string, 0, len(entry.Proxies)+1)
	if entry.Proxy != "" {
		proxies = append(proxies, entry.Proxy)
	}
	proxies = append(proxies, entry.Proxies...)

	account := domain.Account{
		ID:         domain.AccountKey(entry.Cookie, entry.Identifier, index),
		Index:      index,
		Cookie:     entry.Cookie,
		Identifier: entry.Identifier,
		Proxies:    proxies,
		DeviceID:   entry.DeviceID,
	}
	account.NormalizeProxies()

	return account
}
