package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
)

const keyHintLength = 12

var ErrAccountKeyRequired = errors.New("cookie or identifier is required")

// Service backs the CLI commands that inspect or edit local state.
type Service struct {
	accounts   ports.AccountRepository
	identities ports.IdentityStore
	sessions   ports.SessionStore
}

func NewService(accounts ports.AccountRepository, identities ports.IdentityStore, sessions ports.SessionStore) *Service {
	return &Service{accounts: accounts, identities: identities, sessions: sessions}
}

// LoadAccounts returns the configured accounts, or ErrNoAccounts when the file
// lists none.
func (s *Service) LoadAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, domain.ErrNoAccounts
	}
	return accounts, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]AccountSummary, error) {
	accounts, err := s.LoadAccounts(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		pool, err := domain.NewProxyPool(account.Proxies, domain.ProxyPoolOptions{}, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", account.Label(), err)
		}

		summaries = append(summaries, AccountSummary{
			Label:    account.Label(),
			KeyHint:  account.ID.Digest()[:keyHintLength],
			Proxy:    proxySummary(pool),
			Proxies:  len(account.Proxies),
			DeviceID: account.DeviceID,
		})
	}

	return summaries, nil
}

// AddAccount appends an account, or updates the entry with the same key.
func (s *Service) AddAccount(ctx context.Context, cmd AddAccountCommand) (domain.Account, error) {
	cookie := strings.TrimSpace(cmd.Cookie)
	identifier := strings.TrimSpace(cmd.Identifier)
	if cookie == "" && identifier == "" {
		return domain.Account{}, ErrAccountKeyRequired
	}

	existing, err := s.accounts.List(ctx)
	if err != nil && !errors.Is(err, domain.ErrAccountsFileNotFound) {
		return domain.Account{}, fmt.Errorf("list accounts: %w", err)
	}

	index := len(existing)
	key := domain.AccountKey(cookie, identifier, index)
	for _, account := range existing {
		if account.ID == key {
			index = account.Index
			break
		}
	}

	account := domain.Account{
		ID:         key,
		Index:      index,
		Cookie:     cookie,
		Identifier: identifier,
		Proxies:    cmd.Proxies,
		DeviceID:   strings.TrimSpace(cmd.DeviceID),
	}
	account.NormalizeProxies()

	if err := s.accounts.Save(ctx, account); err != nil {
		return domain.Account{}, fmt.Errorf("save account: %w", err)
	}

	return account, nil
}

// Status returns the stored session snapshots ordered by account label.
func (s *Service) Status(ctx context.Context) ([]domain.Snapshot, error) {
	snapshots, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list session snapshots: %w", err)
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return domain.LabelLess(snapshots[i].Account, snapshots[j].Account)
	})

	return snapshots, nil
}

// ShowIdentity resolves ref as an account label or account key and returns its
// identity, creating it on first use. A ref matching no account is used as a
// raw key.
func (s *Service) ShowIdentity(ctx context.Context, ref string) (IdentityView, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return IdentityView{}, ErrAccountKeyRequired
	}

	view := IdentityView{}
	key := domain.AccountID(ref)

	accounts, err := s.accounts.List(ctx)
	if err != nil && !errors.Is(err, domain.ErrAccountsFileNotFound) {
		return IdentityView{}, fmt.Errorf("list accounts: %w", err)
	}
	for _, account := range accounts {
		if strings.EqualFold(account.Label(), ref) || account.ID == key {
			key = account.ID
			view.Account = account.Label()
			break
		}
	}

	identity, err := s.identities.GetOrCreate(ctx, key)
	if err != nil {
		return IdentityView{}, fmt.Errorf("get identity: %w", err)
	}

	view.Key = key.Digest()
	view.Identity = identity
	return view, nil
}

func proxySummary(pool *domain.ProxyPool) string {
	if pool.Label() == domain.DirectLabel {
		return pool.Masked()
	}
	return fmt.Sprintf("%s: %s", pool.Label(), pool.Masked())
}
