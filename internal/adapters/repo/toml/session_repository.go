package toml

import (
	"context"
	"sync"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/spf13/viper"
)

const (
	SessionsPathKey = "sessions.path"
	sessionsFile    = "sessions.toml"
)

// SessionRepository keeps one snapshot per account, keyed by the digest of the
// account key.
type SessionRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.SessionStore = (*SessionRepository)(nil)

func NewSessionRepository(cfg *viper.Viper) (*SessionRepository, error) {
	path, err := resolvePath(cfg, SessionsPathKey, sessionsFile)
	if err != nil {
		return nil, err
	}

	return &SessionRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *SessionRepository) Save(ctx context.Context, key domain.AccountID, snapshot domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSessionSchema(key.Digest(), snapshot)
	updated := false
	for i := range file.Sessions {
		if file.Sessions[i].Key == encoded.Key {
			file.Sessions[i] = mergeSession(file.Sessions[i], encoded)
			updated = true
			break
		}
	}
	if !updated {
		file.Sessions = append(file.Sessions, encoded)
	}

	return writeTOMLFile(r.path, file)
}

func (r *SessionRepository) List(ctx context.Context) ([]domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	snapshots := make([]domain.Snapshot, 0, len(file.Sessions))
	for _, entry := range file.Sessions {
		snapshots = append(snapshots, fromSessionSchema(entry))
	}

	return snapshots, nil
}

func (r *SessionRepository) readSchema() (sessionsFileSchema, error) {
	var file sessionsFileSchema
	if _, err := readTOMLFile(r.path, &file); err != nil {
		return sessionsFileSchema{}, err
	}
	if err := validateVersion("sessions", file.Version); err != nil {
		return sessionsFileSchema{}, err
	}
	defaultVersion(&file.Version)

	return file, nil
}

// mergeSession overwrites stored fields with the fields the new snapshot
// carries; absent values keep what was stored.
func mergeSession(stored, next sessionSchema) sessionSchema {
	merged := next
	if merged.Username == "" {
		merged.Username = stored.Username
	}
	if merged.Balance == nil {
		merged.Balance = stored.Balance
	}
	if merged.DeviceHandle == "" {
		merged.DeviceHandle = stored.DeviceHandle
	}
	if merged.LastEpoch == nil {
		merged.LastEpoch = stored.LastEpoch
	}
	return merged
}

func toSessionSchema(key string, snapshot domain.Snapshot) sessionSchema {
	return sessionSchema{
		Key:          key,
		Account:      snapshot.Account,
		Username:     snapshot.Username,
		Balance:      snapshot.Balance,
		DeviceHandle: snapshot.DeviceHandle,
		LastEpoch:    snapshot.LastEpoch,
		TotalEarned:  snapshot.TotalEarned,
		UpdatedAt:    formatTime(snapshot.UpdatedAt),
	}
}

func fromSessionSchema(entry sessionSchema) domain.Snapshot {
	return domain.Snapshot{
		Account:      entry.Account,
		Username:     entry.Username,
		Balance:      entry.Balance,
		DeviceHandle: entry.DeviceHandle,
		LastEpoch:    entry.LastEpoch,
		TotalEarned:  entry.TotalEarned,
		UpdatedAt:    parseTime(entry.UpdatedAt),
	}
}
