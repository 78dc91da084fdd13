package ports

import (
	"context"

	"github.com/bnema/deltahash-cli/internal/domain"
)

// Silent asks for one attempt that never informs proxy health.
const Silent = 0

// MiningAPI is the portal as seen by one account over one transport. The
// attempts argument is the retry budget of the call, or Silent.
type MiningAPI interface {
	LaunchStatus(ctx context.Context, attempts int) error
	SupportTickets(ctx context.Context, attempts int) error
	Profile(ctx context.Context, attempts int) (domain.Profile, error)
	ConnectDevice(ctx context.Context, shape domain.BindShape, deviceID string, attempts int) (domain.BindResult, error)
	RegisterDevice(ctx context.Context, deviceID string) (domain.BindResult, error)
	StartMining(ctx context.Context, attempts int) error
	StopMining(ctx context.Context) error
	MiningStatus(ctx context.Context, attempts int) (domain.MiningStatus, error)
	Heartbeat(ctx context.Context, attempts int) (domain.HeartbeatResult, error)
}

// IdleCloser is implemented by clients that keep pooled connections to their
// endpoint.
type IdleCloser interface {
	CloseIdleConnections()
}

// MiningAPIFactory binds a client to the pool's current endpoint. It is called
// again after every rotation.
type MiningAPIFactory interface {
	New(account domain.Account, identity domain.Identity, pool *domain.ProxyPool) (MiningAPI, error)
}
