package deltahash

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/engine"
	"github.com/bnema/deltahash-cli/internal/ports"
)

const (
	PathProfile        = "/api/auth/me"
	PathDeviceConnect  = "/api/devices/connect"
	PathDeviceRegister = "/api/devices/register"
	PathMiningConnect  = "/api/mining/connect"
	PathMiningStop     = "/api/mining/disconnect"
	PathMiningStatus   = "/api/mining/status"
	PathHeartbeat      = "/api/mining/heartbeat"
	PathLaunchStatus   = "/api/launch/status"
	PathSupportTickets = "/api/support/tickets"
)

var errInvalidProfile = errors.New("invalid profile response")

// Requester runs one logical call. *engine.Engine is the production
// implementation.
type Requester interface {
	Do(ctx context.Context, call engine.Call) engine.Result
}

// Client is the portal API for one account over one transport.
type Client struct {
	requester Requester
	identity  domain.Identity
	clock     ports.Clock
	random    ports.Random
	closeIdle func()
}

var (
	_ ports.MiningAPI  = (*Client)(nil)
	_ ports.IdleCloser = (*Client)(nil)
)

func NewClient(requester Requester, identity domain.Identity, clock ports.Clock, random ports.Random) *Client {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if random == nil {
		random = ports.SystemRandom{}
	}

	return &Client{requester: requester, identity: identity, clock: clock, random: random}
}

// CloseIdleConnections drops the keep-alive connections of the transport the
// client was built on.
func (c *Client) CloseIdleConnections() {
	if c.closeIdle != nil {
		c.closeIdle()
	}
}

func (c *Client) LaunchStatus(ctx context.Context, attempts int) error {
	return c.requester.Do(ctx, engine.Call{Method: http.MethodGet, Path: PathLaunchStatus, Attempts: attempts}).Err()
}

func (c *Client) SupportTickets(ctx context.Context, attempts int) error {
	return c.requester.Do(ctx, engine.Call{Method: http.MethodGet, Path: PathSupportTickets, Attempts: attempts}).Err()
}

func (c *Client) Profile(ctx context.Context, attempts int) (domain.Profile, error) {
	res := c.requester.Do(ctx, engine.Call{Method: http.MethodGet, Path: PathProfile, Attempts: attempts})
	if err := res.Err(); err != nil {
		return domain.Profile{}, err
	}

	var payload profileResponse
	if err := decode(res.Body, &payload); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	if payload.User == nil {
		return domain.Profile{}, errInvalidProfile
	}

	return payload.toDomain(), nil
}

// ConnectDevice binds the identity's device. A 400 "already connected" answer
// comes back as a result with AlreadyConnected set.
func (c *Client) ConnectDevice(ctx context.Context, shape domain.BindShape, deviceID string, attempts int) (domain.BindResult, error) {
	data := c.deviceData()

	var body any
	switch shape {
	case domain.BindNestedWithID:
		body = struct {
			DeviceID   string     `json:"deviceId"`
			DeviceData DeviceData `json:"deviceData"`
		}{DeviceID: deviceID, DeviceData: data}
	case domain.BindFlat:
		body = data
	default:
		body = struct {
			DeviceData DeviceData `json:"deviceData"`
		}{DeviceData: data}
	}

	return c.bind(ctx, engine.Call{
		Method:                 http.MethodPost,
		Path:                   PathDeviceConnect,
		Body:                   body,
		Attempts:               attempts,
		AcceptAlreadyConnected: true,
	})
}

func (c *Client) RegisterDevice(ctx context.Context, deviceID string) (domain.BindResult, error) {
	body := struct {
		DeviceID   string     `json:"deviceId"`
		DeviceData DeviceData `json:"deviceData"`
		DeviceName string     `json:"deviceName"`
		DeviceType string     `json:"deviceType"`
	}{
		DeviceID:   deviceID,
		DeviceData: c.deviceData(),
		DeviceName: c.identity.Platform + " Desktop",
		DeviceType: c.identity.DeviceType,
	}

	return c.bind(ctx, engine.Call{Method: http.MethodPost, Path: PathDeviceRegister, Body: body, Attempts: ports.Silent})
}

func (c *Client) StartMining(ctx context.Context, attempts int) error {
	return c.requester.Do(ctx, engine.Call{
		Method:   http.MethodPost,
		Path:     PathMiningConnect,
		Body:     map[string]any{},
		Attempts: attempts,
	}).Err()
}

// StopMining is a single untracked attempt.
func (c *Client) StopMining(ctx context.Context) error {
	return c.requester.Do(ctx, engine.Call{Method: http.MethodPost, Path: PathMiningStop, Attempts: ports.Silent}).Err()
}

func (c *Client) MiningStatus(ctx context.Context, attempts int) (domain.MiningStatus, error) {
	res := c.requester.Do(ctx, engine.Call{Method: http.MethodGet, Path: PathMiningStatus, Attempts: attempts})
	if err := res.Err(); err != nil {
		return domain.MiningStatus{}, err
	}

	var payload statusResponse
	if err := decode(res.Body, &payload); err != nil {
		return domain.MiningStatus{}, fmt.Errorf("decode mining status: %w", err)
	}

	return payload.toDomain(), nil
}

// Heartbeat posts without a body, so the request carries no content type.
func (c *Client) Heartbeat(ctx context.Context, attempts int) (domain.HeartbeatResult, error) {
	res := c.requester.Do(ctx, engine.Call{Method: http.MethodPost, Path: PathHeartbeat, Attempts: attempts})
	if err := res.Err(); err != nil {
		return domain.HeartbeatResult{}, err
	}

	var payload heartbeatResponse
	if err := decode(res.Body, &payload); err != nil {
		return domain.HeartbeatResult{}, fmt.Errorf("decode heartbeat: %w", err)
	}

	return payload.toDomain(), nil
}

func (c *Client) bind(ctx context.Context, call engine.Call) (domain.BindResult, error) {
	res := c.requester.Do(ctx, call)
	if err := res.Err(); err != nil {
		return domain.BindResult{}, err
	}
	if res.AlreadyConnected {
		return domain.BindResult{AlreadyConnected: true}, nil
	}

	var payload bindResponse
	if err := decode(res.Body, &payload); err != nil {
		return domain.BindResult{}, fmt.Errorf("decode %s: %w", call.Path, err)
	}

	return payload.toDomain(), nil
}

func (c *Client) deviceData() DeviceData {
	return BuildDeviceData(c.identity, c.now(), c.random)
}

func (c *Client) now() time.Time {
	return c.clock.Now()
}
