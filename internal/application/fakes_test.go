package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/bnema/deltahash-cli/internal/ports/mocks"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

// scriptedAPI answers each call from a function field and records the call
// names in order. Unset functions succeed with zero values.
type scriptedAPI struct {
	mu    sync.Mutex
	calls []string

	profile   func(attempts int) (domain.Profile, error)
	connect   func(shape domain.BindShape, attempts int) (domain.BindResult, error)
	register  func() (domain.BindResult, error)
	start     func(attempts int) error
	status    func() (domain.MiningStatus, error)
	heartbeat func(n int) (domain.HeartbeatResult, error)
	stop      func(ctx context.Context) error

	heartbeats int
}

var _ ports.MiningAPI = (*scriptedAPI)(nil)

func (a *scriptedAPI) record(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, name)
}

func (a *scriptedAPI) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func (a *scriptedAPI) Count(name string) int {
	n := 0
	for _, call := range a.Calls() {
		if call == name {
			n++
		}
	}
	return n
}

func (a *scriptedAPI) LaunchStatus(context.Context, int) error {
	a.record("launch")
	return nil
}

func (a *scriptedAPI) SupportTickets(context.Context, int) error {
	a.record("tickets")
	return nil
}

func (a *scriptedAPI) Profile(_ context.Context, attempts int) (domain.Profile, error) {
	a.record(fmt.Sprintf("profile:%d", attempts))
	if a.profile != nil {
		return a.profile(attempts)
	}
	return domain.Profile{Username: "miner"}, nil
}

func (a *scriptedAPI) ConnectDevice(_ context.Context, shape domain.BindShape, _ string, attempts int) (domain.BindResult, error) {
	a.record(fmt.Sprintf("connect:%s", shapeName(shape)))
	if a.connect != nil {
		return a.connect(shape, attempts)
	}
	return domain.BindResult{Success: true, HasUser: true, DeviceID: "dev-1"}, nil
}

func (a *scriptedAPI) RegisterDevice(context.Context, string) (domain.BindResult, error) {
	a.record("register")
	if a.register != nil {
		return a.register()
	}
	return domain.BindResult{}, nil
}

func (a *scriptedAPI) StartMining(_ context.Context, attempts int) error {
	a.record(fmt.Sprintf("start:%d", attempts))
	if a.start != nil {
		return a.start(attempts)
	}
	return nil
}

func (a *scriptedAPI) StopMining(ctx context.Context) error {
	a.record("stop")
	if a.stop != nil {
		return a.stop(ctx)
	}
	return nil
}

func (a *scriptedAPI) CloseIdleConnections() {
	a.record("close-idle")
}

func (a *scriptedAPI) MiningStatus(context.Context, int) (domain.MiningStatus, error) {
	a.record("status")
	if a.status != nil {
		return a.status()
	}
	return domain.MiningStatus{}, nil
}

func (a *scriptedAPI) Heartbeat(context.Context, int) (domain.HeartbeatResult, error) {
	a.mu.Lock()
	a.heartbeats++
	n := a.heartbeats
	a.calls = append(a.calls, "heartbeat")
	a.mu.Unlock()

	if a.heartbeat != nil {
		return a.heartbeat(n)
	}
	return domain.HeartbeatResult{Success: true}, nil
}

func shapeName(shape domain.BindShape) string {
	switch shape {
	case domain.BindNestedWithID:
		return "with_id"
	case domain.BindFlat:
		return "flat"
	default:
		return "nested"
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *recordingSink) Publish(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) Statuses(account string) []domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	var statuses []domain.Status
	for _, event := range s.events {
		if event.Record == nil || event.Account != account {
			continue
		}
		if n := len(statuses); n > 0 && statuses[n-1] == event.Record.Status {
			continue
		}
		statuses = append(statuses, event.Record.Status)
	}
	return statuses
}

func (s *recordingSink) Last(account string) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Account == account && s.events[i].Record != nil {
			return s.events[i], true
		}
	}
	return domain.Event{}, false
}

type sessionFixture struct {
	api   *scriptedAPI
	clock *mocks.FakeClock
	sink  *recordingSink
	state *AccountState
}

func newSessionFixture(t *testing.T, api *scriptedAPI, proxies ...string) *sessionFixture {
	t.Helper()

	clock := mocks.NewFakeClock(testStart)
	pool, err := domain.NewProxyPool(proxies, domain.ProxyPoolOptions{}, clock.Now)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	sink := &recordingSink{}
	account := domain.Account{ID: "cookie-1", Cookie: "cookie-1", Proxies: proxies}

	return &sessionFixture{
		api:   api,
		clock: clock,
		sink:  sink,
		state: NewAccountState(account, pool, sink, clock, logger),
	}
}

func (f *sessionFixture) session(store ports.SessionStore, schedule Schedule) *Session {
	return NewSession(f.state, f.api, SessionOptions{
		Store:       store,
		Clock:       f.clock,
		Pacer:       NewPacer(f.clock, mocks.FixedRandom(0.5)),
		Schedule:    schedule,
		NewDeviceID: func() string { return "generated-device-id" },
	})
}

func float(v float64) *float64 {
	return &v
}

func epoch(v int64) *int64 {
	return &v
}

func containsDuration(sleeps []time.Duration, d time.Duration) bool {
	for _, sleep := range sleeps {
		if sleep == d {
			return true
		}
	}
	return false
}
