package application

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAuthCooldown    = 5 * time.Minute
	DefaultFailureCooldown = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	rebuildPauseMin = 3 * time.Second
	rebuildPauseMax = 5 * time.Second
	staggerMin      = 3 * time.Second
	staggerMax      = 8 * time.Second
)

type SupervisorConfig struct {
	MaxAccounts     int
	AuthCooldown    time.Duration
	FailureCooldown time.Duration
	ShutdownTimeout time.Duration
	Pool            domain.ProxyPoolOptions
	Schedule        Schedule
}

func (c *SupervisorConfig) applyDefaults() {
	if c.AuthCooldown <= 0 {
		c.AuthCooldown = DefaultAuthCooldown
	}
	if c.FailureCooldown <= 0 {
		c.FailureCooldown = DefaultFailureCooldown
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	c.Schedule = c.Schedule.withDefaults()
}

type SupervisorDeps struct {
	Identities  ports.IdentityStore
	Factory     ports.MiningAPIFactory
	Store       ports.SessionStore
	Sink        ports.EventSink
	Clock       ports.Clock
	Sleeper     ports.Sleeper
	Random      ports.Random
	NewDeviceID func() string
	Log         logrus.FieldLogger
}

// Supervisor runs one task per account and restarts its session after every
// terminal signal.
type Supervisor struct {
	cfg  SupervisorConfig
	deps SupervisorDeps

	pacer Pacer
	log   logrus.FieldLogger

	mu     sync.Mutex
	active map[string]ports.MiningAPI
}

func NewSupervisor(cfg SupervisorConfig, deps SupervisorDeps) *Supervisor {
	cfg.applyDefaults()
	if deps.Sink == nil {
		deps.Sink = ports.NopEventSink{}
	}
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Sleeper == nil {
		deps.Sleeper = ports.SystemClock{}
	}
	if deps.Random == nil {
		deps.Random = ports.SystemRandom{}
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}

	return &Supervisor{
		cfg:    cfg,
		deps:   deps,
		pacer:  NewPacer(deps.Sleeper, deps.Random),
		log:    deps.Log,
		active: map[string]ports.MiningAPI{},
	}
}

// Run starts every account and blocks until ctx is cancelled. It then stops
// the mining session of every account and returns nil.
func (s *Supervisor) Run(ctx context.Context, accounts []domain.Account) error {
	if len(accounts) == 0 {
		return domain.ErrNoAccounts
	}

	selected := accounts
	if s.cfg.MaxAccounts > 0 && len(accounts) > s.cfg.MaxAccounts {
		selected = accounts[:s.cfg.MaxAccounts]
		for _, skipped := range accounts[s.cfg.MaxAccounts:] {
			s.log.WithField("account", skipped.Label()).Warn("account not started, over max_accounts")
		}
	}

	s.log.WithField("accounts", len(selected)).Info("starting accounts")

	var wg sync.WaitGroup
	for i, account := range selected {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runAccount(ctx, account, i)
		}()
	}

	<-ctx.Done()
	s.log.Info("shutting down, disconnecting mining sessions")
	s.disconnectAll()
	wg.Wait()

	return nil
}

func (s *Supervisor) runAccount(ctx context.Context, account domain.Account, index int) {
	log := s.log.WithField("account", account.Label())

	pool, err := domain.NewProxyPool(account.Proxies, s.cfg.Pool, s.deps.Clock.Now)
	if err != nil {
		log.WithError(err).Error("invalid proxy configuration, account not started")
		return
	}

	state := NewAccountState(account, pool, s.deps.Sink, s.deps.Clock, s.log)
	if pool.HasMultiple() {
		log.WithFields(logrus.Fields{
			"proxies":      pool.Count(),
			"rotate_after": s.cfg.Pool.RotateAfterFailures,
			"rotate_every": s.cfg.Pool.RotateInterval.String(),
		}).Info("proxy pool loaded")
	}

	if index > 0 {
		delay := time.Duration(index) * s.pacer.Uniform(staggerMin, staggerMax)
		state.Record.NextActionAt = s.deps.Clock.Now().Add(delay)
		state.Publish()
		if err := s.pacer.Exact(ctx, delay); err != nil {
			return
		}
	} else {
		state.Publish()
	}

	for {
		err := s.cycle(ctx, state)
		signal := domain.SignalOf(err)
		if signal == domain.SignalStopped {
			return
		}

		if err := s.cooldown(ctx, state, signal, err); err != nil {
			return
		}
	}
}

// cycle builds a fresh client for the pool's current endpoint and runs one
// session on it. Panics are returned as errors.
func (s *Supervisor) cycle(ctx context.Context, state *AccountState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			state.Log().WithField("stack", string(debug.Stack())).Errorf("account task panic: %v", r)
			err = fmt.Errorf("account task panic: %v", r)
		}
	}()

	identity, err := s.deps.Identities.GetOrCreate(ctx, state.Account.ID)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}

	api, err := s.deps.Factory.New(state.Account, identity, state.Pool)
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}
	s.setActive(state.Account.Label(), api)

	state.Log().WithFields(logrus.Fields{
		"proxy":      state.Pool.Masked(),
		"user_agent": truncate(identity.UserAgent, 55),
	}).Info("client ready")

	session := NewSession(state, api, SessionOptions{
		Store:       s.deps.Store,
		Clock:       s.deps.Clock,
		Pacer:       s.pacer,
		Schedule:    s.cfg.Schedule,
		NewDeviceID: s.deps.NewDeviceID,
	})

	return session.Run(ctx)
}

// cooldown applies the wait that follows signal. It returns an error only
// when ctx ends during the wait.
func (s *Supervisor) cooldown(ctx context.Context, state *AccountState, signal domain.Signal, cause error) error {
	log := state.Log()
	now := s.deps.Clock.Now()

	switch signal {
	case domain.SignalProxyChanged:
		state.Transition(domain.StatusReconnecting)
		log.WithFields(logrus.Fields{
			"proxy":     state.Pool.Masked(),
			"rotations": state.Pool.RotateCount(),
		}).Warn("rebuilding client with new proxy")
		return s.pacer.Between(ctx, rebuildPauseMin, rebuildPauseMax)
	case domain.SignalAuthExpired:
		state.Record.NextActionAt = now.Add(s.cfg.AuthCooldown)
		state.Transition(domain.StatusAuthExpired)
		log.WithError(cause).WithField("retry_in", s.cfg.AuthCooldown.String()).Error("session expired, update the cookie in accounts.toml")
		return s.pacer.Exact(ctx, s.cfg.AuthCooldown)
	default:
		if state.Pool.HasMultiple() {
			state.Pool.Rotate("connection_error")
		}
		state.Record.NextActionAt = now.Add(s.cfg.FailureCooldown)
		state.Transition(domain.StatusFailed)
		log.WithError(cause).WithField("retry_in", s.cfg.FailureCooldown.String()).Error("connection error")
		return s.pacer.Exact(ctx, s.cfg.FailureCooldown)
	}
}

// setActive records api as the client of label and releases the idle
// connections of the client it replaces.
func (s *Supervisor) setActive(label string, api ports.MiningAPI) {
	s.mu.Lock()
	previous := s.active[label]
	s.active[label] = api
	s.mu.Unlock()

	if closer, ok := previous.(ports.IdleCloser); ok && previous != api {
		closer.CloseIdleConnections()
	}
}

// disconnectAll stops every active session concurrently and waits at most the
// shutdown timeout. Errors are ignored.
func (s *Supervisor) disconnectAll() {
	s.mu.Lock()
	clients := make(map[string]ports.MiningAPI, len(s.active))
	for label, api := range s.active {
		clients[label] = api
	}
	s.mu.Unlock()

	if len(clients) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for label, api := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := api.StopMining(ctx); err != nil {
				s.log.WithField("account", label).WithError(err).Debug("disconnect failed")
				return
			}
			s.log.WithField("account", label).Info("mining session disconnected")
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("shutdown timeout reached before all sessions disconnected")
	}
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max] + "..."
}
