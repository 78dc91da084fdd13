package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/engine"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session is one connection cycle of an account: setup followed by the
// heartbeat loop, over a single client. A new Session is built after every
// proxy change or cooldown.
type Session struct {
	state    *AccountState
	api      ports.MiningAPI
	store    ports.SessionStore
	clock    ports.Clock
	pacer    Pacer
	schedule Schedule
	deviceID func() string
	log      logrus.FieldLogger

	started bool
}

type SessionOptions struct {
	Store       ports.SessionStore
	Clock       ports.Clock
	Pacer       Pacer
	Schedule    Schedule
	NewDeviceID func() string
}

func NewSession(state *AccountState, api ports.MiningAPI, opts SessionOptions) *Session {
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Pacer.sleeper == nil {
		opts.Pacer = NewPacer(nil, nil)
	}
	if opts.NewDeviceID == nil {
		opts.NewDeviceID = uuid.NewString
	}

	return &Session{
		state:    state,
		api:      api,
		store:    opts.Store,
		clock:    opts.Clock,
		pacer:    opts.Pacer,
		schedule: opts.Schedule.withDefaults(),
		deviceID: opts.NewDeviceID,
		log:      state.Log(),
	}
}

// Run performs setup and then runs the heartbeat loop until a terminal error.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Setup(ctx); err != nil {
		return err
	}
	return s.Heartbeat(ctx)
}

// Setup brings the account to MINING. Auth expiry, proxy changes and
// cancellation abort it; other failures are logged and left to the heartbeat
// loop.
func (s *Session) Setup(ctx context.Context) error {
	s.state.Transition(domain.StatusSetup)
	s.started = false
	record := s.state.Record

	s.warmUp(ctx)
	if err := s.pacer.Between(ctx, secs(1), secs(3)); err != nil {
		return err
	}

	if err := s.loadProfile(ctx); err != nil {
		return err
	}
	if err := s.pacer.Between(ctx, millis(800), millis(2300)); err != nil {
		return err
	}

	if err := s.bindDevice(ctx); err != nil {
		return err
	}
	s.state.Publish()
	if err := s.pacer.Between(ctx, secs(1), secs(3)); err != nil {
		return err
	}

	status, err := s.api.MiningStatus(ctx, s.schedule.MaxAttempts)
	switch {
	case err == nil:
		s.seedStatus(status)
	case domain.IsTerminal(err):
		return fmt.Errorf("fetch mining status: %w", err)
	default:
		s.log.WithError(err).Warn("mining status unavailable, continuing")
	}

	if s.started {
		s.log.Info("mining session already started during registration")
	} else {
		if err := s.pacer.Between(ctx, millis(500), millis(1500)); err != nil {
			return err
		}
		if err := s.startMining(ctx); err != nil {
			if domain.IsTerminal(err) {
				return err
			}
			s.log.WithError(err).Warn("mining connect failed, heartbeat loop will retry")
		}
	}

	if err := s.pacer.Between(ctx, secs(1), secs(2)); err != nil {
		return err
	}
	if err := s.firstHeartbeat(ctx); err != nil {
		return err
	}

	s.persist(ctx)
	s.state.Transition(domain.StatusMining)
	s.log.WithFields(logrus.Fields{
		"balance": domain.FormatAmount(record.Balance),
		"epoch":   domain.FormatEpoch(record.Epoch),
	}).Info("setup complete, heartbeat active")

	return nil
}

func (s *Session) warmUp(ctx context.Context) {
	if err := s.api.LaunchStatus(ctx, s.schedule.attempts(warmUpAttempts)); err != nil {
		s.log.WithError(err).Debug("warm-up launch status failed")
	}
	if err := s.pacer.Between(ctx, millis(500), millis(1500)); err != nil {
		return
	}
	if err := s.api.SupportTickets(ctx, s.schedule.attempts(warmUpAttempts)); err != nil {
		s.log.WithError(err).Debug("warm-up support tickets failed")
	}
}

func (s *Session) loadProfile(ctx context.Context) error {
	if err := s.pacer.MicroPause(ctx); err != nil {
		return err
	}

	profile, err := s.api.Profile(ctx, s.schedule.MaxAttempts)
	if err != nil {
		if domain.IsTerminal(err) {
			return fmt.Errorf("fetch profile: %w", err)
		}
		s.log.WithError(err).Warn("profile unavailable, continuing")
		return nil
	}

	record := s.state.Record
	record.Username = profile.Username
	if profile.Balance != nil {
		record.SetBalance(*profile.Balance)
	}
	if profile.DeviceID != "" && record.DeviceHandle == "" {
		record.DeviceHandle = profile.DeviceID
	}
	s.state.touch()

	s.log.WithFields(logrus.Fields{
		"user":             profile.Username,
		"balance":          domain.FormatAmount(profile.Balance),
		"device_connected": profile.DeviceConnected,
		"streak_days":      profile.MiningStreakDays,
	}).Info("profile loaded")

	return nil
}

// bindDevice tries one quick bind and falls back to the registration
// strategies when the portal rejects it for a reason other than auth.
func (s *Session) bindDevice(ctx context.Context) error {
	if err := s.pacer.MicroPause(ctx); err != nil {
		return err
	}

	result, err := s.api.ConnectDevice(ctx, domain.BindNested, "", quickBindAttempts)
	if err == nil {
		s.applyBind(result, "")
		if result.AlreadyConnected {
			s.log.Info("device already connected")
		} else if result.Accepted() {
			s.log.WithField("device", s.state.Record.DeviceHandle).Info("device connected")
		} else {
			s.log.Warn("device connect returned no confirmation")
		}
		return nil
	}
	if domain.IsTerminal(err) {
		return fmt.Errorf("connect device: %w", err)
	}

	s.log.WithError(err).Warn("device connect failed, trying registration fallbacks")
	return s.registerFallback(ctx)
}

type fallbackStrategy struct {
	name string
	run  func(ctx context.Context, deviceID string) (bool, error)
}

func (s *Session) registerFallback(ctx context.Context) error {
	deviceID := s.deviceID()
	log := s.log.WithField("device", shortID(deviceID))

	strategies := []fallbackStrategy{
		{name: "connect_with_id", run: s.bindWithID},
		{name: "connect_flat", run: s.bindFlat},
		{name: "register", run: s.register},
		{name: "start_then_bind", run: s.startThenBind},
		{name: "direct_heartbeat", run: s.directHeartbeat},
	}

	for i, strategy := range strategies {
		lo, hi := fallbackBetweenMin, fallbackBetweenMax
		if i == 0 {
			lo, hi = fallbackFirstMin, fallbackFirstMax
		}
		if err := s.pacer.Between(ctx, lo, hi); err != nil {
			return err
		}

		ok, err := strategy.run(ctx, deviceID)
		if err != nil {
			if fatalUntracked(err) {
				return fmt.Errorf("register device via %s: %w", strategy.name, err)
			}
			log.WithError(err).WithField("strategy", strategy.name).Info("registration strategy failed")
			continue
		}
		if ok {
			if s.state.Record.DeviceHandle == "" {
				s.state.Record.DeviceHandle = deviceID
			}
			log.WithField("strategy", strategy.name).Info("device registered")
			return nil
		}
		log.WithField("strategy", strategy.name).Info("registration strategy not confirmed")
	}

	s.state.Record.DeviceHandle = deviceID
	log.Warn("all registration strategies failed, continuing to heartbeat loop")
	return nil
}

func (s *Session) bindWithID(ctx context.Context, deviceID string) (bool, error) {
	result, err := s.api.ConnectDevice(ctx, domain.BindNestedWithID, deviceID, ports.Silent)
	if err != nil {
		return false, err
	}
	s.applyBind(result, deviceID)
	return result.Accepted(), nil
}

func (s *Session) bindFlat(ctx context.Context, deviceID string) (bool, error) {
	result, err := s.api.ConnectDevice(ctx, domain.BindFlat, deviceID, ports.Silent)
	if err != nil {
		return false, err
	}
	s.applyBind(result, deviceID)
	return result.Accepted(), nil
}

func (s *Session) register(ctx context.Context, deviceID string) (bool, error) {
	result, err := s.api.RegisterDevice(ctx, deviceID)
	if err != nil {
		switch engine.StatusOf(err) {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			return false, nil
		}
		return false, err
	}
	s.applyBind(result, deviceID)
	return result.Registered(), nil
}

// startThenBind counts as success once the session starts, whatever the
// follow-up bind answers.
func (s *Session) startThenBind(ctx context.Context, deviceID string) (bool, error) {
	if err := s.api.StartMining(ctx, ports.Silent); err != nil {
		return false, err
	}
	s.started = true
	s.log.Info("mining session started during registration")

	if err := s.pacer.Between(ctx, fallbackRebindMin, fallbackRebindMax); err != nil {
		return false, err
	}

	result, err := s.api.ConnectDevice(ctx, domain.BindNested, "", ports.Silent)
	switch {
	case err == nil:
		s.applyBind(result, deviceID)
	case fatalUntracked(err):
		return false, err
	default:
		s.log.WithError(err).Info("device connect still failing after mining connect")
	}
	return true, nil
}

func (s *Session) directHeartbeat(ctx context.Context, _ string) (bool, error) {
	result, err := s.api.Heartbeat(ctx, ports.Silent)
	if err != nil {
		return false, err
	}
	if result.Disconnected {
		s.log.Info("direct heartbeat reports disconnected")
	}
	if !result.Success {
		return false, nil
	}
	s.started = true
	s.applyHeartbeat(result)
	return true, nil
}

func (s *Session) firstHeartbeat(ctx context.Context) error {
	result, err := s.api.Heartbeat(ctx, s.schedule.attempts(heartbeatAttempts))
	if err != nil {
		if domain.IsTerminal(err) {
			return fmt.Errorf("first heartbeat: %w", err)
		}
		s.log.WithError(err).Warn("first heartbeat failed, heartbeat loop will retry")
		return nil
	}

	if result.Disconnected {
		s.log.Warn("first heartbeat reports disconnected, restarting mining session")
		if err := s.startMining(ctx); err != nil {
			if domain.IsTerminal(err) {
				return err
			}
			s.log.WithError(err).Warn("mining reconnect failed")
			return nil
		}
		if err := s.pacer.Exact(ctx, setupReconnectWait); err != nil {
			return err
		}
		result, err = s.api.Heartbeat(ctx, s.schedule.attempts(heartbeatAttempts))
		if err != nil {
			if domain.IsTerminal(err) {
				return fmt.Errorf("first heartbeat: %w", err)
			}
			s.log.WithError(err).Warn("heartbeat after reconnect failed")
			return nil
		}
	}

	if result.Success {
		s.applyHeartbeat(result)
		s.log.WithFields(logrus.Fields{
			"earned":  result.TokensEarned,
			"balance": domain.FormatAmount(s.state.Record.Balance),
		}).Info("first heartbeat accepted")
	}
	return nil
}

func (s *Session) startMining(ctx context.Context) error {
	if err := s.pacer.MicroPause(ctx); err != nil {
		return err
	}
	if err := s.api.StartMining(ctx, s.schedule.attempts(startAttempts)); err != nil {
		return fmt.Errorf("start mining: %w", err)
	}
	s.started = true
	s.state.touch()
	s.log.Info("mining session started")
	return nil
}

func (s *Session) applyBind(result domain.BindResult, fallbackID string) {
	record := s.state.Record
	switch {
	case result.DeviceID != "":
		record.DeviceHandle = result.DeviceID
	case fallbackID != "" && result.Registered():
		record.DeviceHandle = fallbackID
	}
	if result.Balance != nil {
		record.SetBalance(*result.Balance)
	}
	s.state.touch()
}

func (s *Session) seedStatus(status domain.MiningStatus) {
	record := s.state.Record
	if balance := status.EffectiveBalance(); balance != nil {
		record.SetBalance(*balance)
	}
	record.Speed = status.Speed
	record.BaseRate = status.BaseRate
	if status.Epoch.Number != nil {
		record.SetEpoch(*status.Epoch.Number)
	}
	record.EpochEndsAt = status.Epoch.EndsAt
	s.state.touch()

	s.log.WithFields(logrus.Fields{
		"epoch":   domain.FormatEpoch(status.Epoch.Number),
		"balance": domain.FormatAmount(record.Balance),
		"speed":   domain.FormatAmount(status.Speed),
		"mining":  status.IsMining,
	}).Info("mining status loaded")
}

// applyHeartbeat folds a successful earn call into the record.
func (s *Session) applyHeartbeat(result domain.HeartbeatResult) {
	record := s.state.Record
	record.AddEarned(result.TokensEarned)
	if result.NewBalance != nil {
		record.SetBalance(*result.NewBalance)
	}
	if result.EpochNumber != nil {
		record.SetEpoch(*result.EpochNumber)
	}
	now := s.clock.Now()
	record.LastHeartbeat = now
	record.LastActivityAt = now
}

func (s *Session) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	snapshot := s.state.Record.Snapshot(s.clock.Now())
	if err := s.store.Save(ctx, s.state.Account.ID, snapshot); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.log.WithError(err).Warn("save session snapshot failed")
	}
}

// fatalUntracked reports the failures that end a cycle even when raised by a
// single untracked call.
func fatalUntracked(err error) bool {
	switch domain.SignalOf(err) {
	case domain.SignalAuthExpired, domain.SignalStopped:
		return true
	default:
		return false
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
