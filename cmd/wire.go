package cmd

import (
	"fmt"
	"time"

	"github.com/bnema/deltahash-cli/internal/adapters/deltahash"
	"github.com/bnema/deltahash-cli/internal/adapters/identity"
	statusadapter "github.com/bnema/deltahash-cli/internal/adapters/render/status"
	tomlrepo "github.com/bnema/deltahash-cli/internal/adapters/repo/toml"
	"github.com/bnema/deltahash-cli/internal/application"
	"github.com/bnema/deltahash-cli/internal/config"
	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/engine"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

type app struct {
	cfg            config.Config
	service        *application.Service
	identities     ports.IdentityStore
	sessions       ports.SessionStore
	statusRenderer func([]domain.Snapshot, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

func wireApp(configPath string) (*app, error) {
	cfg, v, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	accounts, err := tomlrepo.NewRepository(v)
	if err != nil {
		return nil, fmt.Errorf("wire account repository: %w", err)
	}

	identityRepo, err := tomlrepo.NewIdentityRepository(v)
	if err != nil {
		return nil, fmt.Errorf("wire identity repository: %w", err)
	}
	identities := identity.NewStore(identityRepo)

	sessions, err := tomlrepo.NewSessionRepository(v)
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}

	return &app{
		cfg:            cfg,
		service:        application.NewService(accounts, identities, sessions),
		identities:     identities,
		sessions:       sessions,
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}, nil
}

// newSupervisor builds the account supervisor on the system clock.
func (a *app) newSupervisor(sink ports.EventSink, log logrus.FieldLogger) *application.Supervisor {
	cfg := a.cfg
	clock := ports.SystemClock{}
	random := ports.SystemRandom{}

	factory := deltahash.NewFactory(deltahash.FactoryConfig{
		Engine: engine.Config{
			BaseURL:          cfg.API.BaseURL,
			MaxAttempts:      cfg.Engine.MaxAttempts,
			BaseDelay:        cfg.Engine.BaseDelay,
			RateLimitDefault: cfg.Engine.RateLimitDefault,
		},
		RequestTimeout: cfg.API.RequestTimeout,
	}, clock, clock, random, log)

	return application.NewSupervisor(application.SupervisorConfig{
		MaxAccounts:     cfg.Supervisor.MaxAccounts,
		AuthCooldown:    cfg.Supervisor.AuthCooldown,
		FailureCooldown: cfg.Supervisor.FailureCooldown,
		ShutdownTimeout: cfg.Supervisor.ShutdownTimeout,
		Pool: domain.ProxyPoolOptions{
			RotateAfterFailures: cfg.Proxy.RotateAfterFailures,
			RotateInterval:      cfg.Proxy.RotateInterval,
		},
		Schedule: application.Schedule{
			Tick:            cfg.Schedule.Tick,
			Heartbeat:       cfg.Schedule.Heartbeat,
			StatusPoll:      cfg.Schedule.StatusPoll,
			LaunchPoll:      cfg.Schedule.LaunchPoll,
			TicketsPoll:     cfg.Schedule.TicketsPoll,
			AuthRefresh:     cfg.Schedule.AuthRefresh,
			EpochInterval:   cfg.Schedule.EpochInterval,
			ReconnectBuffer: cfg.Schedule.ReconnectBuffer,
			PersistEvery:    cfg.Schedule.PersistEvery,
			LogEvery:        cfg.Schedule.LogEvery,
			MaxAttempts:     cfg.Engine.MaxAttempts,
		},
	}, application.SupervisorDeps{
		Identities: a.identities,
		Factory:    factory,
		Store:      a.sessions,
		Sink:       sink,
		Clock:      clock,
		Sleeper:    clock,
		Random:     random,
		Log:        log,
	})
}
