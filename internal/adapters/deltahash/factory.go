package deltahash

import (
	"fmt"
	"time"

	"github.com/bnema/deltahash-cli/internal/adapters/transport"
	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/engine"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

type FactoryConfig struct {
	Engine         engine.Config
	RequestTimeout time.Duration
}

// Factory builds a Client bound to the pool's current endpoint.
type Factory struct {
	cfg    FactoryConfig
	clock  ports.Clock
	sleep  ports.Sleeper
	random ports.Random
	log    logrus.FieldLogger
}

var _ ports.MiningAPIFactory = (*Factory)(nil)

func NewFactory(cfg FactoryConfig, clock ports.Clock, sleeper ports.Sleeper, random ports.Random, log logrus.FieldLogger) *Factory {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if sleeper == nil {
		sleeper = ports.SystemClock{}
	}
	if random == nil {
		random = ports.SystemRandom{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Factory{cfg: cfg, clock: clock, sleep: sleeper, random: random, log: log}
}

func (f *Factory) New(account domain.Account, identity domain.Identity, pool *domain.ProxyPool) (ports.MiningAPI, error) {
	endpoint := pool.Select()
	httpClient, err := transport.NewClient(endpoint, transport.Options{
		BaseURL:  f.cfg.Engine.BaseURL,
		Timeout:  f.cfg.RequestTimeout,
		Identity: identity,
		Cookie:   account.CookieHeader(),
	})
	if err != nil {
		return nil, fmt.Errorf("build transport for %s: %w", account.Label(), err)
	}

	log := f.log.WithFields(logrus.Fields{
		"account": account.Label(),
		"proxy":   pool.Label(),
	})
	requester := engine.New(f.cfg.Engine, httpClient, pool, f.sleep, f.random, log)

	client := NewClient(requester, identity, f.clock, f.random)
	client.closeIdle = httpClient.CloseIdleConnections
	return client, nil
}
