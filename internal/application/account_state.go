package application

import (
	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

// AccountState is one account's record and proxy pool. It lives for the whole
// run and is only touched by that account's task.
type AccountState struct {
	Account domain.Account
	Record  *domain.SessionRecord
	Pool    *domain.ProxyPool

	sink  ports.EventSink
	clock ports.Clock
	log   logrus.FieldLogger
}

func NewAccountState(account domain.Account, pool *domain.ProxyPool, sink ports.EventSink, clock ports.Clock, log logrus.FieldLogger) *AccountState {
	if sink == nil {
		sink = ports.NopEventSink{}
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &AccountState{
		Account: account,
		Record:  domain.NewSessionRecord(account, pool.Label()),
		Pool:    pool,
		sink:    sink,
		clock:   clock,
		log:     log.WithField("account", account.Label()),
	}
}

func (a *AccountState) Log() logrus.FieldLogger {
	return a.log
}

// Transition moves the record to next and publishes it. Rejected transitions
// are logged and leave the record unchanged.
func (a *AccountState) Transition(next domain.Status) {
	previous := a.Record.Status
	if err := a.Record.Transition(next); err != nil {
		a.log.WithError(err).Warn("status transition rejected")
		return
	}
	if previous != next {
		a.log.WithFields(logrus.Fields{"from": previous, "to": next}).Info("status changed")
	}
	a.Publish()
}

func (a *AccountState) Publish() {
	a.Record.ProxyLabel = a.Pool.Label()
	a.sink.Publish(domain.NewSessionEvent(*a.Record, a.Pool.Stats(), a.clock.Now()))
}

func (a *AccountState) touch() {
	a.Record.LastActivityAt = a.clock.Now()
}
