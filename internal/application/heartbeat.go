package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

// heartbeatLoop carries the timers of one Heartbeat run.
type heartbeatLoop struct {
	lastHeartbeat time.Time
	lastStatus    time.Time
	lastLaunch    time.Time
	lastTickets   time.Time
	lastAuth      time.Time
	lastConnect   time.Time
	prevEpoch     *int64
	epochEnd      time.Time
	count         int
	persisted     int
}

// Heartbeat runs the earn cadence and the secondary polls on a fixed tick. It
// only returns on auth expiry, a proxy change or cancellation.
func (s *Session) Heartbeat(ctx context.Context) error {
	record := s.state.Record
	loop := heartbeatLoop{
		lastConnect: s.clock.Now(),
		prevEpoch:   copyEpoch(record.Epoch),
		epochEnd:    record.EpochEndsAt,
	}

	s.log.WithFields(logrus.Fields{
		"heartbeat":   s.schedule.Heartbeat.String(),
		"status_poll": s.schedule.StatusPoll.String(),
	}).Info("heartbeat loop started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := s.clock.Now()

		pool := s.state.Pool
		if pool.DueForTimedRotation() && pool.Rotate("timed_rotation") {
			s.log.WithFields(logrus.Fields{
				"reason":    "timed_rotation",
				"proxy":     pool.Masked(),
				"rotations": pool.RotateCount(),
			}).Warn("proxy rotated")
			return fmt.Errorf("%w: timed rotation", domain.ErrProxyChanged)
		}

		if due(now, loop.lastHeartbeat, s.schedule.Heartbeat) {
			reconnected, err := s.beat(ctx, &loop)
			loop.lastHeartbeat = now
			if err != nil {
				return err
			}
			if reconnected {
				continue
			}
		}

		if due(now, loop.lastStatus, s.schedule.StatusPoll) {
			if err := s.pollStatus(ctx, &loop); err != nil {
				return err
			}
			loop.lastStatus = now
		}

		if due(now, loop.lastLaunch, s.schedule.LaunchPoll) {
			_ = s.api.LaunchStatus(ctx, ports.Silent)
			loop.lastLaunch = now
		}

		if due(now, loop.lastTickets, s.schedule.TicketsPoll) {
			_ = s.api.SupportTickets(ctx, ports.Silent)
			loop.lastTickets = now
		}

		if due(now, loop.lastAuth, s.schedule.AuthRefresh) {
			if _, err := s.api.Profile(ctx, ports.Silent); err != nil && fatalUntracked(err) {
				return fmt.Errorf("refresh session: %w", err)
			}
			loop.lastAuth = now
		}

		if s.epochEnding(now, &loop) {
			s.log.Info("epoch ending, reconnecting mining session")
			if err := s.reconnect(ctx, &loop); err != nil {
				if domain.IsTerminal(err) {
					return err
				}
				s.log.WithError(err).Warn("epoch reconnect failed")
			}
		}

		if loop.count > 0 && loop.count%s.schedule.PersistEvery == 0 && loop.persisted != loop.count {
			s.persist(ctx)
			loop.persisted = loop.count
		}

		record.NextActionAt = now.Add(s.schedule.Tick)
		if err := s.pacer.Exact(ctx, s.schedule.Tick); err != nil {
			return err
		}
	}
}

// beat sends one earn call. When the portal reports the session disconnected
// it restarts the session, waits, sends one more earn call and reports true.
func (s *Session) beat(ctx context.Context, loop *heartbeatLoop) (bool, error) {
	result, err := s.api.Heartbeat(ctx, s.schedule.attempts(heartbeatAttempts))
	if err != nil {
		if domain.IsTerminal(err) {
			return false, fmt.Errorf("heartbeat: %w", err)
		}
		s.log.WithError(err).Warn("heartbeat failed")
		return false, nil
	}

	record := s.state.Record
	record.Heartbeats++

	if result.Disconnected {
		loop.count++
		s.log.Warn("heartbeat reports disconnected, reconnecting mining session")
		if err := s.reconnect(ctx, loop); err != nil {
			if domain.IsTerminal(err) {
				return false, err
			}
			s.log.WithError(err).Error("mining reconnect failed")
		}
		if err := s.pacer.Exact(ctx, disconnectedWait); err != nil {
			return false, err
		}
		if err := s.confirmHeartbeat(ctx); err != nil {
			return false, err
		}
		loop.prevEpoch = copyEpoch(record.Epoch)
		s.state.Publish()
		return true, nil
	}

	if !result.Success {
		return false, nil
	}
	loop.count++

	s.applyHeartbeat(result)

	fields := logrus.Fields{
		"balance":   domain.FormatAmount(record.Balance),
		"epoch":     domain.FormatEpoch(result.EpochNumber),
		"heartbeat": loop.count,
	}
	if result.TokensEarned > 0 {
		s.log.WithFields(fields).WithField("earned", result.TokensEarned).Info("tokens earned")
	} else if loop.count%s.schedule.LogEvery == 0 {
		s.log.WithFields(fields).WithField("session_earned", record.TotalEarned).Info("heartbeat")
	}

	if epochChanged(loop.prevEpoch, result.EpochNumber) {
		s.log.WithField("epoch", domain.FormatEpoch(result.EpochNumber)).Info("new epoch, reconnecting mining session")
		if err := s.epochReconnect(ctx, loop); err != nil {
			return false, err
		}
	}
	loop.prevEpoch = copyEpoch(record.Epoch)

	s.state.Publish()
	return false, nil
}

// epochReconnect restarts the session for a new epoch and confirms it with one
// more earn call. Non-terminal failures are logged.
func (s *Session) epochReconnect(ctx context.Context, loop *heartbeatLoop) error {
	if err := s.reconnect(ctx, loop); err != nil {
		if domain.IsTerminal(err) {
			return err
		}
		s.log.WithError(err).Warn("epoch reconnect failed")
		return nil
	}
	if err := s.pacer.Sleep(ctx, epochReconnectPause); err != nil {
		return err
	}
	if err := s.confirmHeartbeat(ctx); err != nil {
		return err
	}
	s.log.Info("mining reconnected for new epoch")
	return nil
}

// confirmHeartbeat sends the earn call that follows a session restart.
func (s *Session) confirmHeartbeat(ctx context.Context) error {
	result, err := s.api.Heartbeat(ctx, s.schedule.attempts(heartbeatAttempts))
	if err != nil {
		if domain.IsTerminal(err) {
			return fmt.Errorf("heartbeat: %w", err)
		}
		s.log.WithError(err).Warn("heartbeat after reconnect failed")
		return nil
	}
	s.state.Record.Heartbeats++
	if result.Disconnected {
		s.log.Warn("heartbeat after reconnect still reports disconnected")
		return nil
	}
	if result.Success {
		s.applyHeartbeat(result)
	}
	return nil
}

func (s *Session) reconnect(ctx context.Context, loop *heartbeatLoop) error {
	if err := s.api.StartMining(ctx, s.schedule.attempts(startAttempts)); err != nil {
		return fmt.Errorf("start mining: %w", err)
	}
	loop.lastConnect = s.clock.Now()
	s.state.touch()
	return nil
}

func (s *Session) pollStatus(ctx context.Context, loop *heartbeatLoop) error {
	status, err := s.api.MiningStatus(ctx, s.schedule.attempts(loopStatusAttempts))
	if err != nil {
		if domain.IsTerminal(err) {
			return fmt.Errorf("poll mining status: %w", err)
		}
		return nil
	}

	record := s.state.Record
	record.Speed = status.Speed
	record.BaseRate = status.BaseRate
	loop.epochEnd = status.Epoch.EndsAt
	record.EpochEndsAt = status.Epoch.EndsAt
	if balance := status.EffectiveBalance(); balance != nil {
		record.RaiseBalance(*balance)
	}
	s.state.touch()
	s.state.Publish()
	return nil
}

// epochEnding is true inside the reconnect buffer before the epoch ends, at
// most once per half epoch interval.
func (s *Session) epochEnding(now time.Time, loop *heartbeatLoop) bool {
	if loop.epochEnd.IsZero() {
		return false
	}
	if now.Before(loop.epochEnd.Add(-s.schedule.ReconnectBuffer)) {
		return false
	}
	return now.Sub(loop.lastConnect) > s.schedule.EpochInterval/2
}

func epochChanged(previous, current *int64) bool {
	return previous != nil && current != nil && *previous != *current
}

func copyEpoch(epoch *int64) *int64 {
	if epoch == nil {
		return nil
	}
	v := *epoch
	return &v
}
