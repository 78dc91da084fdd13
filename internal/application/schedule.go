package application

import "time"

// Schedule holds the cadences of the heartbeat loop.
type Schedule struct {
	Tick            time.Duration
	Heartbeat       time.Duration
	StatusPoll      time.Duration
	LaunchPoll      time.Duration
	TicketsPoll     time.Duration
	AuthRefresh     time.Duration
	EpochInterval   time.Duration
	ReconnectBuffer time.Duration
	PersistEvery    int
	LogEvery        int
	MaxAttempts     int
}

func DefaultSchedule() Schedule {
	return Schedule{
		Tick:            5 * time.Second,
		Heartbeat:       30 * time.Second,
		StatusPoll:      15 * time.Second,
		LaunchPoll:      30 * time.Second,
		TicketsPoll:     60 * time.Second,
		AuthRefresh:     60 * time.Second,
		EpochInterval:   5 * time.Minute,
		ReconnectBuffer: 10 * time.Second,
		PersistEvery:    10,
		LogEvery:        5,
		MaxAttempts:     5,
	}
}

func (s Schedule) withDefaults() Schedule {
	d := DefaultSchedule()
	if s.Tick <= 0 {
		s.Tick = d.Tick
	}
	if s.Heartbeat <= 0 {
		s.Heartbeat = d.Heartbeat
	}
	if s.StatusPoll <= 0 {
		s.StatusPoll = d.StatusPoll
	}
	if s.LaunchPoll <= 0 {
		s.LaunchPoll = d.LaunchPoll
	}
	if s.TicketsPoll <= 0 {
		s.TicketsPoll = d.TicketsPoll
	}
	if s.AuthRefresh <= 0 {
		s.AuthRefresh = d.AuthRefresh
	}
	if s.EpochInterval <= 0 {
		s.EpochInterval = d.EpochInterval
	}
	if s.ReconnectBuffer <= 0 {
		s.ReconnectBuffer = d.ReconnectBuffer
	}
	if s.PersistEvery <= 0 {
		s.PersistEvery = d.PersistEvery
	}
	if s.LogEvery <= 0 {
		s.LogEvery = d.LogEvery
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = d.MaxAttempts
	}
	return s
}

// attempts caps a call site's budget at MaxAttempts.
func (s Schedule) attempts(budget int) int {
	return min(budget, s.MaxAttempts)
}

// Attempt budgets per call site. Profile and setup status calls use
// Schedule.MaxAttempts.
const (
	warmUpAttempts      = 2
	quickBindAttempts   = 1
	startAttempts       = 3
	heartbeatAttempts   = 3
	loopStatusAttempts  = 2
	disconnectedWait    = 5 * time.Second
	setupReconnectWait  = 2 * time.Second
	epochReconnectPause = time.Second
	fallbackRebindMin   = 1500 * time.Millisecond
	fallbackRebindMax   = 2500 * time.Millisecond
	fallbackFirstMin    = time.Second
	fallbackFirstMax    = 2500 * time.Millisecond
	fallbackBetweenMin  = 800 * time.Millisecond
	fallbackBetweenMax  = 2 * time.Second
)

func due(now, last time.Time, every time.Duration) bool {
	return last.IsZero() || now.Sub(last) >= every
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
