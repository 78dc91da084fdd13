package domain

import (
	"fmt"
	"math"
	"time"
)

type Status string

const (
	StatusWaiting      Status = "WAITING"
	StatusSetup        Status = "SETUP"
	StatusMining       Status = "MINING"
	StatusReconnecting Status = "RECONNECTING"
	StatusAuthExpired  Status = "AUTH_EXPIRED"
	StatusFailed       Status = "FAILED"
)

var allowedTransitions = map[Status][]Status{
	StatusWaiting:      {StatusSetup, StatusAuthExpired, StatusFailed},
	StatusSetup:        {StatusMining, StatusReconnecting, StatusAuthExpired, StatusFailed},
	StatusMining:       {StatusReconnecting, StatusAuthExpired, StatusFailed},
	StatusReconnecting: {StatusSetup, StatusAuthExpired, StatusFailed},
	StatusAuthExpired:  {StatusSetup, StatusFailed},
	StatusFailed:       {StatusSetup, StatusAuthExpired},
}

func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SessionRecord is the mutable state of one account. It is owned by that
// account's task; other goroutines only ever see copies carried by events.
type SessionRecord struct {
	Account        string    `json:"account"`
	Username       string    `json:"username,omitempty"`
	Status         Status    `json:"status"`
	Balance        *float64  `json:"balance"`
	Speed          *float64  `json:"speed"`
	BaseRate       *float64  `json:"baseRate"`
	Epoch          *int64    `json:"epoch"`
	EpochEndsAt    time.Time `json:"epochEndsAt,omitzero"`
	TotalEarned    float64   `json:"totalEarned"`
	DeviceHandle   string    `json:"deviceHandle,omitempty"`
	ProxyLabel     string    `json:"proxyLabel"`
	LastHeartbeat  time.Time `json:"lastHeartbeat,omitzero"`
	LastActivityAt time.Time `json:"lastActivityAt,omitzero"`
	NextActionAt   time.Time `json:"nextActionAt,omitzero"`
	Heartbeats     int       `json:"heartbeats"`
}

func NewSessionRecord(account Account, proxyLabel string) *SessionRecord {
	return &SessionRecord{
		Account:      account.Label(),
		Status:       StatusWaiting,
		DeviceHandle: account.DeviceID,
		ProxyLabel:   proxyLabel,
	}
}

func (r *SessionRecord) Transition(next Status) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, next)
	}
	r.Status = next
	return nil
}

// AddEarned accumulates a positive increment, rounded to six decimals.
// Zero and negative increments are ignored.
func (r *SessionRecord) AddEarned(delta float64) {
	if delta <= 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return
	}
	r.TotalEarned = math.Round((r.TotalEarned+delta)*1e6) / 1e6
}

func (r *SessionRecord) SetBalance(balance float64) {
	r.Balance = &balance
}

// RaiseBalance only moves the balance upwards; polled values never lower it.
func (r *SessionRecord) RaiseBalance(balance float64) {
	if r.Balance != nil && balance <= *r.Balance {
		return
	}
	r.Balance = &balance
}

func (r *SessionRecord) SetEpoch(epoch int64) {
	r.Epoch = &epoch
}

func (r SessionRecord) Snapshot(now time.Time) Snapshot {
	snapshot := Snapshot{
		Account:      r.Account,
		Username:     r.Username,
		DeviceHandle: r.DeviceHandle,
		TotalEarned:  r.TotalEarned,
		UpdatedAt:    now,
	}
	if r.Balance != nil {
		balance := *r.Balance
		snapshot.Balance = &balance
	}
	if r.Epoch != nil {
		epoch := *r.Epoch
		snapshot.LastEpoch = &epoch
	}
	return snapshot
}

// Clone returns a deep copy safe to hand to other goroutines.
func (r SessionRecord) Clone() SessionRecord {
	clone := r
	if r.Balance != nil {
		v := *r.Balance
		clone.Balance = &v
	}
	if r.Speed != nil {
		v := *r.Speed
		clone.Speed = &v
	}
	if r.BaseRate != nil {
		v := *r.BaseRate
		clone.BaseRate = &v
	}
	if r.Epoch != nil {
		v := *r.Epoch
		clone.Epoch = &v
	}
	return clone
}

// Snapshot is the durable per-account summary written to the session store.
type Snapshot struct {
	Account      string    `json:"account"`
	Username     string    `json:"username,omitempty"`
	Balance      *float64  `json:"balance"`
	DeviceHandle string    `json:"deviceHandle,omitempty"`
	LastEpoch    *int64    `json:"lastEpoch"`
	TotalEarned  float64   `json:"totalEarned"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
