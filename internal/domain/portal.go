package domain

import "time"

type Profile struct {
	Username         string
	Balance          *float64
	DeviceConnected  bool
	MiningStreakDays int
	ReferralCode     string
	DeviceID         string
}

// BindShape selects the payload layout of a device-bind call.
type BindShape int

const (
	BindNested BindShape = iota
	BindNestedWithID
	BindFlat
)

type BindResult struct {
	Success          bool
	AlreadyConnected bool
	HasUser          bool
	HasDevice        bool
	DeviceID         string
	Balance          *float64
}

// Accepted reports the success test shared by all binding strategies.
func (r BindResult) Accepted() bool {
	return r.Success || r.HasUser || r.AlreadyConnected
}

type Epoch struct {
	Number *int64
	EndsAt time.Time
}

type MiningStatus struct {
	Balance     *float64
	UserBalance *float64
	Speed       *float64
	BaseRate    *float64
	IsMining    bool
	Epoch       Epoch
}

// EffectiveBalance prefers balance over userBalance, as the portal reports one
// or the other.
func (s MiningStatus) EffectiveBalance() *float64 {
	if s.Balance != nil && *s.Balance != 0 {
		return s.Balance
	}
	if s.UserBalance != nil && *s.UserBalance != 0 {
		return s.UserBalance
	}
	return nil
}

type HeartbeatResult struct {
	Success      bool
	TokensEarned float64
	NewBalance   *float64
	EpochNumber  *int64
	Disconnected bool
}

// Registered is the success test of the dedicated registration endpoint,
// which may answer with only a device object.
func (r BindResult) Registered() bool {
	return r.Accepted() || r.HasDevice
}
