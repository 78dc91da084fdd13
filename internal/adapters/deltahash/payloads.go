package deltahash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
)

type profileResponse struct {
	User *struct {
		Username         string   `json:"username"`
		Balance          *float64 `json:"balance"`
		DeviceConnected  bool     `json:"deviceConnected"`
		MiningStreakDays int      `json:"miningStreakDays"`
		ReferralCode     string   `json:"referralCode"`
		DeviceID         string   `json:"deviceId"`
	} `json:"user"`
}

type bindResponse struct {
	Success          bool            `json:"success"`
	AlreadyConnected bool            `json:"alreadyConnected"`
	User             *bindUser       `json:"user"`
	Device           json.RawMessage `json:"device"`
}

type bindUser struct {
	DeviceID string   `json:"deviceId"`
	Balance  *float64 `json:"balance"`
}

type statusResponse struct {
	Balance     *float64 `json:"balance"`
	UserBalance *float64 `json:"userBalance"`
	MiningSpeed *float64 `json:"miningSpeed"`
	BaseRate    *float64 `json:"baseRate"`
	IsMining    bool     `json:"isMining"`
	Epoch       *struct {
		Number  *int64    `json:"number"`
		EndTime timestamp `json:"endTime"`
	} `json:"epoch"`
}

type heartbeatResponse struct {
	Success      bool     `json:"success"`
	TokensEarned float64  `json:"tokensEarned"`
	NewBalance   *float64 `json:"newBalance"`
	EpochNumber  *int64   `json:"epochNumber"`
	Disconnected bool     `json:"disconnected"`
}

// timestamp accepts RFC 3339 strings and unix milliseconds.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fmt.Errorf("parse epoch end time %q: %w", raw, err)
		}
		t.Time = parsed
		return nil
	}

	var millis float64
	if err := json.Unmarshal(data, &millis); err != nil {
		return fmt.Errorf("parse epoch end time: %w", err)
	}
	t.Time = time.UnixMilli(int64(millis))
	return nil
}

func decode(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (r profileResponse) toDomain() domain.Profile {
	if r.User == nil {
		return domain.Profile{}
	}
	return domain.Profile{
		Username:         r.User.Username,
		Balance:          r.User.Balance,
		DeviceConnected:  r.User.DeviceConnected,
		MiningStreakDays: r.User.MiningStreakDays,
		ReferralCode:     r.User.ReferralCode,
		DeviceID:         r.User.DeviceID,
	}
}

func (r bindResponse) toDomain() domain.BindResult {
	result := domain.BindResult{
		Success:          r.Success,
		AlreadyConnected: r.AlreadyConnected,
		HasUser:          r.User != nil,
		HasDevice:        len(r.Device) > 0 && !bytes.Equal(r.Device, []byte("null")),
	}
	if r.User != nil {
		result.DeviceID = r.User.DeviceID
		result.Balance = r.User.Balance
	}
	return result
}

func (r statusResponse) toDomain() domain.MiningStatus {
	status := domain.MiningStatus{
		Balance:     r.Balance,
		UserBalance: r.UserBalance,
		Speed:       r.MiningSpeed,
		BaseRate:    r.BaseRate,
		IsMining:    r.IsMining,
	}
	if r.Epoch != nil {
		status.Epoch = domain.Epoch{Number: r.Epoch.Number, EndsAt: r.Epoch.EndTime.Time}
	}
	return status
}

func (r heartbeatResponse) toDomain() domain.HeartbeatResult {
	return domain.HeartbeatResult{
		Success:      r.Success,
		TokensEarned: r.TokensEarned,
		NewBalance:   r.NewBalance,
		EpochNumber:  r.EpochNumber,
		Disconnected: r.Disconnected,
	}
}
