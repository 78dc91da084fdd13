package application

import "github.com/bnema/deltahash-cli/internal/domain"

type AccountSummary struct {
	Label    string `json:"label"`
	KeyHint  string `json:"keyHint"`
	Proxy    string `json:"proxy"`
	Proxies  int    `json:"proxies"`
	DeviceID string `json:"deviceId,omitempty"`
}

type IdentityView struct {
	Account  string          `json:"account,omitempty"`
	Key      string          `json:"key"`
	Identity domain.Identity `json:"identity"`
}
