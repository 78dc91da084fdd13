package toml

import "fmt"

const currentSchemaVersion = 1

func defaultVersion(version *int) {
	if *version == 0 {
		*version = currentSchemaVersion
	}
}

func validateVersion(kind string, version int) error {
	if version > currentSchemaVersion {
		return fmt.Errorf("unsupported %s schema version %d (current %d)", kind, version, currentSchemaVersion)
	}

	return nil
}

type accountsFileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

type accountSchema struct {
	Cookie     string   `toml:"cookie,omitempty"`
	Identifier string   `toml:"identifier,omitempty"`
	Proxy      string   `toml:"proxy,omitempty"`
	Proxies    []string `toml:"proxies,omitempty"`
	DeviceID   string   `toml:"device_id,omitempty"`
}

type identitiesFileSchema struct {
	Version    int                   `toml:"version"`
	Identities []identityEntrySchema `toml:"identities"`
}

type identityEntrySchema struct {
	Key      string         `toml:"key"`
	Identity identitySchema `toml:"identity"`
}

type identitySchema struct {
	UserAgent       string `toml:"user_agent"`
	SecChUa         string `toml:"sec_ch_ua"`
	Platform        string `toml:"platform"`
	OS              string `toml:"os"`
	Engine          string `toml:"engine"`
	Browser         string `toml:"browser"`
	DeviceType      string `toml:"device_type"`
	GPU             string `toml:"gpu"`
	Cores           int    `toml:"cores"`
	Memory          string `toml:"memory"`
	ScreenRes       string `toml:"screen_res"`
	Viewport        string `toml:"viewport"`
	PixelRatio      int    `toml:"pixel_ratio"`
	ColorDepth      string `toml:"color_depth"`
	CanvasHash      string `toml:"canvas_hash"`
	WebGLHash       string `toml:"webgl_hash"`
	AudioHash       string `toml:"audio_hash"`
	Locale          string `toml:"locale"`
	Timezone        string `toml:"timezone"`
	PrefLangs       string `toml:"pref_langs"`
	AcceptLanguage  string `toml:"accept_language"`
	Fonts           string `toml:"fonts"`
	WebGLExtensions string `toml:"webgl_extensions"`
	DOMCompleteMs   int    `toml:"dom_complete_ms"`
}

type sessionsFileSchema struct {
	Version  int             `toml:"version"`
	Sessions []sessionSchema `toml:"sessions"`
}

type sessionSchema struct {
	Key          string   `toml:"key"`
	Account      string   `toml:"account"`
	Username     string   `toml:"username,omitempty"`
	Balance      *float64 `toml:"balance,omitempty"`
	DeviceHandle string   `toml:"device_handle,omitempty"`
	LastEpoch    *int64   `toml:"last_epoch,omitempty"`
	TotalEarned  float64  `toml:"total_earned"`
	UpdatedAt    string   `toml:"updated_at"`
}
