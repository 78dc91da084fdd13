package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DataDir    = ".deltahash"
	EnvPrefix  = "DH"
	configName = "config"
	configType = "toml"
)

// Keys read outside this package.
const (
	KeyAccountsPath   = "accounts.path"
	KeyIdentitiesPath = "identities.path"
	KeySessionsPath   = "sessions.path"
	KeyStatusListen   = "status.listen"
)

type Config struct {
	API        APIConfig
	Engine     EngineConfig
	Proxy      ProxyConfig
	Schedule   ScheduleConfig
	Supervisor SupervisorConfig
	Log        LogConfig
	Status     StatusConfig
}

type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type EngineConfig struct {
	MaxAttempts      int
	BaseDelay        time.Duration
	RateLimitDefault time.Duration
}

type ProxyConfig struct {
	RotateAfterFailures int
	RotateInterval      time.Duration
}

type ScheduleConfig struct {
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
}

type SupervisorConfig struct {
	MaxAccounts     int
	AuthCooldown    time.Duration
	FailureCooldown time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

type StatusConfig struct {
	Listen string
}

var defaults = map[string]any{
	"api.base_url":                "https://portal.deltahash.ai",
	"api.request_timeout":         "30s",
	"engine.max_attempts":         5,
	"engine.base_delay":           "2s",
	"engine.rate_limit_default":   "30s",
	"proxy.rotate_after_failures": 3,
	"proxy.rotate_interval":       "30m",
	"schedule.tick":               "5s",
	"schedule.heartbeat":          "30s",
	"schedule.status_poll":        "15s",
	"schedule.launch_poll":        "30s",
	"schedule.tickets_poll":       "60s",
	"schedule.auth_refresh":       "60s",
	"schedule.epoch_interval":     "5m",
	"schedule.reconnect_buffer":   "10s",
	"schedule.persist_every":      10,
	"schedule.log_every":          5,
	"supervisor.max_accounts":     0,
	"supervisor.auth_cooldown":    "5m",
	"supervisor.failure_cooldown": "60s",
	"supervisor.shutdown_timeout": "10s",
	"log.level":                   "info",
	"log.format":                  "text",
	"log.file":                    "~/" + DataDir + "/dh.log",
	KeyStatusListen:               "",
}

// Load reads config.toml from file, or from ~/.deltahash when file is empty,
// and applies DH_ environment overrides. A missing default file is not an
// error. The returned viper instance also carries the storage paths.
func Load(file string) (Config, *viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{KeyAccountsPath, KeyIdentitiesPath, KeySessionsPath} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, DataDir))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, v, nil
}

func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		API: APIConfig{
			BaseURL:        strings.TrimRight(v.GetString("api.base_url"), "/"),
			RequestTimeout: v.GetDuration("api.request_timeout"),
		},
		Engine: EngineConfig{
			MaxAttempts:      v.GetInt("engine.max_attempts"),
			BaseDelay:        v.GetDuration("engine.base_delay"),
			RateLimitDefault: v.GetDuration("engine.rate_limit_default"),
		},
		Proxy: ProxyConfig{
			RotateAfterFailures: v.GetInt("proxy.rotate_after_failures"),
			RotateInterval:      v.GetDuration("proxy.rotate_interval"),
		},
		Schedule: ScheduleConfig{
			Tick:            v.GetDuration("schedule.tick"),
			Heartbeat:       v.GetDuration("schedule.heartbeat"),
			StatusPoll:      v.GetDuration("schedule.status_poll"),
			LaunchPoll:      v.GetDuration("schedule.launch_poll"),
			TicketsPoll:     v.GetDuration("schedule.tickets_poll"),
			AuthRefresh:     v.GetDuration("schedule.auth_refresh"),
			EpochInterval:   v.GetDuration("schedule.epoch_interval"),
			ReconnectBuffer: v.GetDuration("schedule.reconnect_buffer"),
			PersistEvery:    v.GetInt("schedule.persist_every"),
			LogEvery:        v.GetInt("schedule.log_every"),
		},
		Supervisor: SupervisorConfig{
			MaxAccounts:     v.GetInt("supervisor.max_accounts"),
			AuthCooldown:    v.GetDuration("supervisor.auth_cooldown"),
			FailureCooldown: v.GetDuration("supervisor.failure_cooldown"),
			ShutdownTimeout: v.GetDuration("supervisor.shutdown_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			File:   v.GetString("log.file"),
		},
		Status: StatusConfig{
			Listen: v.GetString(KeyStatusListen),
		},
	}

	file, err := expandHome(cfg.Log.File)
	if err != nil {
		return Config{}, err
	}
	cfg.Log.File = file

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine and scheduler cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.Engine.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("engine.max_attempts must be >= 1, got %d", c.Engine.MaxAttempts))
	}
	if c.Proxy.RotateAfterFailures < 1 {
		errs = append(errs, fmt.Errorf("proxy.rotate_after_failures must be >= 1, got %d", c.Proxy.RotateAfterFailures))
	}
	if c.Proxy.RotateInterval < 0 {
		errs = append(errs, errors.New("proxy.rotate_interval must not be negative"))
	}
	if c.Supervisor.MaxAccounts < 0 {
		errs = append(errs, errors.New("supervisor.max_accounts must not be negative"))
	}
	if c.Schedule.PersistEvery < 1 {
		errs = append(errs, fmt.Errorf("schedule.persist_every must be >= 1, got %d", c.Schedule.PersistEvery))
	}
	if c.Schedule.LogEvery < 1 {
		errs = append(errs, fmt.Errorf("schedule.log_every must be >= 1, got %d", c.Schedule.LogEvery))
	}

	positive := []struct {
		key   string
		value time.Duration
	}{
		{"api.request_timeout", c.API.RequestTimeout},
		{"engine.base_delay", c.Engine.BaseDelay},
		{"engine.rate_limit_default", c.Engine.RateLimitDefault},
		{"schedule.tick", c.Schedule.Tick},
		{"schedule.heartbeat", c.Schedule.Heartbeat},
		{"schedule.status_poll", c.Schedule.StatusPoll},
		{"schedule.launch_poll", c.Schedule.LaunchPoll},
		{"schedule.tickets_poll", c.Schedule.TicketsPoll},
		{"schedule.auth_refresh", c.Schedule.AuthRefresh},
		{"schedule.epoch_interval", c.Schedule.EpochInterval},
		{"schedule.reconnect_buffer", c.Schedule.ReconnectBuffer},
		{"supervisor.auth_cooldown", c.Supervisor.AuthCooldown},
		{"supervisor.failure_cooldown", c.Supervisor.FailureCooldown},
		{"supervisor.shutdown_timeout", c.Supervisor.ShutdownTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", p.key, p.value))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func expandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, rest), nil
}
