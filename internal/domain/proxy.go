package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	ProxySchemeHTTP    = "http"
	ProxySchemeHTTPS   = "https"
	ProxySchemeSOCKS5  = "socks5"
	ProxySchemeSOCKS5H = "socks5h"
)

var proxyCredentials = regexp.MustCompile(`//([^:/@]+):([^@]+)@`)

// ProxyEndpoint is one upstream tunnel. The zero value with an empty Raw is the
// direct (no proxy) endpoint.
type ProxyEndpoint struct {
	Raw    string
	Scheme string
	Health ProxyHealth
}

type ProxyHealth struct {
	Successes           int
	Failures            int
	ConsecutiveFailures int
	TotalRequests       int
	LastUsedAt          time.Time
	LastError           string
}

func ParseProxyEndpoint(raw string) (ProxyEndpoint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ProxyEndpoint{}, nil
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ProxyEndpoint{}, fmt.Errorf("parse proxy %q: %w", MaskProxyURL(trimmed), err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case ProxySchemeHTTP, ProxySchemeHTTPS, ProxySchemeSOCKS5, ProxySchemeSOCKS5H:
	case "socks":
		scheme = ProxySchemeSOCKS5
	default:
		return ProxyEndpoint{}, fmt.Errorf("%w %q", ErrUnsupportedProxyScheme, parsed.Scheme)
	}

	if parsed.Host == "" {
		return ProxyEndpoint{}, fmt.Errorf("proxy %q has no host", MaskProxyURL(trimmed))
	}

	return ProxyEndpoint{Raw: trimmed, Scheme: scheme}, nil
}

func (e ProxyEndpoint) IsDirect() bool {
	return e.Raw == ""
}

// URL returns the parsed endpoint with a normalized scheme, nil for direct.
func (e ProxyEndpoint) URL() *url.URL {
	if e.IsDirect() {
		return nil
	}

	parsed, err := url.Parse(e.Raw)
	if err != nil {
		return nil
	}
	parsed.Scheme = e.Scheme

	return parsed
}

func (e ProxyEndpoint) Masked() string {
	if e.IsDirect() {
		return "Direct (no proxy)"
	}
	return MaskProxyURL(e.Raw)
}

func MaskProxyURL(raw string) string {
	return proxyCredentials.ReplaceAllString(raw, "//***:***@")
}

// ProxyStat is a read-only view of one endpoint for logs, the dashboard and the
// status API.
type ProxyStat struct {
	Index               int    `json:"index"`
	Proxy               string `json:"proxy"`
	Active              bool   `json:"active"`
	Successes           int    `json:"successes"`
	Failures            int    `json:"failures"`
	SuccessRate         string `json:"successRate"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	LastError           string `json:"lastError,omitempty"`
}
