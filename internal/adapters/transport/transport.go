package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"
)

const (
	DefaultTimeout = 30 * time.Second

	dialTimeout         = 30 * time.Second
	dialKeepAlive       = 30 * time.Second
	idleConnTimeout     = 90 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
)

type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Identity domain.Identity
	Cookie   string
}

// NewClient returns an HTTP client that reaches the portal through endpoint and
// decorates every request with the identity's browser headers.
func NewClient(endpoint domain.ProxyEndpoint, opts Options) (*http.Client, error) {
	base, err := NewTransport(endpoint)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Transport: &HeaderTransport{
			Base:    base,
			Headers: BrowserHeaders(opts.Identity, opts.BaseURL, opts.Cookie),
		},
		Timeout: timeout,
	}, nil
}

func NewTransport(endpoint domain.ProxyEndpoint) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: dialKeepAlive}

	t := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        8,
		IdleConnTimeout:     idleConnTimeout,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
	}

	switch endpoint.Scheme {
	case "":
	case domain.ProxySchemeHTTP, domain.ProxySchemeHTTPS:
		t.Proxy = http.ProxyURL(endpoint.URL())
	case domain.ProxySchemeSOCKS5, domain.ProxySchemeSOCKS5H:
		socks, err := proxy.FromURL(endpoint.URL(), dialer)
		if err != nil {
			return nil, fmt.Errorf("build socks dialer for %s: %w", endpoint.Masked(), err)
		}
		if contextDialer, ok := socks.(proxy.ContextDialer); ok {
			t.DialContext = contextDialer.DialContext
		} else {
			t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return socks.Dial(network, addr)
			}
		}
	default:
		return nil, fmt.Errorf("%w %q", domain.ErrUnsupportedProxyScheme, endpoint.Scheme)
	}

	if err := http2.ConfigureTransport(t); err != nil {
		return nil, fmt.Errorf("configure http2 transport: %w", err)
	}

	return t, nil
}
