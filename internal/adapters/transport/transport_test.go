package transport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func okResponse(req *http.Request) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{}`)),
		Header:     http.Header{},
		Request:    req,
	}
}

func testIdentity() domain.Identity {
	return domain.Identity{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) Chrome/144.0.0.0",
		SecChUa:        `"Chromium";v="144"`,
		Platform:       "Linux",
		AcceptLanguage: "en-GB,en;q=0.9",
	}
}

func TestHeaderTransportAppliesBrowserHeaders(t *testing.T) {
	t.Parallel()

	var seen http.Header
	rt := &HeaderTransport{
		Base: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			seen = req.Header.Clone()
			return okResponse(req), nil
		}),
		Headers: BrowserHeaders(testIdentity(), "https://portal.example/", "connect.sid=abc"),
	}

	req, err := http.NewRequest(http.MethodGet, "https://portal.example/api/auth/me", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	require.NoError(t, err)

	assert.Equal(t, "https://portal.example", seen.Get("Origin"))
	assert.Equal(t, "https://portal.example/mining", seen.Get("Referer"))
	assert.Equal(t, `"Linux"`, seen.Get("Sec-Ch-Ua-Platform"))
	assert.Equal(t, "?0", seen.Get("Sec-Ch-Ua-Mobile"))
	assert.Equal(t, "en-GB,en;q=0.9", seen.Get("Accept-Language"))
	assert.Equal(t, "connect.sid=abc", seen.Get("Cookie"))
	assert.Contains(t, seen.Get("User-Agent"), "Chrome/144")
	assert.Empty(t, req.Header.Get("Origin"))
}

func TestHeaderTransportStripsExpectAndEmptyBodyContentType(t *testing.T) {
	t.Parallel()

	var seen http.Header
	rt := &HeaderTransport{
		Base: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			seen = req.Header.Clone()
			return okResponse(req), nil
		}),
	}

	req, err := http.NewRequest(http.MethodPost, "https://portal.example/api/mining/heartbeat", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Expect", "100-continue")
	req.Header.Set("Content-Type", "application/json")

	_, err = rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Empty(t, seen.Get("Expect"))
	assert.Empty(t, seen.Get("Content-Type"))

	withBody, err := http.NewRequest(http.MethodPost, "https://portal.example/api/mining/connect", strings.NewReader(`{}`))
	require.NoError(t, err)
	withBody.Header.Set("Content-Type", "application/json")
	withBody.Header.Set("Expect", "")

	_, err = rt.RoundTrip(withBody)
	require.NoError(t, err)
	assert.Equal(t, "application/json", seen.Get("Content-Type"))
	_, hasExpect := seen["Expect"]
	assert.False(t, hasExpect)
}

func TestNewTransportPerScheme(t *testing.T) {
	t.Parallel()

	direct, err := NewTransport(domain.ProxyEndpoint{})
	require.NoError(t, err)
	assert.Nil(t, direct.Proxy)
	assert.Contains(t, direct.TLSNextProto, "h2")

	endpoint, err := domain.ParseProxyEndpoint("http://user:pw@proxy.example:3128")
	require.NoError(t, err)
	viaHTTP, err := NewTransport(endpoint)
	require.NoError(t, err)
	require.NotNil(t, viaHTTP.Proxy)

	req := httptest.NewRequest(http.MethodGet, "https://portal.example/api/auth/me", nil)
	proxyURL, err := viaHTTP.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.example:3128", proxyURL.Host)

	socks, err := domain.ParseProxyEndpoint("socks5://proxy.example:1080")
	require.NoError(t, err)
	viaSOCKS, err := NewTransport(socks)
	require.NoError(t, err)
	assert.Nil(t, viaSOCKS.Proxy)
	assert.NotNil(t, viaSOCKS.DialContext)
}

func TestNewClientReachesServerDirectly(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "connect.sid=abc", r.Header.Get("Cookie"))
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer server.Close()

	client, err := NewClient(domain.ProxyEndpoint{}, Options{BaseURL: server.URL, Identity: testIdentity(), Cookie: "connect.sid=abc"})
	require.NoError(t, err)

	resp, err := client.Get(server.URL + "/api/launch/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, DefaultTimeout, client.Timeout)
}
