package transport

import (
	"net/http"
	"strings"

	"github.com/bnema/deltahash-cli/internal/domain"
)

const defaultAcceptLanguage = "en-US,en;q=0.9"

func BrowserHeaders(identity domain.Identity, baseURL, cookie string) http.Header {
	origin := strings.TrimRight(baseURL, "/")
	acceptLanguage := identity.AcceptLanguage
	if acceptLanguage == "" {
		acceptLanguage = defaultAcceptLanguage
	}

	h := http.Header{}
	h.Set("Accept", "*/*")
	h.Set("Accept-Language", acceptLanguage)
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Origin", origin)
	h.Set("Referer", origin+"/mining")
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-origin")
	if identity.SecChUa != "" {
		h.Set("Sec-Ch-Ua", identity.SecChUa)
	}
	if identity.Platform != "" {
		h.Set("Sec-Ch-Ua-Platform", `"`+identity.Platform+`"`)
	}
	if identity.UserAgent != "" {
		h.Set("User-Agent", identity.UserAgent)
	}
	if cookie != "" {
		h.Set("Cookie", cookie)
	}

	return h
}

// HeaderTransport adds default headers to each request, strips Expect and
// drops Content-Type from body-less requests.
type HeaderTransport struct {
	Base    http.RoundTripper
	Headers http.Header
}

func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	for key, values := range t.Headers {
		if out.Header.Get(key) != "" {
			continue
		}
		out.Header[key] = append([]string(nil), values...)
	}

	out.Header.Del("Expect")
	if out.Body == nil || out.Body == http.NoBody {
		out.Header.Del("Content-Type")
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(out)
}

// CloseIdleConnections forwards to Base so http.Client.CloseIdleConnections
// reaches the pooled connections.
func (t *HeaderTransport) CloseIdleConnections() {
	type closeIdler interface {
		CloseIdleConnections()
	}
	if base, ok := t.Base.(closeIdler); ok {
		base.CloseIdleConnections()
	}
}
