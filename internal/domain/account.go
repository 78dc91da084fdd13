package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

type AccountID string

const cookiePrefix = "connect.sid="

// Account is one configured portal login. ID is the stable key used for the
// identity cache and session snapshots.
type Account struct {
	ID         AccountID
	Index      int
	Cookie     string
	Identifier string
	Proxies    []string
	DeviceID   string
}

// AccountKey resolves the stable key of the account at position index:
// cookie first, then identifier, then a positional fallback.
func AccountKey(cookie, identifier string, index int) AccountID {
	if trimmed := strings.TrimSpace(cookie); trimmed != "" {
		return AccountID(trimmed)
	}
	if trimmed := strings.TrimSpace(identifier); trimmed != "" {
		return AccountID(trimmed)
	}
	return AccountID(fmt.Sprintf("account_%d", index))
}

// Digest is the hex sha256 of the key. Files that must not contain the
// credential itself are keyed by it.
func (id AccountID) Digest() string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

func (a Account) Label() string {
	return AccountLabel(a.Index)
}

func AccountLabel(index int) string {
	return fmt.Sprintf("Account %d", index+1)
}

// LabelLess orders "Account 2" before "Account 10".
func LabelLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// CookieHeader returns the session cookie in header form, adding the
// connect.sid prefix when the configured value omits it.
func (a Account) CookieHeader() string {
	cookie := strings.TrimSpace(a.Cookie)
	if cookie == "" {
		return ""
	}
	if strings.HasPrefix(cookie, cookiePrefix) {
		return cookie
	}
	return cookiePrefix + cookie
}

// NormalizeProxies trims entries, drops blanks and removes duplicates while
// keeping the configured order.
func (a *Account) NormalizeProxies() {
	if a == nil {
		return
	}

	proxies := make([]string, 0, len(a.Proxies))
	seen := make(map[string]struct{}, len(a.Proxies))
	for _, raw := range a.Proxies {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		proxies = append(proxies, trimmed)
	}

	a.Proxies = proxies
}

func (a Account) Validate() error {
	for _, raw := range a.Proxies {
		if _, err := ParseProxyEndpoint(raw); err != nil {
			return fmt.Errorf("%s: %w", a.Label(), err)
		}
	}

	return nil
}
