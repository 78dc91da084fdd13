package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrapf(err error) error {
	return fmt.Errorf("heartbeat: %w", err)
}

func TestAccountKeyPrecedence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, AccountID("cookie-1"), AccountKey(" cookie-1 ", "ident", 0))
	assert.Equal(t, AccountID("ident"), AccountKey("", "ident", 0))
	assert.Equal(t, AccountID("account_4"), AccountKey("", "", 4))
}

func TestAccountCookieHeaderAddsPrefixOnce(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "connect.sid=s%3Aabc", Account{Cookie: "s%3Aabc"}.CookieHeader())
	assert.Equal(t, "connect.sid=s%3Aabc", Account{Cookie: "connect.sid=s%3Aabc"}.CookieHeader())
	assert.Empty(t, Account{}.CookieHeader())
}

func TestAccountNormalizeProxiesDeduplicatesAndDropsEmpty(t *testing.T) {
	t.Parallel()

	account := Account{Proxies: []string{"http://a:1", "", "http://b:2", " http://a:1 ", "http://b:2"}}
	account.NormalizeProxies()

	assert.Equal(t, []string{"http://a:1", "http://b:2"}, account.Proxies)
}

func TestAccountValidateRejectsBadProxy(t *testing.T) {
	t.Parallel()

	account := Account{Index: 1, Proxies: []string{"gopher://x:70"}}
	err := account.Validate()
	require.ErrorIs(t, err, ErrUnsupportedProxyScheme)
	assert.Contains(t, err.Error(), "Account 2")
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	small, large := 101.5, 2_500_000.0
	assert.Equal(t, "-", FormatAmount(nil))
	assert.Equal(t, "101.5000", FormatAmount(&small))
	assert.Equal(t, "2.50M", FormatAmount(&large))
}
