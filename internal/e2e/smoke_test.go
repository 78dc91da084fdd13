package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	stdout, stderr, err := runDH(t, binaryPath, home,
		"accounts", "add",
		"--cookie", "s%3Asmoke-cookie",
		"--proxy", "socks5://10.0.0.1:1080",
	)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "saved Account 1")

	stdout, stderr, err = runDH(t, binaryPath, home, "accounts", "list")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Account 1")
	assert.Contains(t, stdout, "socks5://10.0.0.1:1080")
	assert.NotContains(t, stdout, "smoke-cookie")

	stdout, stderr, err = runDH(t, binaryPath, home, "identity", "show", "Account 1")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "user agent:")

	stdout, stderr, err = runDH(t, binaryPath, home, "status")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "accounts: 0")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "dh-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/dh")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build dh binary: %s", string(output))
	return binaryPath
}

func runDH(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
