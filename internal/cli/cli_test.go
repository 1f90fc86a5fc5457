package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"washsync-backend/internal/auth"
)

const cliSecret = "cli-test-secret"

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
database:
  driver: sqlite
  dsn: %q
auth:
  jwt_secret: %s
  token_ttl_hours: 1
worker_pool:
  size: 1
`, filepath.Join(dir, "laundry.db"), cliSecret)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "branch", "create", "--name", "North Hall", "--location", "Campus North", "--code", "nb")
	require.NoError(t, err)
	assert.Equal(t, "created branch 1 NB (North Hall)\n", out)

	out, err = run(t, cfg, "user", "create", "--name", "Root", "--email", "Root@Example.com", "--admin", "--branch", "1")
	require.NoError(t, err)
	assert.Equal(t, "created admin 1 <root@example.com>\n", out)

	out, err = run(t, cfg, "token", "issue", "--user", "1")
	require.NoError(t, err)
	userID, err := auth.ParseToken(cliSecret, strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, int64(1), userID)

	out, err = run(t, cfg, "sweep")
	require.NoError(t, err)
	assert.Equal(t, "expired 0, skipped 0, failed 0\n", out)
}

func TestCommandErrors(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "branch", "create", "--name", "X", "--location", "Y", "--code", "!")
	assert.Error(t, err)

	_, err = run(t, cfg, "user", "create", "--name", "Bob", "--email", "bob@example.com", "--branch", "7")
	assert.Error(t, err)

	_, err = run(t, cfg, "token", "issue", "--user", "42")
	assert.Error(t, err)

	_, err = run(t, filepath.Join(t.TempDir(), "missing.yaml"), "sweep")
	assert.Error(t, err)
}
