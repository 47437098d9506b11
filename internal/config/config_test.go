package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/taskgraph/internal/idgen"
)

func TestLoadRequiresDataRoot(t *testing.T) {
	t.Setenv("TG_DATA_ROOT", "")
	_, err := Load(New())
	assert.ErrorIs(t, err, ErrNoDataRoot)
}

func TestDefaults(t *testing.T) {
	root := t.TempDir()
	t.Setenv("TG_DATA_ROOT", root)
	t.Setenv("USER", "tester")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, root, cfg.DataRoot)
	assert.Equal(t, "tester", cfg.Actor)
	assert.Equal(t, 30*time.Second, cfg.LockTimeout)
	assert.Equal(t, 5*time.Second, cfg.ClaimLockTimeout)
	assert.Equal(t, 6, cfg.ID.HashLength)
	assert.Equal(t, 0, cfg.Metrics.OutDegreeThreshold)
	assert.Equal(t, filepath.Join(root, MetaDir, "workspaces"), cfg.Workspace.Root)
	assert.False(t, cfg.JSON)
}

func TestEnvironmentBinding(t *testing.T) {
	tests := []struct {
		env   string
		value string
		check func(t *testing.T, cfg *Config)
	}{
		{"TG_ACTOR", "agent-7", func(t *testing.T, cfg *Config) { assert.Equal(t, "agent-7", cfg.Actor) }},
		{"TG_JSON", "true", func(t *testing.T, cfg *Config) { assert.True(t, cfg.JSON) }},
		{"TG_LOCK_TIMEOUT", "2s", func(t *testing.T, cfg *Config) { assert.Equal(t, 2*time.Second, cfg.LockTimeout) }},
		{"TG_CLAIM_LOCK_TIMEOUT", "750ms", func(t *testing.T, cfg *Config) { assert.Equal(t, 750*time.Millisecond, cfg.ClaimLockTimeout) }},
		{"TG_WORKSPACE_REPO", "/src/repo", func(t *testing.T, cfg *Config) { assert.Equal(t, "/src/repo", cfg.Workspace.Repo) }},
		{"TG_METRICS_OUT_DEGREE_THRESHOLD", "3", func(t *testing.T, cfg *Config) { assert.Equal(t, 3, cfg.Metrics.OutDegreeThreshold) }},
		{"TG_ID_HASH_LENGTH", "8", func(t *testing.T, cfg *Config) { assert.Equal(t, 8, cfg.ID.HashLength) }},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("TG_DATA_ROOT", t.TempDir())
			t.Setenv(tt.env, tt.value)
			cfg, err := Load(New())
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, MetaDir), 0o755))
	yaml := "actor: from-file\nlock-timeout: 10s\nworkspace:\n  root: /tmp/ws\nmetrics:\n  out-degree-threshold: 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, MetaDir, ConfigFileName), []byte(yaml), 0o644))

	t.Setenv("TG_DATA_ROOT", root)
	t.Setenv("TG_LOCK_TIMEOUT", "")
	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Actor)
	assert.Equal(t, 10*time.Second, cfg.LockTimeout)
	assert.Equal(t, "/tmp/ws", cfg.Workspace.Root)
	assert.Equal(t, 2, cfg.Metrics.OutDegreeThreshold)

	t.Setenv("TG_ACTOR", "from-env")
	cfg, err = Load(New())
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Actor, "environment overrides file")
}

func TestValidation(t *testing.T) {
	t.Setenv("TG_DATA_ROOT", t.TempDir())
	t.Setenv("TG_ID_HASH_LENGTH", "20")
	_, err := Load(New())
	assert.ErrorContains(t, err, "id.hash-length")
}

func TestHashLengthBounds(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"2", false},
		{"3", true},
		{"8", true},
		{"9", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TG_DATA_ROOT", t.TempDir())
			t.Setenv("TG_ID_HASH_LENGTH", tt.value)
			cfg, err := Load(New())
			if !tt.ok {
				assert.ErrorContains(t, err, "id.hash-length")
				return
			}
			require.NoError(t, err)
			id := idgen.GenerateTaskID("x", "", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), cfg.ID.HashLength, 0)
			assert.Len(t, id, len("20260105-")+cfg.ID.HashLength)
		})
	}
}
