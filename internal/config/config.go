// Package config resolves taskgraph settings from flags, TG_* environment
// variables and an optional <data-root>/.taskgraph/config.yaml, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/steveyegge/taskgraph/internal/idgen"
)

// ErrNoDataRoot is returned when neither --data-root nor TG_DATA_ROOT is set.
var ErrNoDataRoot = errors.New("data root not configured (set TG_DATA_ROOT or --data-root)")

const (
	EnvPrefix      = "TG"
	MetaDir        = ".taskgraph"
	ConfigFileName = "config.yaml"
)

// Config is the resolved configuration.
type Config struct {
	DataRoot         string          `mapstructure:"data-root"`
	Actor            string          `mapstructure:"actor"`
	JSON             bool            `mapstructure:"json"`
	LockTimeout      time.Duration   `mapstructure:"lock-timeout"`
	ClaimLockTimeout time.Duration   `mapstructure:"claim-lock-timeout"`
	Workspace        WorkspaceConfig `mapstructure:"workspace"`
	Metrics          MetricsConfig   `mapstructure:"metrics"`
	ID               IDConfig        `mapstructure:"id"`
}

type WorkspaceConfig struct {
	// Root holds per-task workspaces. Defaults to <data-root>/.taskgraph/workspaces.
	Root string `mapstructure:"root"`
	// Repo, when set, is a git repository; workspaces become worktrees of it.
	Repo string `mapstructure:"repo"`
}

type MetricsConfig struct {
	OutDegreeThreshold int `mapstructure:"out-degree-threshold"`
}

type IDConfig struct {
	HashLength int `mapstructure:"hash-length"`
}

// New returns a viper instance with defaults and environment binding set
// up. Callers bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data-root", "")
	v.SetDefault("actor", "")
	v.SetDefault("json", false)
	v.SetDefault("lock-timeout", 30*time.Second)
	v.SetDefault("claim-lock-timeout", 5*time.Second)
	v.SetDefault("workspace.root", "")
	v.SetDefault("workspace.repo", "")
	v.SetDefault("metrics.out-degree-threshold", 0)
	v.SetDefault("id.hash-length", 6)
	return v
}

// Load resolves the data root, merges the optional config file under it and
// decodes everything into a Config.
func Load(v *viper.Viper) (*Config, error) {
	root := strings.TrimSpace(v.GetString("data-root"))
	if root == "" {
		return nil, ErrNoDataRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving data root: %w", err)
	}

	path := filepath.Join(abs, MetaDir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DataRoot = abs
	if cfg.Actor == "" {
		cfg.Actor = os.Getenv("USER")
	}
	if cfg.Workspace.Root == "" {
		cfg.Workspace.Root = filepath.Join(abs, MetaDir, "workspaces")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.LockTimeout <= 0:
		return fmt.Errorf("lock-timeout must be positive, got %s", c.LockTimeout)
	case c.ClaimLockTimeout <= 0:
		return fmt.Errorf("claim-lock-timeout must be positive, got %s", c.ClaimLockTimeout)
	case c.ID.HashLength < idgen.MinLength || c.ID.HashLength > idgen.MaxLength:
		return fmt.Errorf("id.hash-length must be between %d and %d, got %d", idgen.MinLength, idgen.MaxLength, c.ID.HashLength)
	case c.Metrics.OutDegreeThreshold < 0:
		return fmt.Errorf("metrics.out-degree-threshold must not be negative")
	}
	return nil
}
