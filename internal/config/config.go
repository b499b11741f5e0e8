// Package config loads the merged (file + env + defaults) kernel
// configuration, grounded on the alphie example's XDG-aware viper.Load
// pattern (internal/config/config.go) and the teacher's own
// config.LoadWithOverrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Placement is the default multiplexer placement for new jobs.
type Placement string

const (
	PlacementSession Placement = "session"
	PlacementWindow  Placement = "window"
)

// MergeStrategy selects how the merge train integrates a job branch.
type MergeStrategy string

const (
	MergeSquash MergeStrategy = "squash"
	MergeFFOnly MergeStrategy = "ff-only"
	MergeNoFF   MergeStrategy = "merge"
)

// WorktreeSetup configures post-create hooks for a spawned worktree.
type WorktreeSetup struct {
	CopyFiles    []string `mapstructure:"copy_files"`
	SymlinkDirs  []string `mapstructure:"symlink_dirs"`
	Commands     []string `mapstructure:"commands"`
}

// Config is the full recognized option set (spec.md §6).
type Config struct {
	DefaultPlacement        Placement     `mapstructure:"default_placement"`
	PollInterval            time.Duration `mapstructure:"poll_interval"`
	IdleThreshold           time.Duration `mapstructure:"idle_threshold"`
	WorktreeBasePath        string        `mapstructure:"worktree_base_path"`
	MaxParallel             int           `mapstructure:"max_parallel"`
	AutoCommit              bool          `mapstructure:"auto_commit"`
	TestCommand             string        `mapstructure:"test_command"`
	TestTimeout             time.Duration `mapstructure:"test_timeout"`
	MergeStrategy           MergeStrategy `mapstructure:"merge_strategy"`
	WorktreeSetup           WorktreeSetup `mapstructure:"worktree_setup"`
	PortRangeStart          int           `mapstructure:"port_range_start"`
	PortRangeEnd            int           `mapstructure:"port_range_end"`
	DefaultPermissionPolicy string        `mapstructure:"default_permission_policy"`
	DefaultModel            string        `mapstructure:"default_model"`
}

// minPollInterval is enforced unless MISSIONCTL_TEST_MODE is set (spec.md §6).
const minPollInterval = 10 * time.Second

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		DefaultPlacement:        PlacementSession,
		PollInterval:            10 * time.Second,
		IdleThreshold:           5 * time.Minute,
		WorktreeBasePath:        defaultWorktreeBasePath(),
		MaxParallel:             3,
		AutoCommit:              true,
		TestCommand:             "",
		TestTimeout:             10 * time.Minute,
		MergeStrategy:           MergeSquash,
		WorktreeSetup:           WorktreeSetup{},
		PortRangeStart:          14100,
		PortRangeEnd:            14199,
		DefaultPermissionPolicy: "prompt",
		DefaultModel:            "",
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("default_placement", string(d.DefaultPlacement))
	v.SetDefault("poll_interval", d.PollInterval.String())
	v.SetDefault("idle_threshold", d.IdleThreshold.String())
	v.SetDefault("worktree_base_path", d.WorktreeBasePath)
	v.SetDefault("max_parallel", d.MaxParallel)
	v.SetDefault("auto_commit", d.AutoCommit)
	v.SetDefault("test_command", d.TestCommand)
	v.SetDefault("test_timeout", d.TestTimeout.String())
	v.SetDefault("merge_strategy", string(d.MergeStrategy))
	v.SetDefault("port_range_start", d.PortRangeStart)
	v.SetDefault("port_range_end", d.PortRangeEnd)
	v.SetDefault("default_permission_policy", d.DefaultPermissionPolicy)
	v.SetDefault("default_model", d.DefaultModel)
}

// Load reads the merged configuration. Precedence, highest first:
// MISSIONCTL_* environment variables, a project-local .missionctl.yaml
// (found by walking up from the working directory), the user config (XDG),
// and built-in defaults at the bottom of the stack.
func Load() (*Config, error) {
	v := viper.New()
	d := Default()
	setDefaults(v, d)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir())
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if proj := findProjectConfig(); proj != "" {
		pv := viper.New()
		pv.SetConfigFile(proj)
		if err := pv.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(pv.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("MISSIONCTL")
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructureDurationHook)); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.PollInterval < minPollInterval && os.Getenv("MISSIONCTL_TEST_MODE") == "" {
		return fmt.Errorf("poll_interval must be >= %s", minPollInterval)
	}
	if cfg.PortRangeEnd < cfg.PortRangeStart {
		return fmt.Errorf("port_range_end must be >= port_range_start")
	}
	if cfg.MaxParallel < 1 {
		return fmt.Errorf("max_parallel must be >= 1")
	}
	return nil
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "missionctl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "missionctl")
	}
	return filepath.Join(home, ".config", "missionctl")
}

func defaultWorktreeBasePath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	return filepath.Join(dataHome, "missionctl", "worktrees")
}

func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(cwd, ".missionctl.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return ""
		}
		cwd = parent
	}
}

// DataDir returns the user-scoped data directory holding plan.json,
// jobs.json, port.lock, reports/, etc. (spec.md §6).
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "missionctl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "missionctl")
	}
	return filepath.Join(home, ".local", "share", "missionctl")
}
