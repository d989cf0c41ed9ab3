package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys. Durations are in seconds.
type Settings struct {
	DBPath               string `yaml:"db_path"`
	StaleLockThreshold   int    `yaml:"stale_lock_threshold"`
	ActiveAgentWindow    int    `yaml:"active_agent_window"`
	DispatchPollInterval int    `yaml:"dispatch_poll_interval"`
	DispatchMaxTimeout   int    `yaml:"dispatch_max_timeout"`
	ProbeInterval        int    `yaml:"probe_interval"`
	ProbeTimeout         int    `yaml:"probe_timeout"`
	ProjectsRoot         string `yaml:"projects_root"`
}

// Timings are the effective runtime values used by the dispatcher, reaper,
// eligibility resolver and probe loop.
type Timings struct {
	StaleLockThreshold   time.Duration `json:"stale_lock_threshold"`
	ActiveAgentWindow    time.Duration `json:"active_agent_window"`
	DispatchPollInterval time.Duration `json:"dispatch_poll_interval"`
	DispatchMaxTimeout   time.Duration `json:"dispatch_max_timeout"`
	ProbeInterval        time.Duration `json:"probe_interval"`
	ProbeTimeout         time.Duration `json:"probe_timeout"`
}

const (
	defaultStaleLockThreshold   = 30 * time.Minute
	defaultActiveAgentWindow    = 30 * time.Minute
	defaultDispatchPollInterval = 5 * time.Second
	defaultDispatchMaxTimeout   = 180 * time.Second
	defaultProbeInterval        = 30 * time.Second
	defaultProbeTimeout         = 10 * time.Second
	defaultProjectsRoot         = "./projects"
)

// EffectiveTimings returns validated timing settings with defaults. Invalid
// or missing config values fall back to safe defaults.
func EffectiveTimings() Timings {
	t := Timings{
		StaleLockThreshold:   defaultStaleLockThreshold,
		ActiveAgentWindow:    defaultActiveAgentWindow,
		DispatchPollInterval: defaultDispatchPollInterval,
		DispatchMaxTimeout:   defaultDispatchMaxTimeout,
		ProbeInterval:        defaultProbeInterval,
		ProbeTimeout:         defaultProbeTimeout,
	}

	s, err := LoadSettings()
	if err != nil {
		return t
	}

	if s.StaleLockThreshold > 0 {
		t.StaleLockThreshold = time.Duration(s.StaleLockThreshold) * time.Second
	}
	if s.ActiveAgentWindow > 0 {
		t.ActiveAgentWindow = time.Duration(s.ActiveAgentWindow) * time.Second
	}
	if s.DispatchPollInterval > 0 {
		t.DispatchPollInterval = time.Duration(s.DispatchPollInterval) * time.Second
	}
	if s.DispatchMaxTimeout > 0 {
		t.DispatchMaxTimeout = time.Duration(s.DispatchMaxTimeout) * time.Second
	}
	if s.ProbeInterval > 0 {
		t.ProbeInterval = time.Duration(s.ProbeInterval) * time.Second
	}
	if s.ProbeTimeout > 0 {
		t.ProbeTimeout = time.Duration(s.ProbeTimeout) * time.Second
	}
	return t
}

// ProjectsRoot returns the directory under which project workspaces live.
func ProjectsRoot() string {
	if env := os.Getenv("HIVE_PROJECTS_ROOT"); env != "" {
		return env
	}
	if s, err := LoadSettings(); err == nil && s.ProjectsRoot != "" {
		return s.ProjectsRoot
	}
	return defaultProjectsRoot
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton for config.
// dbPathOverrideMu and dbPathOverride implement a mutex-protected process-wide override for CLI --db-path.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex override are intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	dbPathOverrideMu sync.RWMutex
	dbPathOverride   string
)

// SetDBPathOverride sets a process-wide database path override.
// Intended for CLI flag support (e.g. --db-path).
func SetDBPathOverride(path string) {
	dbPathOverrideMu.Lock()
	dbPathOverride = path
	dbPathOverrideMu.Unlock()
}

func getDBPathOverride() string {
	dbPathOverrideMu.RLock()
	v := dbPathOverride
	dbPathOverrideMu.RUnlock()
	return v
}

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/hive/config.yaml
// 2) /etc/hive/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// Environment variables are handled separately.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}

		paths := []string{
			filepath.Join(dir, "config.yaml"),
			filepath.Join(string(os.PathSeparator), "etc", "hive", "config.yaml"),
			"config.yaml",
		}
		for _, p := range paths {
			s, loadErr := loadSettingsFile(p)
			if loadErr == nil {
				settings = s
				return
			}
			if !errors.Is(loadErr, os.ErrNotExist) {
				settingsErr = loadErr
				return
			}
		}
	})

	return settings, settingsErr
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return s, nil
}

// GetDBPath resolves the database path.
// Order of precedence:
// 1) CLI override (--db-path)
// 2) Environment variable: HIVE_DB_PATH
// 3) config.yaml: db_path
// 4) Default: ~/.config/hive/hive.db
func GetDBPath() (string, error) {
	if override := getDBPathOverride(); override != "" {
		return EnsureDBDir(override)
	}

	if envPath := os.Getenv("HIVE_DB_PATH"); envPath != "" {
		return EnsureDBDir(envPath)
	}

	cfg, err := LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DBPath != "" {
		return EnsureDBDir(cfg.DBPath)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return EnsureDBDir(filepath.Join(configDir, "hive.db"))
}

// EnsureDBDir creates the parent directory for the database file.
func EnsureDBDir(dbPath string) (string, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return dbPath, nil
}
