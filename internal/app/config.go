package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/hive/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hive"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# hive configuration
# Run: hive --help

# Optional: override the SQLite database location.
# Can also be set via HIVE_DB_PATH or --db-path.
# db_path: ~/.config/hive/hive.db

# Dispatch and reclamation timings (seconds).
# stale_lock_threshold: 1800
# active_agent_window: 1800
# dispatch_poll_interval: 5
# dispatch_max_timeout: 180

# Health probing (seconds).
# probe_interval: 30
# probe_timeout: 10

# Project workspace root (docs/shared/instructions directories).
# projects_root: ./projects
`
