// Package paths provides a single source of truth for pop-upgrade file paths.
// All path helpers honor environment variable overrides for isolated testing.
//
// Path resolution precedence:
//  1. Specific env vars (POP_UPGRADE_SOCKET_PATH, POP_UPGRADE_LIB_DIR) take highest priority
//  2. POP_UPGRADE_DIR sets the base directory (derives socket/config/log)
//  3. Default behavior when no env vars are set
package paths

import (
	"os"
	"path/filepath"
)

// Environment variable names for path overrides.
const (
	// EnvDir is the base directory override (e.g., /tmp/pop-upgrade-e2e).
	// When set, the socket, config, and log paths derive from this directory.
	EnvDir = "POP_UPGRADE_DIR"

	// EnvSocketPath overrides the daemon socket path directly.
	EnvSocketPath = "POP_UPGRADE_SOCKET_PATH"

	// EnvLibDir overrides the daemon's state directory, where the
	// dismissal and install-date markers live.
	EnvLibDir = "POP_UPGRADE_LIB_DIR"
)

// Defaults for the system daemon.
const (
	DefaultSocketPath = "/run/pop-upgrade/daemon.sock"
	DefaultLibDir     = "/usr/lib/pop-upgrade"
)

// BaseDir returns the per-user client directory (~/.pop-upgrade by default).
// Honors POP_UPGRADE_DIR.
func BaseDir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pop-upgrade"), nil
}

// ConfigDir returns the config directory (~/.config/pop-upgrade by default).
// When POP_UPGRADE_DIR is set, returns POP_UPGRADE_DIR/config instead.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return filepath.Join(dir, "config"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pop-upgrade"), nil
}

// ConfigPath returns the path to the client config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the client log file path (~/.pop-upgrade/client.log by default).
func LogPath() string {
	base, err := BaseDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pop-upgrade-client.log")
	}
	return filepath.Join(base, "client.log")
}

// SocketPath returns the daemon socket path.
// Precedence: POP_UPGRADE_SOCKET_PATH > POP_UPGRADE_DIR/daemon.sock > /run/pop-upgrade/daemon.sock
func SocketPath() string {
	if path := os.Getenv(EnvSocketPath); path != "" {
		return path
	}
	if dir := os.Getenv(EnvDir); dir != "" {
		return filepath.Join(dir, "daemon.sock")
	}
	return DefaultSocketPath
}

// LibDir returns the daemon state directory.
func LibDir() string {
	if dir := os.Getenv(EnvLibDir); dir != "" {
		return dir
	}
	return DefaultLibDir
}

// DismissedPath returns the file recording the dismissed release version.
func DismissedPath() string {
	return filepath.Join(LibDir(), "dismissed")
}
