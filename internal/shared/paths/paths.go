package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName names the per-user directories.
const AppName = "sketchbox"

// Files kept under the data directory
const (
	HistoryFile     = "history.db"
	CredentialsFile = "credentials.yaml"
)

// EnvDataDir overrides the data directory.
const EnvDataDir = "SKETCHBOX_HOME"

// DataDir returns the directory holding local history and credentials.
func DataDir() (string, error) {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Resolve places a relative file name under the data directory. Absolute
// paths and ":memory:" are returned unchanged.
func Resolve(name string) (string, error) {
	if name == ":memory:" || filepath.IsAbs(name) {
		return name, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// Ensure creates the parent directory of path with owner-only permissions.
func Ensure(path string) error {
	if path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return nil
}
