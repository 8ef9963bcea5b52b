// Package filex resolves and prepares the client's local data directory.
package filex

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "authdesk"

// DataDir returns the per-user data directory for authdesk.
// XDG_DATA_HOME is honoured, otherwise ~/.local/share is used.
func DataDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.Getenv("HOME")
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, appName)
}

// EnsureDir creates dir (and parents) readable only by the current user.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", oops.In("filex").With("dir", dir).Wrapf(err, "mkdir")
	}
	return dir, nil
}
