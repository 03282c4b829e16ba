package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir picks where the subscription store lives when --data-dir is
// not given. PUSHSUB_DATA_DIR wins, then XDG_DATA_HOME, then the platform's
// conventional application data location, then ~/.pushsub.
func DefaultDataDir() string {
	if v := os.Getenv("PUSHSUB_DATA_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pushsub")
	}
	candidates := []struct{ probe, dir string }{
		{"/var/lib", "/var/lib/pushsub"},
		{filepath.Join(home, "Library"), filepath.Join(home, "Library", "Application Support", "pushsub")},
		{filepath.Join(home, "AppData"), filepath.Join(home, "AppData", "Local", "pushsub")},
	}
	for _, c := range candidates {
		if isDir(c.probe) {
			return c.dir
		}
	}
	return filepath.Join(home, ".pushsub")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
