package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.letschat, or $LETSCHAT_HOME when set.
func BaseDir() string {
	if dir := os.Getenv("LETSCHAT_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".letschat")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// IdentityPath returns the identity file of a profile.
func IdentityPath(name string) string {
	return filepath.Join(Dir(name), "identity.toml")
}

// CachePath returns the local cache database of a profile.
func CachePath(name string) string {
	return filepath.Join(Dir(name), "local.db")
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the log file a client component writes to.
func LogPath(name, component string) string {
	return filepath.Join(LogDir(name), component+".log")
}

// HubDir returns the hub data directory.
func HubDir() string {
	return filepath.Join(BaseDir(), "hub")
}

// HubSocketPath returns the default UDS socket path of the hub.
func HubSocketPath() string {
	return filepath.Join(HubDir(), "hub.sock")
}

// HubDBPath returns the hub's journal database.
func HubDBPath() string {
	return filepath.Join(HubDir(), "tree.db")
}

// HubLogPath returns the hub log file path.
func HubLogPath() string {
	return filepath.Join(HubDir(), "logs", "lchatd.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnvPath returns the optional dotenv file.
func EnvPath() string {
	return filepath.Join(BaseDir(), ".env")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}

// EnsureHubDir creates the hub directory tree.
func EnsureHubDir() error {
	return os.MkdirAll(filepath.Join(HubDir(), "logs"), 0700)
}
