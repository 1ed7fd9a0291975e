// Package profile locates the on-disk state of a local user profile and of
// the hub.
package profile

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/matheus3301/letschat/internal/config"
)

const DefaultName = "main"

// ErrInvalidName is returned for profile names that cannot be a directory
// under profiles/.
var ErrInvalidName = errors.New("invalid profile name")

var nameRegexp = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// Resolve determines the active profile name using precedence:
// 1. flagOverride (--profile flag)
// 2. $LETSCHAT_PROFILE
// 3. config.toml default_profile
// 4. "main"
//
// The winning name is checked; the error says where it came from.
func Resolve(flagOverride string) (string, error) {
	name, source := lookup(flagOverride)
	if !nameRegexp.MatchString(name) {
		return "", fmt.Errorf("%w %q from %s: must match ^[a-z0-9_-]{1,64}$", ErrInvalidName, name, source)
	}
	return name, nil
}

func lookup(flagOverride string) (name, source string) {
	if flagOverride != "" {
		return flagOverride, "--profile"
	}
	if env := os.Getenv(config.EnvProfile); env != "" {
		return env, "$" + config.EnvProfile
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultProfile != "" {
		return cfg.DefaultProfile, "default_profile in " + ConfigPath()
	}
	return DefaultName, "the default"
}
