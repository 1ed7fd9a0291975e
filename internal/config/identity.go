package config

import (
	"github.com/BurntSushi/toml"
)

// Identity is the per-profile identity.toml.
type Identity struct {
	UserID      string `toml:"user_id"`
	DisplayName string `toml:"display_name"`
	Photo       string `toml:"photo,omitempty"`
}

// LoadIdentity reads a profile identity.
func LoadIdentity(path string) (*Identity, error) {
	var id Identity
	if _, err := toml.DecodeFile(path, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// SaveIdentity writes a profile identity.
func SaveIdentity(path string, id *Identity) error {
	return writeTOML(path, id)
}
