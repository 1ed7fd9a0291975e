package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment overrides.
const (
	EnvHubSocket = "LETSCHAT_HUB_SOCKET"
	EnvProfile   = "LETSCHAT_PROFILE"
)

// Config represents the global ~/.letschat/config.toml.
type Config struct {
	DefaultProfile string  `toml:"default_profile"`
	HubSocket      string  `toml:"hub_socket"`
	HubListen      string  `toml:"hub_listen"`
	MetricsListen  string  `toml:"metrics_listen"`
	WriteRate      float64 `toml:"write_rate"`
	WriteBurst     int     `toml:"write_burst"`
	Client         Client  `toml:"client"`
}

// Client holds timings of the chat client.
type Client struct {
	TypingDebounceMS int `toml:"typing_debounce_ms"`
	BotReplyDelayMS  int `toml:"bot_reply_delay_ms"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	return &Config{
		DefaultProfile: "main",
		WriteRate:      50,
		WriteBurst:     100,
		Client: Client{
			TypingDebounceMS: 1000,
			BotReplyDelayMS:  700,
		},
	}
}

// TypingDebounce is how long a typing signal lives after the last keystroke.
func (c Client) TypingDebounce() time.Duration {
	return time.Duration(c.TypingDebounceMS) * time.Millisecond
}

// BotReplyDelay is the pause before the bot answers.
func (c Client) BotReplyDelay() time.Duration {
	return time.Duration(c.BotReplyDelayMS) * time.Millisecond
}

// Load reads config from the given path. Returns zero config and error if file missing.
// Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	return writeTOML(path, cfg)
}

// LoadEnv reads an optional dotenv file into the process environment.
// Variables already set win over the file.
func LoadEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvHubSocket); v != "" {
		c.HubSocket = v
	}
	if v := os.Getenv(EnvProfile); v != "" {
		c.DefaultProfile = v
	}
}

func writeTOML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(v)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
