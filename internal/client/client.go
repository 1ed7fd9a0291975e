// Package client opens a local profile against the hub: configuration,
// identity, profile lock, local cache, hub connection and the chat session.
package client

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/matheus3301/letschat/internal/address"
	"github.com/matheus3301/letschat/internal/app"
	"github.com/matheus3301/letschat/internal/config"
	"github.com/matheus3301/letschat/internal/lock"
	"github.com/matheus3301/letschat/internal/logging"
	"github.com/matheus3301/letschat/internal/profile"
	"github.com/matheus3301/letschat/internal/remote"
	"github.com/matheus3301/letschat/internal/store"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNoIdentity is returned when the profile has never signed in.
var ErrNoIdentity = errors.New("profile has no identity, run 'lchatctl sign-in' first")

// Options selects the profile and how the process logs.
type Options struct {
	Profile   string // --profile flag, may be empty
	Component string // log file and logger name
	Console   bool
	AutoStart bool // start lchatd when the hub does not answer
}

// Client is an opened profile.
type Client struct {
	Profile  string
	Config   *config.Config
	Identity *config.Identity
	Session  *app.Session
	Logger   *zap.Logger

	remote *remote.Client
	cache  *store.DB
	lock   *lock.Lock
}

// Settings loads the dotenv file and config, then resolves and validates the
// profile name.
func Settings(flagProfile string) (*config.Config, string, error) {
	if err := config.LoadEnv(profile.EnvPath()); err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadOrDefault(profile.ConfigPath())
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv()
	name, err := profile.Resolve(flagProfile)
	if err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

// SocketPath returns the hub socket configured in cfg.
func SocketPath(cfg *config.Config) string {
	if cfg.HubSocket != "" {
		return cfg.HubSocket
	}
	return profile.HubSocketPath()
}

// Open prepares the profile and builds a session that has not signed in yet.
func Open(opts Options) (*Client, error) {
	cfg, name, err := Settings(opts.Profile)
	if err != nil {
		return nil, err
	}
	if err := profile.EnsureDir(name); err != nil {
		return nil, err
	}
	logger, err := logging.New(profile.LogPath(name, opts.Component), opts.Component, name, opts.Console)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	id, err := config.LoadIdentity(profile.IdentityPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}

	c := &Client{Profile: name, Config: cfg, Identity: id, Logger: logger}
	if c.lock, err = lock.Acquire(profile.Dir(name), opts.Component+":"+name); err != nil {
		return nil, err
	}
	if c.cache, _, err = store.OpenMigrated(profile.CachePath(name)); err != nil {
		_ = c.Close()
		return nil, err
	}

	socket := SocketPath(cfg)
	if opts.AutoStart {
		if err := EnsureHub(socket, logger); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	if c.remote, err = remote.Dial("unix://"+socket, id.UserID, logger.Named("remote")); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Session, err = app.New(app.Options{
		Store:          c.remote,
		Cache:          c.cache,
		Me:             address.Identity{ID: id.UserID, Name: id.DisplayName, Photo: id.Photo},
		Logger:         logger,
		TypingDebounce: cfg.Client.TypingDebounce(),
		BotDelay:       cfg.Client.BotReplyDelay(),
	})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Close releases everything Open acquired, in reverse order.
func (c *Client) Close() error {
	var err error
	if c.Session != nil {
		c.Session.Close()
	}
	if c.remote != nil {
		err = multierr.Append(err, c.remote.Close())
	}
	if c.cache != nil {
		err = multierr.Append(err, c.cache.Close())
	}
	if c.lock != nil {
		err = multierr.Append(err, c.lock.Release())
	}
	_ = c.Logger.Sync()
	return err
}
