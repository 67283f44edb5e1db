// Package config holds server settings loaded from an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Store kinds
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// configuration defaults are hardcoded here to make the demo apps easy to run
const (
	DefaultListen         = ":3000"
	DefaultMongoURI       = "mongodb://localhost:27017"
	DefaultConnectTimeout = 10 * time.Second
	DefaultOpTimeout      = 5 * time.Second
)

// Config is the top-level server configuration
type Config struct {
	Listen string `toml:"listen"`
	Store  string `toml:"store"`
	Mongo  Mongo  `toml:"mongo"`
}

// Mongo describes where documents live
type Mongo struct {
	URI            string        `toml:"uri"`
	Database       string        `toml:"database"`
	Collection     string        `toml:"collection"`
	UserCollection string        `toml:"user_collection"`
	ConnectTimeout time.Duration `toml:"connect_timeout"`
	OpTimeout      time.Duration `toml:"op_timeout"`
}

// Blog returns defaults for the blog server
func Blog() Config {
	return Config{
		Listen: DefaultListen,
		Store:  StoreMongo,
		Mongo: Mongo{
			URI:            DefaultMongoURI,
			Database:       "blog",
			Collection:     "blogs",
			UserCollection: "users",
			ConnectTimeout: DefaultConnectTimeout,
			OpTimeout:      DefaultOpTimeout,
		},
	}
}

// Users returns defaults for the users demo server
func Users() Config {
	cfg := Blog()
	cfg.Mongo.Database = "myapp"
	return cfg
}

// Load reads path on top of base. An empty path leaves base untouched.
func Load(path string, base Config) (Config, error) {
	cfg := base
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: %s does not exist: %w", path, err)
		}
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late at request time
func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("config: listen address is empty")
	}
	switch c.Store {
	case StoreMongo:
		if c.Mongo.URI == "" {
			return errors.New("config: mongo.uri is empty")
		}
		if c.Mongo.Database == "" || c.Mongo.Collection == "" || c.Mongo.UserCollection == "" {
			return errors.New("config: mongo database and collection names are required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	if c.Mongo.ConnectTimeout <= 0 || c.Mongo.OpTimeout <= 0 {
		return errors.New("config: timeouts must be positive")
	}
	return nil
}
