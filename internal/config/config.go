// Package config loads the server configuration from a TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// DefaultPath is used when GRIDREALM_CONFIG is unset.
const DefaultPath = "config/server.toml"

type Config struct {
	Server  ServerConfig  `toml:"server"`
	World   WorldConfig   `toml:"world"`
	Session SessionConfig `toml:"session"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	SSHAddr string `toml:"ssh_addr"`
	WSAddr  string `toml:"ws_addr"` // empty disables the websocket listener
	HostKey string `toml:"host_key"`
}

type WorldConfig struct {
	MapsDir    string `toml:"maps_dir"`
	StartMap   string `toml:"start_map"`
	CellWidth  int    `toml:"cell_width"`
	CellHeight int    `toml:"cell_height"`
}

type SessionConfig struct {
	TickRate   int     `toml:"tick_rate"`   // ticks per second
	MoveRepeat float64 `toml:"move_repeat"` // seconds between held-key moves
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverJSON     = "json"
	DriverPostgres = "postgres"
)

type StorageConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
	Output string `toml:"output"` // file path; empty means stderr
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			SSHAddr: ":2222",
			WSAddr:  ":8080",
			HostKey: ".ssh/id_ed25519",
		},
		World: WorldConfig{
			MapsDir:    "assets/maps",
			StartMap:   "world",
			CellWidth:  10,
			CellHeight: 5,
		},
		Session: SessionConfig{
			TickRate:   20,
			MoveRepeat: 0.15,
		},
		Storage: StorageConfig{
			Driver: DriverJSON,
			Path:   "data/sessions.json",
			DSN:    "host=localhost user=gridrealm password=gridrealm dbname=gridrealm sslmode=disable",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the config file path, honoring GRIDREALM_CONFIG.
func Path() string {
	if p := os.Getenv("GRIDREALM_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.SSHAddr = ":" + port
	}
	if port := getenv("WS_PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("WS_PORT: %w", err)
		}
		c.Server.WSAddr = ":" + port
	}
	if v := getenv("DB_TYPE"); v != "" {
		c.Storage.Driver = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Storage.DSN = v
	}
	if v := getenv("DB_FILE"); v != "" {
		c.Storage.Path = v
	}
	return nil
}

// Validate checks the values the rest of the server relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.SSHAddr == "" {
		errs = append(errs, errors.New("server.ssh_addr is required"))
	}
	if c.World.MapsDir == "" {
		errs = append(errs, errors.New("world.maps_dir is required"))
	}
	if c.World.CellWidth <= 0 || c.World.CellHeight <= 0 {
		errs = append(errs, fmt.Errorf("world cell size must be positive, got %dx%d", c.World.CellWidth, c.World.CellHeight))
	}
	if c.Session.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("session.tick_rate must be positive, got %d", c.Session.TickRate))
	}
	if c.Session.MoveRepeat < 0 {
		errs = append(errs, fmt.Errorf("session.move_repeat must not be negative, got %g", c.Session.MoveRepeat))
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverJSON:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the json driver"))
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Logging.Format != "" && c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
