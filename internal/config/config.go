// Package config loads relay server configuration.
//
// Values are layered, every next source overrides the previous one:
// built-in defaults, YAML file, .env file and RELAY_* environment variables,
// explicitly set command line flags.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"
)

// DefaultPort - the port the relay has always listened on.
const DefaultPort = 1234

// Config - relay server configuration.
type Config struct {
	// Host - bind the address, empty means all interfaces
	Host string `yaml:"host" env:"RELAY_HOST"`
	// Port - bind the port
	Port int `yaml:"port" env:"RELAY_PORT" validate:"gte=1,lte=65535"`
	// Echo - deliver lines back to their sender
	Echo bool `yaml:"echo" env:"RELAY_ECHO"`
	// History - num of recent lines replayed to newly joined peer
	History int `yaml:"history" env:"RELAY_HISTORY" validate:"gte=0,lte=1000"`
	// WriteTimeout - limit of a single line write, zero disables it
	WriteTimeout time.Duration `yaml:"write_timeout" env:"RELAY_WRITE_TIMEOUT" validate:"gte=0s"`
	// ShutdownTimeout - how long to wait for connections on stop
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"RELAY_SHUTDOWN_TIMEOUT" validate:"gt=0s"`
	// WebSocket - optional address of WebSocket endpoint, empty disables it
	WebSocket string `yaml:"websocket" env:"RELAY_WEBSOCKET" validate:"omitempty,hostname_port"`

	Log Log `yaml:"log"`
}

// Log - logging configuration.
type Log struct {
	Level  string `yaml:"level" env:"RELAY_LOG_LEVEL" validate:"oneof=trace debug info warn warning error"`
	Format string `yaml:"format" env:"RELAY_LOG_FORMAT" validate:"oneof=console json"`
}

// Default - returns configuration with built-in defaults.
func Default() Config {
	return Config{
		Port:            DefaultPort,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load - reads defaults, YAML file (if path is not empty), dotenv files (missing are skipped)
// and environment variables. The result is not validated yet.
func Load(path string, dotenv ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

var validate = validator.New()

// Validate - checks configuration values.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Address - returns listen address of TCP relay.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RegisterFlags - defines command line flags.
// Returned func copies values of the flags which were set explicitly into cfg,
// it must be called after flags are parsed.
func RegisterFlags(flags *flag.FlagSet) func(cfg *Config) {
	def := Default()
	f := def
	flags.StringVar(&f.Host, "ip", def.Host, "Listen address")
	flags.IntVar(&f.Port, "port", def.Port, "Listen port")
	flags.BoolVar(&f.Echo, "echo", def.Echo, "Deliver lines back to their sender")
	flags.IntVar(&f.History, "history", def.History, "Num of recent lines replayed to newly joined peer")
	flags.DurationVar(&f.WriteTimeout, "write-timeout", def.WriteTimeout, "Limit of a single line write, 0 disables it")
	flags.DurationVar(&f.ShutdownTimeout, "shutdown-timeout", def.ShutdownTimeout, "How long to wait for connections on stop")
	flags.StringVar(&f.WebSocket, "ws", def.WebSocket, "Address of WebSocket endpoint, e.g. :8080 (disabled when empty)")
	flags.StringVar(&f.Log.Level, "log-level", def.Log.Level, "Log level: trace, debug, info, warn, error")
	flags.StringVar(&f.Log.Format, "log-format", def.Log.Format, "Log format: console or json")

	return func(cfg *Config) {
		flags.Visit(func(fl *flag.Flag) {
			switch fl.Name {
			case "ip":
				cfg.Host = f.Host
			case "port":
				cfg.Port = f.Port
			case "echo":
				cfg.Echo = f.Echo
			case "history":
				cfg.History = f.History
			case "write-timeout":
				cfg.WriteTimeout = f.WriteTimeout
			case "shutdown-timeout":
				cfg.ShutdownTimeout = f.ShutdownTimeout
			case "ws":
				cfg.WebSocket = f.WebSocket
			case "log-level":
				cfg.Log.Level = f.Log.Level
			case "log-format":
				cfg.Log.Format = f.Log.Format
			}
		})
	}
}
