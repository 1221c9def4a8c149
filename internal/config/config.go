// Package config loads the server configuration.
//
// Sources are layered, later ones winning:
//
//	defaults → YAML file (optional) → ACCOUNT_* environment → command-line flags
//
// Environment keys drop the ACCOUNT_ prefix, are lower-cased and use a double
// underscore as the level separator: ACCOUNT_JWT__SECRET sets jwt.secret.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/sakif/account-auth/internal/logging"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "ACCOUNT_"

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// MinSecretLength is the shortest accepted JWT signing secret.
const MinSecretLength = 16

// Config is the full server configuration.
type Config struct {
	Env     string        `koanf:"env"`
	HTTP    HTTPConfig    `koanf:"http"`
	DB      DBConfig      `koanf:"db"`
	JWT     JWTConfig     `koanf:"jwt"`
	SMTP    SMTPConfig    `koanf:"smtp"`
	CORS    CORSConfig    `koanf:"cors"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type HTTPConfig struct {
	Port int `koanf:"port"`
}

type DBConfig struct {
	Path string `koanf:"path"`
}

type JWTConfig struct {
	Secret string `koanf:"secret"`
}

// SMTPConfig is optional. With no host, mail is written to the log instead.
type SMTPConfig struct {
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	Sender   string        `koanf:"sender"`
	Timeout  time.Duration `koanf:"timeout"`
}

type CORSConfig struct {
	Origins []string `koanf:"origins"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the configuration used when no source sets a key.
func Default() Config {
	return Config{
		Env:     EnvDevelopment,
		HTTP:    HTTPConfig{Port: 4000},
		DB:      DBConfig{Path: "data/accounts.db"},
		SMTP:    SMTPConfig{Port: 587, Timeout: 10 * time.Second},
		CORS:    CORSConfig{Origins: []string{"http://localhost:5173"}},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Production reports whether the server runs in production mode, which
// switches on secure cookies and JSON logs.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// Validate checks the loaded configuration. All problems are reported
// together.
func (c Config) Validate() error {
	var errs []error

	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port out of range: %d", c.HTTP.Port))
	}
	if c.DB.Path == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	if len(c.JWT.Secret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("jwt.secret must be at least %d characters", MinSecretLength))
	}
	if c.SMTP.Host != "" && c.SMTP.Sender == "" {
		errs = append(errs, errors.New("smtp.sender is required when smtp.host is set"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// RegisterFlags adds the command-line overrides to fs. Flag names match the
// koanf keys so posflag can map them directly.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "path to a YAML config file")
	fs.String("env", d.Env, "development or production")
	fs.Int("http.port", d.HTTP.Port, "HTTP listen port")
	fs.String("db.path", d.DB.Path, "SQLite database path")
	fs.String("log.level", d.Log.Level, "log level: debug, info, warn, error")
	fs.Bool("metrics.enabled", d.Metrics.Enabled, "serve Prometheus metrics on /metrics")
}

// Load builds the configuration from all sources. fs may be nil; when set,
// the file named by its --config flag is read first and a missing file is an
// error. The result is not validated.
func Load(fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if fs != nil {
		if path, _ := fs.GetString("config"); path != "" {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: reading environment: %w", err)
	}

	// Unchanged flags only fill keys no earlier source set.
	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("config: reading flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding: %w", err)
	}
	return cfg, nil
}

// envKey maps ACCOUNT_SMTP__HOST to smtp.host.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}
