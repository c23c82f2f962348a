package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/zipstream/database"
	zipstreamhttp "github.com/sagarc03/zipstream/http"
	"github.com/sagarc03/zipstream/process"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for zipstream.
type Config struct {
	Env      string                   `mapstructure:"env"`
	Server   ServerConfig             `mapstructure:"server"`
	Archive  ArchiveConfig            `mapstructure:"archive"`
	Stream   StreamConfig             `mapstructure:"stream"`
	Service  ServiceConfig            `mapstructure:"service"`
	Database database.Config          `mapstructure:"database"`
	Metrics  MetricsConfig            `mapstructure:"metrics"`
	CORS     zipstreamhttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig                `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
	// IndexFile replaces the embedded index page when set.
	IndexFile string `mapstructure:"index_file"`
}

// ArchiveConfig describes where archives live and how they are produced.
type ArchiveConfig struct {
	// Root is required by serve; history and prune only touch the database.
	Root    string   `mapstructure:"root"`
	Command []string `mapstructure:"command" validate:"min=1,dive,required"`
}

// StreamConfig controls how archiver output is relayed to clients.
type StreamConfig struct {
	ChunkSize    int           `mapstructure:"chunk_size" validate:"min=1"`
	Throttle     bool          `mapstructure:"throttle"`
	Delay        time.Duration `mapstructure:"delay" validate:"min=0"`
	Grace        time.Duration `mapstructure:"grace" validate:"min=0"`
	StallTimeout time.Duration `mapstructure:"stall_timeout" validate:"min=0"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	RecordTimeout time.Duration `mapstructure:"record_timeout" validate:"min=0"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// IsProduction reports whether production logging should be used.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":    "database.type",
	"db-dsn":     "database.dsn",
	"root":       "archive.root",
	"port":       "server.port",
	"index-file": "server.index_file",
	"throttle":   "stream.throttle",
	"log-level":  "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance. Every key
// gets a default so that AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.index_file", "")

	v.SetDefault("archive.root", "")
	v.SetDefault("archive.command", process.DefaultCommand)

	v.SetDefault("stream.chunk_size", 50_000)
	v.SetDefault("stream.throttle", false)
	v.SetDefault("stream.delay", time.Second)
	v.SetDefault("stream.grace", 2*time.Second)
	v.SetDefault("stream.stall_timeout", 60*time.Second)

	v.SetDefault("service.record_timeout", 5*time.Second)

	v.SetDefault("database.type", database.TypeNone)
	v.SetDefault("database.dsn", "zipstream.db")
	v.SetDefault("database.tables.downloads", "zipstream_downloads")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "HEAD", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{})
	v.SetDefault("cors.exposed_headers", []string{"Content-Disposition"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.enabled", true)
	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("ZIPSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
