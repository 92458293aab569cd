package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. EARNCLOCK_STORAGE_PATH.
const EnvPrefix = "EARNCLOCK"

// Config holds the complete application configuration
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Timer     TimerConfig     `mapstructure:"timer"`
	User      UserConfig      `mapstructure:"user"`
}

// StorageConfig defines where the SQLite database lives
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig defines the HTTP API listener
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// CalendarConfig defines how days and weeks are cut for summaries
type CalendarConfig struct {
	Timezone  string `mapstructure:"timezone"`
	WeekStart string `mapstructure:"week_start"`
}

// SessionsConfig defines the abandoned-session policy
type SessionsConfig struct {
	MaxDuration   time.Duration `mapstructure:"max_duration"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// BroadcastConfig selects the change-notification bus
type BroadcastConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines the Redis Pub/Sub connection
type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

// CacheConfig sizes the summary cache
type CacheConfig struct {
	SummarySize int `mapstructure:"summary_size"`
}

// TimerConfig defines the live projection cadence
type TimerConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// UserConfig defines the identity used by the CLI
type UserConfig struct {
	Default string `mapstructure:"default"`
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Load loads configuration from defaults, an optional file, environment
// variables and, when flags is non-nil, command-line flags. An empty
// configPath skips the file.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Config file not found, use defaults and environment variables
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":        "storage.path",
	"user":      "user.default",
	"log-level": "logging.level",
	"listen":    "server.listen_addr",
	"timezone":  "calendar.timezone",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// DefaultStoragePath is ~/.earnclock/earnclock.db.
func DefaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "earnclock.db"
	}
	return filepath.Join(home, ".earnclock", "earnclock.db")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.path", DefaultStoragePath())

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("server.listen_addr", "127.0.0.1:8420")

	v.SetDefault("calendar.timezone", "Local")
	v.SetDefault("calendar.week_start", "monday")

	v.SetDefault("sessions.max_duration", "12h")
	v.SetDefault("sessions.sweep_interval", "0s")

	v.SetDefault("broadcast.backend", BackendMemory)
	v.SetDefault("broadcast.redis.addr", "127.0.0.1:6379")
	v.SetDefault("broadcast.redis.password", "")
	v.SetDefault("broadcast.redis.db", 0)
	v.SetDefault("broadcast.redis.channel_prefix", "earnclock")

	v.SetDefault("cache.summary_size", 256)

	v.SetDefault("timer.tick_interval", "1s")

	v.SetDefault("user.default", defaultUser())
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "default"
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}
	if cfg.Storage.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %q", cfg.Logging.Format)
	}

	if _, err := cfg.Calendar.Location(); err != nil {
		return err
	}
	if _, err := cfg.Calendar.Weekday(); err != nil {
		return err
	}

	if cfg.Sessions.MaxDuration < 0 {
		return fmt.Errorf("sessions.max_duration must not be negative")
	}
	if cfg.Sessions.SweepInterval < 0 {
		return fmt.Errorf("sessions.sweep_interval must not be negative")
	}
	if cfg.Sessions.SweepInterval > 0 && cfg.Sessions.MaxDuration == 0 {
		return fmt.Errorf("sessions.sweep_interval requires sessions.max_duration")
	}

	switch cfg.Broadcast.Backend {
	case BackendMemory:
	case BackendRedis:
		if cfg.Broadcast.Redis.Addr == "" {
			return fmt.Errorf("broadcast.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid broadcast backend: %q", cfg.Broadcast.Backend)
	}

	if cfg.Cache.SummarySize <= 0 {
		return fmt.Errorf("cache.summary_size must be positive")
	}
	if cfg.Timer.TickInterval <= 0 {
		return fmt.Errorf("timer.tick_interval must be positive")
	}
	if cfg.User.Default == "" {
		return fmt.Errorf("user.default is required")
	}
	return nil
}

// Location resolves the configured timezone.
func (c CalendarConfig) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// Weekday resolves the configured first day of the week.
func (c CalendarConfig) Weekday() (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(c.WeekStart))
	if d, ok := weekdays[name]; ok {
		return d, nil
	}
	for full, d := range weekdays {
		if len(name) == 3 && strings.HasPrefix(full, name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid calendar.week_start %q", c.WeekStart)
}
