// Package config loads server settings from flags, an optional YAML file and
// the environment.
//
// Sources are applied in increasing precedence: flag defaults, the YAML file,
// environment variables, then flags set explicitly on the command line.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Photo stores.
const (
	PhotoStoreDatabase = "database"
	PhotoStoreS3       = "s3"
)

const (
	minSecretLength = 32
	minBcryptCost   = 4
	maxBcryptCost   = 14
)

// Config holds every runtime setting.
type Config struct {
	Addr string `koanf:"addr"`

	DatabaseDriver string `koanf:"database-driver"`
	DatabasePath   string `koanf:"database-path"`
	DatabaseURL    string `koanf:"database-url"`

	JWTSecret  string `koanf:"jwt-secret"`
	JWTIssuer  string `koanf:"jwt-issuer"`
	JWTTTL     int    `koanf:"jwt-ttl"` // minutes
	BcryptCost int    `koanf:"bcrypt-cost"`
	Timezone   string `koanf:"timezone"`

	PhotoStore  string `koanf:"photo-store"`
	S3Bucket    string `koanf:"s3-bucket"`
	S3Region    string `koanf:"s3-region"`
	S3Endpoint  string `koanf:"s3-endpoint"`
	S3AccessKey string `koanf:"s3-access-key"`
	S3SecretKey string `koanf:"s3-secret-key"`

	RateLimitRPS   float64       `koanf:"rate-limit-rps"`
	RateLimitBurst float64       `koanf:"rate-limit-burst"`
	SweepInterval  time.Duration `koanf:"sweep-interval"`

	LogLevel string `koanf:"log-level"`
}

// envKeys maps supported environment variables to config keys.
var envKeys = map[string]string{
	"PORT":             "addr",
	"DATABASE_DRIVER":  "database-driver",
	"DATABASE_PATH":    "database-path",
	"DATABASE_URL":     "database-url",
	"JWT_SECRET":       "jwt-secret",
	"JWT_ISSUER":       "jwt-issuer",
	"JWT_TTL":          "jwt-ttl",
	"BCRYPT_COST":      "bcrypt-cost",
	"TIMEZONE":         "timezone",
	"PHOTO_STORE":      "photo-store",
	"S3_BUCKET":        "s3-bucket",
	"S3_REGION":        "s3-region",
	"S3_ENDPOINT":      "s3-endpoint",
	"S3_ACCESS_KEY":    "s3-access-key",
	"S3_SECRET_KEY":    "s3-secret-key",
	"RATE_LIMIT_RPS":   "rate-limit-rps",
	"RATE_LIMIT_BURST": "rate-limit-burst",
	"SWEEP_INTERVAL":   "sweep-interval",
	"LOG_LEVEL":        "log-level",
}

// RegisterFlags adds every setting, with its default, to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("addr", ":8080", "HTTP listen address")
	fs.String("database-driver", DriverSQLite, "database driver (sqlite|postgres)")
	fs.String("database-path", "skillmatch.db", "SQLite database file")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("jwt-secret", "", "HMAC secret for signing tokens (at least 32 characters)")
	fs.String("jwt-issuer", "skillmatch-auth", "issuer claim for signed tokens")
	fs.Int("jwt-ttl", 60, "token lifetime in minutes")
	fs.Int("bcrypt-cost", 12, "bcrypt cost factor (4-14)")
	fs.String("timezone", "UTC", "time zone for expiry timestamps")
	fs.String("photo-store", PhotoStoreDatabase, "where profile photos are kept (database|s3)")
	fs.String("s3-bucket", "", "S3 bucket for profile photos")
	fs.String("s3-region", "us-east-1", "S3 region")
	fs.String("s3-endpoint", "", "S3-compatible endpoint URL")
	fs.String("s3-access-key", "", "S3 access key")
	fs.String("s3-secret-key", "", "S3 secret key")
	fs.Float64("rate-limit-rps", 1, "login/register requests per second per client")
	fs.Float64("rate-limit-burst", 5, "login/register burst per client")
	fs.Duration("sweep-interval", 10*time.Minute, "how often expired denylist entries are purged")
	fs.String("log-level", "info", "log level (debug|info|warn|error)")
}

// Load reads configuration from path (if non-empty), the environment and fs.
// fs must have been populated by RegisterFlags.
func Load(fs *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func envValue(name, value string) (string, any) {
	key, ok := envKeys[name]
	if !ok || value == "" {
		return "", nil
	}
	if key == "addr" && !strings.Contains(value, ":") {
		value = ":" + value
	}
	return key, value
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.JWTSecret == "":
		errs = append(errs, errors.New("jwt-secret is required"))
	case len(c.JWTSecret) < minSecretLength:
		errs = append(errs, fmt.Errorf("jwt-secret must be at least %d characters for HMAC-SHA256 security", minSecretLength))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, fmt.Errorf("jwt-ttl must be positive, got %d", c.JWTTTL))
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > maxBcryptCost {
		errs = append(errs, fmt.Errorf("bcrypt-cost must be between %d and %d, got %d", minBcryptCost, maxBcryptCost, c.BcryptCost))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if err := c.ValidateDatabase(); err != nil {
		errs = append(errs, err)
	}

	switch c.PhotoStore {
	case PhotoStoreDatabase:
	case PhotoStoreS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("s3-bucket is required when photo-store is s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown photo-store %q", c.PhotoStore))
	}

	if c.RateLimitRPS <= 0 {
		errs = append(errs, errors.New("rate-limit-rps must be positive"))
	}
	if c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("rate-limit-burst must be at least 1"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("sweep-interval must be positive"))
	}

	return errors.Join(errs...)
}

// ValidateDatabase checks only the settings needed to open the database.
func (c *Config) ValidateDatabase() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return errors.New("database-path is required for sqlite")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database-url is required for postgres")
		}
	default:
		return fmt.Errorf("unknown database-driver %q", c.DatabaseDriver)
	}
	return nil
}

// TTL returns the token lifetime.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.JWTTTL) * time.Minute
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SlogLevel parses the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log-level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
