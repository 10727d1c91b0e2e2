package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the application reads at startup. It is loaded
// once and handed to the modules that need it.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	DBDriver    string `mapstructure:"DB_DRIVER"`
	SqliteDB    string `mapstructure:"SQLITE_DB"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	SessionSecret string `mapstructure:"SESSION_SECRET"`
	SecureCookies bool   `mapstructure:"SECURE_COOKIES"`
	BcryptCost    int    `mapstructure:"BCRYPT_COST"`

	SiteURL    string `mapstructure:"SITE_URL"`
	AdminEmail string `mapstructure:"ADMIN_EMAIL"`
	FromEmail  string `mapstructure:"FROM_EMAIL"`
	TimeZone   string `mapstructure:"TIME_ZONE"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`

	CacheBackend   string        `mapstructure:"CACHE_BACKEND"`
	CacheDir       string        `mapstructure:"CACHE_DIR"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	DetailCacheTTL time.Duration `mapstructure:"DETAIL_CACHE_TTL"`

	MediaDir string `mapstructure:"MEDIA_DIR"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var keys = []string{
	"PORT", "GIN_MODE",
	"DB_DRIVER", "SQLITE_DB", "DATABASE_URL",
	"SESSION_SECRET", "SECURE_COOKIES", "BCRYPT_COST",
	"SITE_URL", "ADMIN_EMAIL", "FROM_EMAIL", "TIME_ZONE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD",
	"CACHE_BACKEND", "CACHE_DIR", "REDIS_URL", "DETAIL_CACHE_TTL",
	"MEDIA_DIR",
	"LOG_LEVEL", "LOG_FORMAT",
}

// Load reads an optional .env file, an optional config file and the process
// environment, in increasing order of precedence. An empty path looks for
// config.yml in the working directory.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("No .env file loaded: %v", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yml")
	}
	v.AutomaticEnv()

	setDefaults(v)
	for _, k := range keys {
		// Unmarshal only sees environment values for bound keys.
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
		log.Println("Config file not found; using environment variables and defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SiteURL = strings.TrimSuffix(cfg.SiteURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8000")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("SQLITE_DB", "travelblog.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SITE_URL", "http://localhost:8000")
	v.SetDefault("ADMIN_EMAIL", "admin@localhost")
	v.SetDefault("FROM_EMAIL", "webmaster@localhost")
	v.SetDefault("TIME_ZONE", "UTC")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("CACHE_BACKEND", "file")
	v.SetDefault("CACHE_DIR", "cache")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("DETAIL_CACHE_TTL", "2m")
	v.SetDefault("MEDIA_DIR", "media")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Validate checks cross-field constraints that defaults cannot express.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.SqliteDB == "" {
			return errors.New("SQLITE_DB must be set when DB_DRIVER=sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.CacheBackend {
	case "file", "redis", "none":
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.DetailCacheTTL < 0 {
		return errors.New("DETAIL_CACHE_TTL must not be negative")
	}

	if c.SessionSecret == "" && c.GinMode == "release" {
		return errors.New("SESSION_SECRET environment variable not set")
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}
	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Secret returns the session signing key. Outside release mode a fixed
// development key is used when none is configured.
func (c *Config) Secret() []byte {
	if c.SessionSecret == "" {
		return []byte("travelblog-development-secret")
	}
	return []byte(c.SessionSecret)
}
