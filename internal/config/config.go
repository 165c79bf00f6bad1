package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Log struct {
		Level string
	}
	Database struct {
		Driver string
		Path   string
		URI    string
		Name   string
	}
	Auth struct {
		JWTSecret       string
		SessionTTLHours int
		BcryptCost      int
	}
	Mail struct {
		Host      string
		Port      int
		Username  string
		Password  string
		From      string
		BaseURL   string
		Workers   int
		QueueSize int
	}
	Archive struct {
		Bucket   string
		Prefix   string
		Region   string
		Endpoint string
	}
}

// Load reads configuration from .env, environment variables (BLOG_ prefix)
// and an optional config file in the working directory.
func Load() (Config, error) {
	// a missing .env is fine; real env vars win over it
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/blog.db")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "blog")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.sessionttlhours", 30*24)
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.baseurl", "http://localhost:3000")
	v.SetDefault("mail.workers", 2)
	v.SetDefault("mail.queuesize", 64)
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "deleted-blogs")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.endpoint", "")
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth jwt secret is required (BLOG_AUTH_JWTSECRET)")
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("database path is required for the sqlite driver")
		}
	case DriverMongo:
		if strings.TrimSpace(c.Database.URI) == "" || strings.TrimSpace(c.Database.Name) == "" {
			return errors.New("database uri and name are required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	return nil
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Auth.SessionTTLHours) * time.Hour
}
