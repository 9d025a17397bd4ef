// Package config loads the application configuration from an optional
// config file and BLOG_* environment variables.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"inkwell/constants"
)

type Config struct {
	Debug bool   `mapstructure:"debug"`
	Addr  string `mapstructure:"addr"`

	Site struct {
		Name      string `mapstructure:"name"`
		PublicURL string `mapstructure:"public_url"`
	} `mapstructure:"site"`

	Database struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	Session struct {
		Secret          string        `mapstructure:"secret"`
		PreviousSecrets []string      `mapstructure:"previous_secrets"`
		Backend         string        `mapstructure:"backend"`
		CookieName      string        `mapstructure:"cookie_name"`
		SecureCookie    bool          `mapstructure:"secure_cookie"`
		TTL             time.Duration `mapstructure:"ttl"`
	} `mapstructure:"session"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Auth struct {
		PBKDF2Iterations int      `mapstructure:"pbkdf2_iterations"`
		FirstUserAdmin   bool     `mapstructure:"first_user_admin"`
		AdminEmails      []string `mapstructure:"admin_emails"`
	} `mapstructure:"auth"`

	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`

	RateLimit struct {
		RequestsPerMinute int `mapstructure:"requests_per_minute"`
	} `mapstructure:"rate_limit"`

	Avatar struct {
		Size    int    `mapstructure:"size"`
		Default string `mapstructure:"default"`
	} `mapstructure:"avatar"`
}

const (
	SessionBackendDatabase = "database"
	SessionBackendRedis    = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("addr", ":6835")
	v.SetDefault("site.name", constants.APP_NAME)
	v.SetDefault("site.public_url", constants.PUBLIC_URL)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "blog.db?_foreign_keys=on")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.previous_secrets", []string{})
	v.SetDefault("session.backend", SessionBackendDatabase)
	v.SetDefault("session.cookie_name", "inkwell_session")
	v.SetDefault("session.secure_cookie", false)
	v.SetDefault("session.ttl", time.Duration(0))
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.pbkdf2_iterations", 600000)
	v.SetDefault("auth.first_user_admin", true)
	v.SetDefault("auth.admin_emails", []string{})
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("rate_limit.requests_per_minute", 100)
	v.SetDefault("avatar.size", 100)
	v.SetDefault("avatar.default", "retro")
}

// Load reads the configuration. When path is empty, config.yaml in the
// working directory is used if it exists.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}

	// comma separated lists coming from the environment arrive as one element
	cfg.Auth.AdminEmails = splitList(cfg.Auth.AdminEmails)
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)
	cfg.Session.PreviousSecrets = splitList(cfg.Session.PreviousSecrets)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return errors.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	switch c.Session.Backend {
	case SessionBackendDatabase, SessionBackendRedis:
	default:
		return errors.Errorf("unsupported session.backend %q", c.Session.Backend)
	}

	if c.Auth.PBKDF2Iterations <= 0 {
		return errors.New("auth.pbkdf2_iterations must be positive")
	}
	return nil
}

// EnsureSessionSecret fails when no session secret is configured. In debug
// mode a random secret is generated instead.
func (c *Config) EnsureSessionSecret() error {
	if c.Session.Secret != "" {
		return nil
	}
	if !c.Debug {
		return errors.New("session.secret must be set (BLOG_SESSION_SECRET)")
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return errors.Wrap(err, "generate session secret")
	}
	c.Session.Secret = hex.EncodeToString(buf)
	log.Printf("session.secret not set, using a random secret; sessions will not survive a restart")
	return nil
}

// IsAdminEmail reports whether email is listed in auth.admin_emails.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.Auth.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
