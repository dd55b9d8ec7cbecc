package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all service configuration, read from the environment and an
// optional config file. Environment variables win.
type Config struct {
	Port           string
	DBDriver       string
	DatabaseDSN    string
	RedisAddr      string
	RedisPassword  string
	MongoURI       string
	MongoDB        string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	SessionTTL     time.Duration
	CookieSecure   bool
	BcryptCost     int
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
}

var defaults = map[string]any{
	"PORT":             "8080",
	"DB_DRIVER":        "postgres",
	"DATABASE_DSN":     "",
	"REDIS_ADDR":       "redis:6379",
	"REDIS_PASSWORD":   "",
	"MONGO_URI":        "",
	"MONGO_DB":         "animanga",
	"MINIO_ENDPOINT":   "minio:9000",
	"MINIO_ACCESS_KEY": "",
	"MINIO_SECRET_KEY": "",
	"MINIO_BUCKET":     "covers",
	"MINIO_USE_SSL":    false,
	"SESSION_TTL":      "24h",
	"COOKIE_SECURE":    true,
	"BCRYPT_COST":      bcrypt.DefaultCost,
	"LOG_LEVEL":        "info",
	"LOG_FORMAT":       "text",
	"ALLOWED_ORIGINS":  "http://localhost:5173,http://localhost:3000",
}

// Load reads the configuration. path names an optional config file (yaml,
// json or toml); keys in it use the same names as the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:           v.GetString("PORT"),
		DBDriver:       strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		MongoURI:       v.GetString("MONGO_URI"),
		MongoDB:        v.GetString("MONGO_DB"),
		MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:    v.GetString("MINIO_BUCKET"),
		MinioUseSSL:    v.GetBool("MINIO_USE_SSL"),
		SessionTTL:     v.GetDuration("SESSION_TTL"),
		CookieSecure:   v.GetBool("COOKIE_SECURE"),
		BcryptCost:     v.GetInt("BCRYPT_COST"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER %q: want postgres, mysql or sqlite", c.DBDriver)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST %d out of range [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
