package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/spf13/viper"
)

const envPrefix = "TERMINPLANER"

type SqliteConfig struct {
	Path  string `mapstructure:"path"`
	Debug bool   `mapstructure:"debug"`
}

type SurrealDBConfig struct {
	URL       string `mapstructure:"url"`
	Namespace string `mapstructure:"namespace"`
	Database  string `mapstructure:"database"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
}

type Config struct {
	RepositoryType string          `mapstructure:"repository_type"`
	Addr           string          `mapstructure:"addr"`
	LogLevel       string          `mapstructure:"log_level"`
	SeedSampleData bool            `mapstructure:"seed_sample_data"`
	SyncTimeout    time.Duration   `mapstructure:"sync_timeout"`
	Sqlite         SqliteConfig    `mapstructure:"sqlite"`
	SurrealDB      SurrealDBConfig `mapstructure:"surrealdb"`
}

// env lists the accepted variables per key. The prefixed name wins over the
// bare one.
var env = map[string][]string{
	"repository_type":     {"REPOSITORY_TYPE"},
	"addr":                {"ADDR"},
	"log_level":           {"LOG_LEVEL"},
	"seed_sample_data":    {"SEED_SAMPLE_DATA"},
	"sync_timeout":        {"SYNC_TIMEOUT"},
	"sqlite.path":         {"SQLITE_PATH"},
	"sqlite.debug":        {"SQLITE_DEBUG"},
	"surrealdb.url":       {"SURREALDB_URL"},
	"surrealdb.namespace": {"SURREALDB_NS"},
	"surrealdb.database":  {"SURREALDB_DB"},
	"surrealdb.username":  {"SURREALDB_USER"},
	"surrealdb.password":  {"SURREALDB_PASS"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("repository_type", "InMemory")
	v.SetDefault("addr", ":6060")
	v.SetDefault("log_level", "info")
	v.SetDefault("seed_sample_data", true)
	v.SetDefault("sync_timeout", 30*time.Second)
	v.SetDefault("sqlite.path", "appointments.db")
	v.SetDefault("sqlite.debug", false)
	v.SetDefault("surrealdb.url", "")
	v.SetDefault("surrealdb.namespace", "")
	v.SetDefault("surrealdb.database", "")
	v.SetDefault("surrealdb.username", "")
	v.SetDefault("surrealdb.password", "")
}

// Load reads .env when present, then layers defaults, the optional config
// file at path and the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	for key, names := range env {
		args := []string{key}
		for _, name := range names {
			args = append(args, envPrefix+"_"+name, name)
		}
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Level maps LogLevel onto gommon. Unknown names fall back to INFO.
func (c *Config) Level() log.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}
