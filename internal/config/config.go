// Package config reads habitual's settings from an optional .env file and the
// environment. The values become kong defaults, so flags still win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/utils"
)

// FromKeyring as a DSN or AMQP URL means "read the value from the OS keyring".
const FromKeyring = "keyring"

type Config struct {
	DB         string
	Timezone   string
	ConfigDir  string
	Debug      bool
	RedisURL   string
	AMQPURL    string
	AMQPQueue  string
	ListenAddr string
}

// Load reads .env from the working directory when present. Variables already
// set in the environment are not overridden.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}

	configDir, err := utils.ExpandPath(getenv(constants.EnvConfigDir, constants.DefaultConfigDir))
	if err != nil {
		return Config{}, fmt.Errorf("failed to resolve config directory: %w", err)
	}

	return Config{
		DB:         getenv(constants.EnvDB, filepath.Join(configDir, constants.AppName+".db")),
		Timezone:   getenv(constants.EnvTimezone, constants.DefaultTimezone),
		ConfigDir:  configDir,
		Debug:      getenvBool(constants.EnvDebug, false),
		RedisURL:   getenv(constants.EnvRedisURL, ""),
		AMQPURL:    getenv(constants.EnvAMQPURL, ""),
		AMQPQueue:  getenv(constants.EnvAMQPQueue, constants.DefaultAMQPQueue),
		ListenAddr: getenv(constants.EnvListenAddr, constants.DefaultListenAddr),
	}, nil
}

// Vars exposes the configuration as kong interpolation variables.
func (c Config) Vars() map[string]string {
	return map[string]string{
		"version":     constants.Version,
		"db":          c.DB,
		"timezone":    c.Timezone,
		"config_dir":  c.ConfigDir,
		"debug":       strconv.FormatBool(c.Debug),
		"redis_url":   c.RedisURL,
		"amqp_url":    c.AMQPURL,
		"amqp_queue":  c.AMQPQueue,
		"listen_addr": c.ListenAddr,
	}
}

// SecretLookup reads a keyring entry; ok is false when none is stored.
type SecretLookup func(key string) (string, bool)

// ResolveDSN turns the --db value into the DSN handed to storage.New.
// HABITUAL_DB_CONNECTION takes precedence, then FromKeyring reads the stored
// connection string. A PostgreSQL URL given any other way must not embed a
// password.
func ResolveDSN(db string, lookup SecretLookup) (string, error) {
	if conn := os.Getenv(constants.EnvDBConnection); conn != "" {
		return conn, nil
	}
	if strings.EqualFold(db, FromKeyring) {
		conn, ok := lookup(constants.KeyringDBConnection)
		if !ok {
			return "", fmt.Errorf("no connection string in keyring: run 'habitual keyring set %s'", constants.KeyringDBConnection)
		}
		return conn, nil
	}
	if postgres.IsConnString(db) {
		if err := postgres.ValidateConnString(db); err != nil {
			return "", err
		}
		return db, nil
	}
	return utils.ExpandPath(db)
}

// ResolveAMQPURL returns "" when events are disabled.
func ResolveAMQPURL(url string, lookup SecretLookup) (string, error) {
	if !strings.EqualFold(url, FromKeyring) {
		return url, nil
	}
	stored, ok := lookup(constants.KeyringAMQPURL)
	if !ok {
		return "", fmt.Errorf("no AMQP url in keyring: run 'habitual keyring set %s'", constants.KeyringAMQPURL)
	}
	return stored, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
