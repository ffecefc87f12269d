// Package config loads settings from flags, environment, .env and
// config.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "TODO"
)

// Config keys.
const (
	KeyAPIURL        = "api_url"
	KeyCacheBackend  = "cache.backend"
	KeyCacheDir      = "cache.dir"
	KeySyncTimeout   = "sync.timeout"
	KeyReconcileIDs  = "sync.reconcile_ids"
	KeyPropagateBulk = "sync.propagate_bulk"
	KeyTheme         = "theme"
	KeyLogLevel      = "log.level"
	KeyLogFile       = "log.file"
)

// defaultConfigYAML is written on first run.
const defaultConfigYAML = `# todo configuration

# GraphQL endpoint. Leave empty to stay local; API_URL in the environment
# or a .env file also works.
# api_url: http://localhost:4000/graphql

cache:
  backend: file   # file | sqlite
  # dir: defaults to the config directory

sync:
  timeout: 10s
  reconcile_ids: true
  propagate_bulk: false

theme: classic    # classic | neon | mono

log:
  level: info
  # file: defaults to todo.log in the config directory
`

type Config struct {
	Dir    string
	APIURL string
	Cache  CacheConfig
	Sync   SyncConfig
	Theme  string
	Log    LogConfig
}

type CacheConfig struct {
	Backend string
	Dir     string
}

type SyncConfig struct {
	Timeout       time.Duration
	ReconcileIDs  bool
	PropagateBulk bool
}

type LogConfig struct {
	Level string
	File  string
}

// Remote reports whether an endpoint is configured.
func (c *Config) Remote() bool { return c.APIURL != "" }

// Load reads config.yaml from dir, creating dir and a default file on first
// run. flags may be nil; flags named api-url and theme override the file.
func Load(dir string, flags *pflag.FlagSet) (*Config, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(dir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(KeyCacheBackend, "file")
	v.SetDefault(KeySyncTimeout, 10*time.Second)
	v.SetDefault(KeyReconcileIDs, true)
	v.SetDefault(KeyPropagateBulk, false)
	v.SetDefault(KeyTheme, "classic")
	v.SetDefault(KeyLogLevel, "info")

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The endpoint has always come from API_URL.
	if err := v.BindEnv(KeyAPIURL, envPrefix+"_API_URL", "API_URL"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if flags != nil {
		for key, name := range map[string]string{KeyAPIURL: "api-url", KeyTheme: "theme"} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Dir:    dir,
		APIURL: strings.TrimSpace(v.GetString(KeyAPIURL)),
		Cache: CacheConfig{
			Backend: v.GetString(KeyCacheBackend),
			Dir:     v.GetString(KeyCacheDir),
		},
		Sync: SyncConfig{
			Timeout:       v.GetDuration(KeySyncTimeout),
			ReconcileIDs:  v.GetBool(KeyReconcileIDs),
			PropagateBulk: v.GetBool(KeyPropagateBulk),
		},
		Theme: v.GetString(KeyTheme),
		Log: LogConfig{
			Level: v.GetString(KeyLogLevel),
			File:  v.GetString(KeyLogFile),
		},
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = dir
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(dir, "todo.log")
	}
	return cfg, nil
}

// loadDotEnv reads .env from the working directory if there is one. Values
// already in the environment win.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func ensureDefaultConfigFile(dir string) error {
	path := filepath.Join(dir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
