// Package config loads pseudofs settings from built-in defaults,
// an optional TOML file and PSEUDOFS_* environment variables,
// in that order. Later sources override earlier ones.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kjk/pseudofs/u"
)

const (
	AppName = "pseudofs"
	// EnvPrefix is the prefix of environment variables,
	// PSEUDOFS_LOG_DIR sets log.dir
	EnvPrefix = "PSEUDOFS_"
	// DefaultContainer is the container file used when none is configured
	DefaultContainer = "disk.filesystem"
)

type Log struct {
	Dir     string `koanf:"dir"`
	Verbose bool   `koanf:"verbose"`
}

// Remote describes where push / pull copy the container.
// Which fields matter depends on Kind.
type Remote struct {
	// "s3", "sftp", "http" or "" for none
	Kind string `koanf:"kind"`

	// s3
	Endpoint string `koanf:"endpoint"`
	Region   string `koanf:"region"`
	Bucket   string `koanf:"bucket"`
	Access   string `koanf:"access"`
	Secret   string `koanf:"secret"`
	Insecure bool   `koanf:"insecure"`
	// brotli-compress the uploaded container
	Compress bool `koanf:"compress"`

	// sftp
	Host       string `koanf:"host"`
	User       string `koanf:"user"`
	Key        string `koanf:"key"`
	Passphrase string `koanf:"passphrase"`

	// s3 object name or path of the file on the sftp server
	Path string `koanf:"path"`

	// http
	URL   string `koanf:"url"`
	Token string `koanf:"token"`
}

type Config struct {
	// path of the container file
	File   string `koanf:"file"`
	Log    Log    `koanf:"log"`
	Remote Remote `koanf:"remote"`
}

func defaults() map[string]any {
	return map[string]any{
		"file":        DefaultContainer,
		"log.dir":     filepath.Join(xdg.StateHome, AppName),
		"log.verbose": false,
		"remote.kind": "",
	}
}

// DefaultConfigPath returns the path of the config file used
// when no path is given explicitly
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}

// Load builds the configuration.
// If path is empty, DefaultConfigPath() is used if it exists.
// If path is given, it must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. config file
	if path == "" {
		if p := DefaultConfigPath(); u.FileExists(p) {
			path = p
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// 3. env vars
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if cfg.File == "" {
		return nil, fmt.Errorf("file must not be empty")
	}
	cfg.File = u.ExpandTildeInPath(cfg.File)
	cfg.Log.Dir = u.ExpandTildeInPath(cfg.Log.Dir)
	cfg.Remote.Key = u.ExpandTildeInPath(cfg.Remote.Key)
	return &cfg, nil
}
