package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/aledsdavies/webpipe/pkgs/parser"
)

const (
	defaultConfigFile = ".webpipe.yaml"
	envPrefix         = "WEBPIPE_"
)

// Config is the CLI configuration. Values are layered: built-in defaults,
// then the YAML config file, then WEBPIPE_ environment variables, with a
// double underscore separating nested keys (WEBPIPE_FORMAT__INDENT).
type Config struct {
	Format FormatConfig `koanf:"format"`
	Parse  ParseConfig  `koanf:"parse"`
	Log    LogConfig    `koanf:"log"`
}

type FormatConfig struct {
	Indent int `koanf:"indent"`
}

type ParseConfig struct {
	MaxDepth int `koanf:"max_depth"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
}

var defaults = map[string]interface{}{
	"format.indent":   2,
	"parse.max_depth": parser.DefaultMaxDepth,
	"log.level":       "warn",
	"log.format":      "text",
}

// loadConfig reads the configuration. An empty path means the default file,
// which may be absent; an explicit path must exist.
func loadConfig(path string) (*Config, error) {
	k := koanf.New(".")
	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return nil, err
		}
	}

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil || explicit {
		fk := koanf.New(".")
		if err := fk.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		if err := validateConfigFile(path, fk.Raw()); err != nil {
			return nil, err
		}
		if err := k.Merge(fk); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Format.Indent < 1 {
		return fmt.Errorf("format.indent must be at least 1, got %d", c.Format.Indent)
	}
	if c.Parse.MaxDepth < 1 {
		return fmt.Errorf("parse.max_depth must be at least 1, got %d", c.Parse.MaxDepth)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
