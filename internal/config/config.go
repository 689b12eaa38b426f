// Package config loads siteforge settings from an optional siteforge.yaml,
// .env files and command line flags, and validates them before anything is
// built.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/ignore"
	"git.home.luguber.info/inful/siteforge/internal/site"
)

const (
	DefaultPort        = 3000
	DefaultMaxPort     = 3100
	DefaultNATSSubject = "siteforge.builds"
)

// Config is the merged view of file, environment and flag settings.
type Config struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output,omitempty"`

	Port    int `yaml:"port,omitempty"`
	MaxPort int `yaml:"max_port,omitempty"`

	Debounce     time.Duration `yaml:"debounce,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`

	DisableLiveReload bool `yaml:"disable_live_reload,omitempty"`
	DisableKeys       bool `yaml:"disable_keys,omitempty"`

	DocumentExtensions []string       `yaml:"document_extensions,omitempty"`
	Render             map[string]any `yaml:"render,omitempty"`

	MetricsAddr string     `yaml:"metrics_addr,omitempty"`
	HistoryDB   string     `yaml:"history_db,omitempty"`
	NATS        NATSConfig `yaml:"nats,omitempty"`
}

// NATSConfig enables build notifications when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Default returns a config with every default applied.
func Default() *Config {
	c := &Config{Input: "."}
	c.applyDefaults()
	return c
}

// Load reads path. A missing file yields the defaults unless required is set.
// ${VAR} references in the file are expanded from the environment.
func Load(path string, required bool) (*Config, error) {
	if path == "" {
		path = ignore.ConfigFileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return Default(), nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", path).
			Build()
	}
	c, err := Parse(data)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid config file").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return c, nil
}

// Parse decodes YAML config data, rejecting unknown keys.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Input == "" {
		c.Input = "."
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.MaxPort == 0 {
		c.MaxPort = DefaultMaxPort
	}
	if len(c.DocumentExtensions) == 0 {
		c.DocumentExtensions = append([]string(nil), site.DefaultDocumentExts...)
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = DefaultNATSSubject
	}
}

// Marshal renders c as YAML, for siteforge init.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}
