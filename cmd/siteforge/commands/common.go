// Package commands implements the siteforge subcommands.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/siteforge/internal/config"
)

// Global carries state shared by subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command line.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: siteforge.yaml when present)" env:"SITEFORGE_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging" env:"SITEFORGE_VERBOSE"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve   ServeCmd   `cmd:"" default:"withargs" help:"Build, serve and rebuild on change (default)"`
	Build   BuildCmd   `cmd:"" help:"Build the site once"`
	History HistoryCmd `cmd:"" help:"List recent builds from the history database"`
	Init    InitCmd    `cmd:"" help:"Write a starter siteforge.yaml and .siteforgeignore"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// loadConfig reads the config file, applies flag overrides and validates.
func (c *CLI) loadConfig(o config.Overrides) (*config.Config, error) {
	cfg, err := config.Load(c.Config, c.Config != "")
	if err != nil {
		return nil, err
	}
	cfg.Apply(o)
	warnings, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		slog.Warn("Config adjusted", slog.String("detail", w))
	}
	return cfg, nil
}

func logger(g *Global) *slog.Logger {
	if g != nil && g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
