package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/siteforge/internal/config"
	"git.home.luguber.info/inful/siteforge/internal/eventstore"
	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/logfields"
	"git.home.luguber.info/inful/siteforge/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Input     string `short:"i" name:"input" help:"Input directory (default .)" env:"SITEFORGE_INPUT"`
	Output    string `short:"o" name:"output" help:"Output directory" env:"SITEFORGE_OUTPUT"`
	HistoryDB string `name:"history-db" help:"Record the build in this SQLite database" env:"SITEFORGE_HISTORY_DB"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(config.Overrides{Input: b.Input, Output: b.Output, HistoryDB: b.HistoryDB})
	if err != nil {
		return err
	}
	if cfg.Output == "" {
		return ferrors.ConfigError("build requires an output directory").
			WithContext("flag", "--output").
			Build()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := RunBuild(ctx, cfg)
	if err != nil {
		return err
	}
	log := logger(g)
	if res.Err != nil {
		return res.Err
	}
	log.Info("Build complete",
		logfields.BuildID(res.BuildID),
		logfields.Output(cfg.Output),
		logfields.Duration(res.Duration()),
		logfields.Count(res.Dirs+res.Documents+res.Files))
	fmt.Printf("Built %d documents and %d files into %s\n", res.Documents, res.Files, cfg.Output)
	return nil
}

// RunBuild performs one build of a resolved config, recording it in the
// history database when one is configured.
func RunBuild(ctx context.Context, cfg *config.Config) (site.Result, error) {
	sess, err := newSession(ctx, cfg, cfg.Output)
	if err != nil {
		return site.Result{}, err
	}
	id := uuid.NewString()
	res := site.NewBuilder(sess).Build(site.WithBuildID(ctx, id), func() bool { return false })
	res.BuildID = id

	if cfg.HistoryDB != "" {
		store, err := eventstore.NewSQLiteStore(cfg.HistoryDB)
		if err != nil {
			return res, err
		}
		defer func() { _ = store.Close() }()
		eventstore.NewRecorder(store, cfg.Input, cfg.Output).BuildCompleted(ctx, res)
	}
	return res, nil
}
