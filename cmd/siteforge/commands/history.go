package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"git.home.luguber.info/inful/siteforge/internal/config"
	"git.home.luguber.info/inful/siteforge/internal/eventstore"
	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	HistoryDB string `name:"history-db" help:"SQLite build history database" env:"SITEFORGE_HISTORY_DB"`
	Limit     int    `short:"n" default:"20" help:"Number of builds to show"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config, root.Config != "")
	if err != nil {
		return err
	}
	cfg.Apply(config.Overrides{HistoryDB: h.HistoryDB})
	if cfg.HistoryDB == "" {
		return ferrors.ConfigError("no history database configured").
			WithContext("flag", "--history-db").
			Build()
	}
	if _, err := os.Stat(cfg.HistoryDB); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "history database not found").
			Fatal().
			WithContext("path", cfg.HistoryDB).
			Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builds, err := eventstore.NewBuildHistoryProjection(store, 0).Recent(context.Background(), h.Limit)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to read build history").Build()
	}
	return PrintHistory(os.Stdout, builds)
}

// PrintHistory writes builds as a table, newest first.
func PrintHistory(w io.Writer, builds []eventstore.BuildSummary) error {
	if len(builds) == 0 {
		_, err := fmt.Fprintln(w, "No builds recorded.")
		return err
	}
	rows := make([][]string, 0, len(builds))
	for _, b := range builds {
		id := b.BuildID
		if len(id) > 8 {
			id = id[:8]
		}
		rows = append(rows, []string{
			b.StartedAt.Local().Format(time.DateTime),
			id,
			b.Status,
			b.Duration.Round(time.Millisecond).String(),
			strconv.Itoa(b.Documents),
			strconv.Itoa(b.Files),
			b.Error,
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STARTED", "BUILD", "STATUS", "DURATION", "DOCS", "FILES", "ERROR").
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
