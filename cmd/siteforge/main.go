package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/siteforge/cmd/siteforge/commands"
	"git.home.luguber.info/inful/siteforge/internal/config"
	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/version"
)

func main() {
	// .env files must be in the environment before kong reads env: tags.
	if _, err := config.LoadEnv("."); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	cli := &commands.CLI{}
	global := &commands.Global{}
	parser := kong.Must(cli,
		kong.Name("siteforge"),
		kong.Description("Static site generator and live-reloading dev server for MDX trees."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := kctx.Run(global, cli); err != nil {
		os.Exit(ferrors.NewCLIErrorAdapter(cli.Verbose, nil).Report(err))
	}
}
