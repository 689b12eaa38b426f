package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/siteforge/internal/config"
	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/ignore"
)

const starterIgnore = `# Paths listed here are neither copied nor rendered.
# Syntax follows .gitignore. Built-in defaults already cover VCS
# directories, node_modules, .env files and siteforge's own files.
drafts/
*.tmp
`

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" default:"." help:"Directory to initialize"`
	Force bool   `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(_ *Global, _ *CLI) error {
	return RunInit(i.Dir, i.Force)
}

// RunInit writes siteforge.yaml and .siteforgeignore into dir.
func RunInit(dir string, force bool) error {
	fmt.Println("Initializing siteforge project")
	data, err := config.Default().Marshal()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to render starter config").Build()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create directory").WithContext("path", dir).Build()
	}
	files := []struct {
		name string
		data []byte
	}{
		{ignore.ConfigFileName, data},
		{ignore.FileName, []byte(starterIgnore)},
	}
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		if !force {
			if _, err := os.Stat(p); err == nil {
				return ferrors.ConfigError("file already exists; use --force to overwrite").
					WithContext("path", p).
					Build()
			} else if !errors.Is(err, fs.ErrNotExist) {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to stat file").WithContext("path", p).Build()
			}
		}
		if err := atomic.WriteFile(p, bytes.NewReader(f.data)); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write file").WithContext("path", p).Build()
		}
		fmt.Printf("Wrote %s\n", p)
	}
	fmt.Println("initialized successfully")
	return nil
}
