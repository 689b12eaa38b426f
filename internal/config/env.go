package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFiles are read from the working directory, most specific first.
var EnvFiles = []string{".env.local", ".env"}

// LoadEnv loads EnvFiles found in dir into the process environment without
// overriding variables that are already set. It returns the files loaded.
func LoadEnv(dir string) ([]string, error) {
	var loaded []string
	for _, name := range EnvFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("stat %s: %w", name, err)
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("load %s: %w", name, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}
