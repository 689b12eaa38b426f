package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/portscan"
	"git.home.luguber.info/inful/siteforge/internal/render"
	"git.home.luguber.info/inful/siteforge/internal/workspace"
)

// Resolve makes Input and Output absolute, normalizes document extensions
// and validates every setting. It touches nothing on disk. The returned
// warnings describe values that were adjusted rather than rejected.
func (c *Config) Resolve() ([]string, error) {
	c.applyDefaults()

	in, err := filepath.Abs(c.Input)
	if err != nil {
		return nil, invalid("input path cannot be made absolute", "input", c.Input, err)
	}
	fi, err := os.Stat(in)
	if err != nil {
		return nil, invalid("input path does not exist", "input", in, err)
	}
	if !fi.IsDir() {
		return nil, invalid("input path is not a directory", "input", in, nil)
	}
	c.Input = in

	if c.Output != "" {
		out, err := filepath.Abs(c.Output)
		if err != nil {
			return nil, invalid("output path cannot be made absolute", "output", c.Output, err)
		}
		if workspace.Contains(in, out) {
			return nil, invalid("output path must not be the input path or nested inside it", "output", out, nil)
		}
		if workspace.Contains(out, in) {
			return nil, invalid("output path must not contain the input path", "output", out, nil)
		}
		if fi, err := os.Stat(out); err == nil && !fi.IsDir() {
			return nil, invalid("output path is not a directory", "output", out, nil)
		}
		c.Output = out
	}

	if err := portscan.Validate(c.Port, c.MaxPort); err != nil {
		return nil, invalid(err.Error(), "port", fmt.Sprintf("%d..%d", c.Port, c.MaxPort), nil)
	}
	if c.Debounce < 0 {
		return nil, invalid("debounce must be >= 0", "debounce", c.Debounce.String(), nil)
	}
	if c.PollInterval < 0 {
		return nil, invalid("poll interval must be >= 0", "poll_interval", c.PollInterval.String(), nil)
	}
	if _, err := render.DefaultSettings().Apply(c.Render); err != nil {
		return nil, invalid("invalid render settings", "render", fmt.Sprint(c.Render), err)
	}

	warnings, err := c.normalizeExtensions()
	if err != nil {
		return nil, err
	}
	return warnings, nil
}

// RenderSettings returns the defaults with the render section applied.
func (c *Config) RenderSettings() (render.Settings, error) {
	return render.DefaultSettings().Apply(c.Render)
}

func (c *Config) normalizeExtensions() ([]string, error) {
	var warnings []string
	seen := make(map[string]bool, len(c.DocumentExtensions))
	exts := make([]string, 0, len(c.DocumentExtensions))
	for _, raw := range c.DocumentExtensions {
		ext := strings.ToLower(strings.TrimSpace(raw))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if ext != raw {
			warnings = append(warnings, fmt.Sprintf("normalized document extension %q to %q", raw, ext))
		}
		switch {
		case ext == "" || ext == ".":
			return nil, invalid("empty document extension", "document_extensions", raw, nil)
		case strings.ContainsAny(ext[1:], `./\`):
			return nil, invalid("document extension must be a single suffix", "document_extensions", raw, nil)
		case ext == ".html":
			return nil, invalid("document extension collides with rendered output", "document_extensions", raw, nil)
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		exts = append(exts, ext)
	}
	c.DocumentExtensions = exts
	return warnings, nil
}

func invalid(msg, field, value string, cause error) error {
	b := ferrors.ConfigError(msg).
		WithContext("field", field).
		WithContext("value", value)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}
