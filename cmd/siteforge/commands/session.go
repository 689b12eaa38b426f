package commands

import (
	"context"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/siteforge/internal/config"
	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/hooks"
	"git.home.luguber.info/inful/siteforge/internal/ignore"
	"git.home.luguber.info/inful/siteforge/internal/render"
	"git.home.luguber.info/inful/siteforge/internal/site"
)

// newSession loads the hook script once and fixes the render settings for
// every build of the run.
func newSession(ctx context.Context, cfg *config.Config, output string) (site.Session, error) {
	hookPath := filepath.Join(cfg.Input, ignore.HooksFileName)
	hs, err := hooks.Load(cfg.Input)
	if err != nil {
		return site.Session{}, ferrors.WrapError(err, ferrors.CategoryHook, "failed to load hook script").
			Fatal().
			WithContext("path", hookPath).
			Build()
	}

	settings, err := cfg.RenderSettings()
	if err != nil {
		return site.Session{}, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid render settings").Fatal().Build()
	}
	modded, err := hs.ModRenderSettings(ctx, settings.Map())
	if err != nil {
		return site.Session{}, ferrors.WrapError(err, ferrors.CategoryHook, "ModRenderSettings hook failed").
			Fatal().
			WithContext("path", hookPath).
			Build()
	}
	settings, err = settings.Apply(modded)
	if err != nil {
		return site.Session{}, ferrors.WrapError(err, ferrors.CategoryHook, "ModRenderSettings returned invalid settings").
			Fatal().
			WithContext("path", hookPath).
			Build()
	}
	slog.Debug("Render settings", slog.Any("settings", settings.Map()))

	return site.Session{
		InputRoot:    cfg.Input,
		OutputRoot:   output,
		Ignore:       ignore.DefaultPatterns,
		Hooks:        hs,
		Render:       render.New(settings),
		DocumentExts: cfg.DocumentExtensions,
	}, nil
}
