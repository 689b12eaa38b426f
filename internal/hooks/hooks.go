// Package hooks defines the lifecycle callbacks a site can supply and loads
// them from a Go script at the input root.
package hooks

import "context"

// HookSet is the full set of lifecycle slots. Every slot is always callable;
// implementations without behaviour for a slot return nil.
type HookSet interface {
	OnSiteCreateStart(ctx context.Context, inputRoot, outputRoot string) error
	OnSiteCreateEnd(ctx context.Context, inputRoot, outputRoot string, wasPending bool) error
	OnFileCreateStart(ctx context.Context, inputRoot, outputRoot, src, dst string) error
	OnFileCreateEnd(ctx context.Context, inputRoot, outputRoot, src, dst string, result map[string]any) error
	OnHostStart(ctx context.Context, port int) error
	OnHostEnd(ctx context.Context, port int) error
	ModRenderSettings(ctx context.Context, settings map[string]any) (map[string]any, error)
}

// Funcs is a HookSet assembled from optional functions. Nil fields behave as
// no-ops and ModRenderSettings returns its input unchanged.
type Funcs struct {
	SiteCreateStart   func(inputRoot, outputRoot string) error
	SiteCreateEnd     func(inputRoot, outputRoot string, wasPending bool) error
	FileCreateStart   func(inputRoot, outputRoot, src, dst string) error
	FileCreateEnd     func(inputRoot, outputRoot, src, dst string, result map[string]any) error
	HostStart         func(port int) error
	HostEnd           func(port int) error
	RenderSettingsMod func(settings map[string]any) (map[string]any, error)
}

// Noop is a HookSet that does nothing.
var Noop HookSet = Funcs{}

func (f Funcs) OnSiteCreateStart(_ context.Context, in, out string) error {
	if f.SiteCreateStart == nil {
		return nil
	}
	return f.SiteCreateStart(in, out)
}

func (f Funcs) OnSiteCreateEnd(_ context.Context, in, out string, wasPending bool) error {
	if f.SiteCreateEnd == nil {
		return nil
	}
	return f.SiteCreateEnd(in, out, wasPending)
}

func (f Funcs) OnFileCreateStart(_ context.Context, in, out, src, dst string) error {
	if f.FileCreateStart == nil {
		return nil
	}
	return f.FileCreateStart(in, out, src, dst)
}

func (f Funcs) OnFileCreateEnd(_ context.Context, in, out, src, dst string, result map[string]any) error {
	if f.FileCreateEnd == nil {
		return nil
	}
	return f.FileCreateEnd(in, out, src, dst, result)
}

func (f Funcs) OnHostStart(_ context.Context, port int) error {
	if f.HostStart == nil {
		return nil
	}
	return f.HostStart(port)
}

func (f Funcs) OnHostEnd(_ context.Context, port int) error {
	if f.HostEnd == nil {
		return nil
	}
	return f.HostEnd(port)
}

func (f Funcs) ModRenderSettings(_ context.Context, settings map[string]any) (map[string]any, error) {
	if f.RenderSettingsMod == nil {
		return settings, nil
	}
	out, err := f.RenderSettingsMod(settings)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return settings, nil
	}
	return out, nil
}
