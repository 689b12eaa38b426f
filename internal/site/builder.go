package site

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/hooks"
	"git.home.luguber.info/inful/siteforge/internal/ignore"
	"git.home.luguber.info/inful/siteforge/internal/logfields"
	"git.home.luguber.info/inful/siteforge/internal/render"
)

// Session is the immutable configuration shared by every build of a run.
type Session struct {
	InputRoot    string
	OutputRoot   string
	Ignore       []string // default patterns; the ignore file is appended per build
	Hooks        hooks.HookSet
	Render       render.Renderer
	DocumentExts []string
}

// Result summarises one build.
type Result struct {
	BuildID    string
	Start      time.Time
	End        time.Time
	Dirs       int
	Documents  int
	Files      int
	Abandoned  bool
	WasPending bool
	Err        error
}

// Duration is End minus Start.
func (r Result) Duration() time.Duration { return r.End.Sub(r.Start) }

// Build outcomes reported by Result.Outcome.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeAbandoned = "abandoned"
)

// Outcome classifies the result. An error takes precedence over abandonment.
func (r Result) Outcome() string {
	switch {
	case r.Err != nil:
		return OutcomeFailed
	case r.Abandoned:
		return OutcomeAbandoned
	default:
		return OutcomeSuccess
	}
}

// Builder materialises the output tree for a Session.
type Builder struct {
	s Session
}

// NewBuilder fills unset session fields with defaults.
func NewBuilder(s Session) *Builder {
	if s.Ignore == nil {
		s.Ignore = ignore.DefaultPatterns
	}
	if s.Hooks == nil {
		s.Hooks = hooks.Noop
	}
	if s.Render == nil {
		s.Render = render.New(render.DefaultSettings())
	}
	if len(s.DocumentExts) == 0 {
		s.DocumentExts = DefaultDocumentExts
	}
	return &Builder{s: s}
}

// Session returns the builder's session.
func (b *Builder) Session() Session { return b.s }

type buildIDKey struct{}

// WithBuildID attaches a build id used for log correlation.
func WithBuildID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, buildIDKey{}, id)
}

// BuildIDFrom returns the build id attached to ctx, if any.
func BuildIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(buildIDKey{}).(string)
	return id
}

// Build deletes the output root and regenerates it from the input tree.
// Traversal is depth-first over an explicit stack. The first entry error
// aborts the build and leaves the output tree as it is. When superseded
// reports true the remaining traversal is skipped.
func (b *Builder) Build(ctx context.Context, superseded func() bool) Result {
	if superseded == nil {
		superseded = func() bool { return false }
	}
	res := Result{BuildID: BuildIDFrom(ctx), Start: time.Now()}
	res.Err = b.build(ctx, superseded, &res)
	res.End = time.Now()
	return res
}

func (b *Builder) build(ctx context.Context, superseded func() bool, res *Result) error {
	in, out := b.s.InputRoot, b.s.OutputRoot
	log := slog.With(logfields.BuildID(res.BuildID))

	if err := b.s.Hooks.OnSiteCreateStart(ctx, in, out); err != nil {
		return hookErr(ignore.HooksFileName, err)
	}

	userPatterns, err := ignore.LoadFile(in)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read ignore file").
			WithContext("path", filepath.Join(in, ignore.FileName)).Build()
	}
	matcher := ignore.Compile(b.s.Ignore, userPatterns)

	if err := os.RemoveAll(out); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "clear output directory").
			WithContext("path", out).Build()
	}

	rootReal, err := filepath.EvalSymlinks(in)
	if err != nil {
		rootReal = in
	}
	stack := []Entry{{AbsPath: in, RelPath: "", Kind: KindDir, ancestors: []string{rootReal}}}
	for len(stack) > 0 {
		if superseded() {
			res.Abandoned = true
			log.Debug("Build superseded, abandoning traversal", logfields.Count(len(stack)))
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch e.Kind {
		case KindDir:
			children, err := b.dir(ctx, e, matcher)
			if err != nil {
				return err
			}
			res.Dirs++
			stack = append(stack, children...)
		case KindDocument:
			if err := b.document(ctx, e); err != nil {
				return err
			}
			res.Documents++
		default:
			if err := b.file(ctx, e); err != nil {
				return err
			}
			res.Files++
		}
	}

	res.WasPending = superseded()
	if err := b.s.Hooks.OnSiteCreateEnd(ctx, in, out, res.WasPending); err != nil {
		return hookErr(ignore.HooksFileName, err)
	}
	return nil
}

func (b *Builder) dst(e Entry) string {
	return filepath.Join(b.s.OutputRoot, filepath.FromSlash(MapPath(e.RelPath, e.Kind)))
}

func (b *Builder) dir(ctx context.Context, e Entry, matcher *ignore.Matcher) ([]Entry, error) {
	dst := b.dst(e)
	if err := b.s.Hooks.OnFileCreateStart(ctx, b.s.InputRoot, b.s.OutputRoot, e.AbsPath, dst); err != nil {
		return nil, hookErr(e.RelPath, err)
	}
	if err := os.MkdirAll(dst, 0o750); err != nil {
		return nil, fsErr(err, "create output directory", dst)
	}

	items, err := os.ReadDir(e.AbsPath)
	if err != nil {
		return nil, fsErr(err, "read directory", e.AbsPath)
	}

	children := make([]Entry, 0, len(items))
	for _, item := range items {
		rel := path.Join(e.RelPath, item.Name())
		abs := filepath.Join(e.AbsPath, item.Name())

		isDir, err := resolveDir(abs, item)
		if err != nil {
			return nil, fsErr(err, "stat", abs)
		}
		if matcher.Match(rel, isDir) {
			slog.Debug("Ignored", logfields.Path(rel))
			continue
		}
		// never copy the output tree into itself
		if abs == b.s.OutputRoot {
			continue
		}

		if !isDir {
			children = append(children, Entry{AbsPath: abs, RelPath: rel, Kind: Classify(item.Name(), b.s.DocumentExts)})
			continue
		}

		realPath := filepath.Join(e.ancestors[len(e.ancestors)-1], item.Name())
		if item.Type()&fs.ModeSymlink != 0 {
			if realPath, err = filepath.EvalSymlinks(abs); err != nil {
				return nil, fsErr(err, "resolve symlink", abs)
			}
			if slices.Contains(e.ancestors, realPath) {
				slog.Warn("Skipping symlink to an enclosing directory", logfields.Path(rel))
				continue
			}
		}
		children = append(children, Entry{
			AbsPath:   abs,
			RelPath:   rel,
			Kind:      KindDir,
			ancestors: append(slices.Clip(e.ancestors), realPath),
		})
	}

	result := map[string]any{"kind": KindDir.String(), "entries": len(children)}
	if err := b.s.Hooks.OnFileCreateEnd(ctx, b.s.InputRoot, b.s.OutputRoot, e.AbsPath, dst, result); err != nil {
		return nil, hookErr(e.RelPath, err)
	}
	return children, nil
}

func (b *Builder) document(ctx context.Context, e Entry) error {
	dst := b.dst(e)
	if err := b.s.Hooks.OnFileCreateStart(ctx, b.s.InputRoot, b.s.OutputRoot, e.AbsPath, dst); err != nil {
		return hookErr(e.RelPath, err)
	}

	// #nosec G304 -- path produced by walking the configured input root
	source, err := os.ReadFile(e.AbsPath)
	if err != nil {
		return fsErr(err, "read document", e.AbsPath)
	}

	fragment, err := b.s.Render.Render(ctx, string(source), filepath.Dir(e.AbsPath))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRender, "render document").
			WithContext("path", e.RelPath).Build()
	}
	page := Envelope(fragment, e.AbsPath)
	if err := atomic.WriteFile(dst, strings.NewReader(page)); err != nil {
		return fsErr(err, "write document", dst)
	}

	result := map[string]any{
		"kind":  KindDocument.String(),
		"bytes": len(page),
		"title": FirstHeading(fragment),
	}
	if fp, err := render.Fingerprint(source); err == nil {
		result["fingerprint"] = fp
	}
	slog.Debug("Rendered", logfields.Path(e.RelPath), logfields.Output(dst))
	if err := b.s.Hooks.OnFileCreateEnd(ctx, b.s.InputRoot, b.s.OutputRoot, e.AbsPath, dst, result); err != nil {
		return hookErr(e.RelPath, err)
	}
	return nil
}

func (b *Builder) file(ctx context.Context, e Entry) error {
	dst := b.dst(e)
	if err := b.s.Hooks.OnFileCreateStart(ctx, b.s.InputRoot, b.s.OutputRoot, e.AbsPath, dst); err != nil {
		return hookErr(e.RelPath, err)
	}

	// #nosec G304 -- path produced by walking the configured input root
	data, err := os.ReadFile(e.AbsPath)
	if err != nil {
		return fsErr(err, "read file", e.AbsPath)
	}
	if err := atomic.WriteFile(dst, bytes.NewReader(data)); err != nil {
		return fsErr(err, "copy file", dst)
	}

	result := map[string]any{"kind": KindFile.String(), "bytes": len(data)}
	if err := b.s.Hooks.OnFileCreateEnd(ctx, b.s.InputRoot, b.s.OutputRoot, e.AbsPath, dst, result); err != nil {
		return hookErr(e.RelPath, err)
	}
	return nil
}

// resolveDir reports whether item is a directory, following symlinks.
func resolveDir(abs string, item fs.DirEntry) (bool, error) {
	if item.Type()&fs.ModeSymlink == 0 {
		return item.IsDir(), nil
	}
	info, err := os.Stat(abs)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func hookErr(rel string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryHook, "hook failed").
		WithContext("path", rel).Build()
}

func fsErr(err error, op, p string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, fmt.Sprintf("%s failed", op)).
		WithContext("path", p).Build()
}
