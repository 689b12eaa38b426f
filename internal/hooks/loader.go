package hooks

import (
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"git.home.luguber.info/inful/siteforge/internal/ignore"
	"git.home.luguber.info/inful/siteforge/internal/logfields"
)

// Slot names recognised in a hook script.
const (
	SlotSiteCreateStart   = "OnSiteCreateStart"
	SlotSiteCreateEnd     = "OnSiteCreateEnd"
	SlotFileCreateStart   = "OnFileCreateStart"
	SlotFileCreateEnd     = "OnFileCreateEnd"
	SlotHostStart         = "OnHostStart"
	SlotHostEnd           = "OnHostEnd"
	SlotModRenderSettings = "ModRenderSettings"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Load interprets the hook script at the input root. A missing script yields
// Noop. Slots the script does not define resolve to no-ops.
func Load(inputRoot string) (HookSet, error) {
	path := filepath.Join(inputRoot, ignore.HooksFileName)
	// #nosec G304 -- fixed file name under the configured input root
	code, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Noop, nil
		}
		return nil, fmt.Errorf("hooks: read %s: %w", path, err)
	}
	if strings.TrimSpace(string(code)) == "" {
		return Noop, nil
	}

	pkg, err := packageName(path, code)
	if err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("hooks: load stdlib symbols: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("hooks: interpret %s: %w", path, err)
	}

	lookup := func(name string) (reflect.Value, bool) {
		qualified := name
		if pkg != "main" {
			qualified = pkg + "." + name
		}
		v, err := i.Eval(qualified)
		if err != nil || !v.IsValid() || v.Kind() != reflect.Func {
			return reflect.Value{}, false
		}
		slog.Debug("Hook slot resolved", logfields.Hook(name))
		return v, true
	}

	var f Funcs
	if fn, ok := lookup(SlotSiteCreateStart); ok {
		f.SiteCreateStart = func(in, out string) error {
			_, err := call(SlotSiteCreateStart, fn, in, out)
			return err
		}
	}
	if fn, ok := lookup(SlotSiteCreateEnd); ok {
		f.SiteCreateEnd = func(in, out string, wasPending bool) error {
			_, err := call(SlotSiteCreateEnd, fn, in, out, wasPending)
			return err
		}
	}
	if fn, ok := lookup(SlotFileCreateStart); ok {
		f.FileCreateStart = func(in, out, src, dst string) error {
			_, err := call(SlotFileCreateStart, fn, in, out, src, dst)
			return err
		}
	}
	if fn, ok := lookup(SlotFileCreateEnd); ok {
		f.FileCreateEnd = func(in, out, src, dst string, result map[string]any) error {
			_, err := call(SlotFileCreateEnd, fn, in, out, src, dst, result)
			return err
		}
	}
	if fn, ok := lookup(SlotHostStart); ok {
		f.HostStart = func(port int) error {
			_, err := call(SlotHostStart, fn, port)
			return err
		}
	}
	if fn, ok := lookup(SlotHostEnd); ok {
		f.HostEnd = func(port int) error {
			_, err := call(SlotHostEnd, fn, port)
			return err
		}
	}
	if fn, ok := lookup(SlotModRenderSettings); ok {
		f.RenderSettingsMod = func(settings map[string]any) (map[string]any, error) {
			out, err := call(SlotModRenderSettings, fn, settings)
			if err != nil || !out.IsValid() {
				return nil, err
			}
			if out.Kind() == reflect.Map && out.IsNil() {
				return nil, nil
			}
			m, ok := out.Interface().(map[string]any)
			if !ok {
				return nil, fmt.Errorf("hooks: %s must return map[string]any, got %s", SlotModRenderSettings, out.Type())
			}
			return m, nil
		}
	}
	return f, nil
}

// call invokes fn with args, converting each argument to the declared
// parameter type. It returns the first non-error result, if any, and the
// trailing error result.
func call(name string, fn reflect.Value, args ...any) (_ reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hooks: %s panicked: %v", name, r)
		}
	}()
	t := fn.Type()
	if t.NumIn() != len(args) {
		return reflect.Value{}, fmt.Errorf("hooks: %s takes %d arguments, expected %d", name, t.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for idx, a := range args {
		v := reflect.ValueOf(a)
		want := t.In(idx)
		if !v.Type().AssignableTo(want) {
			if !v.Type().ConvertibleTo(want) {
				return reflect.Value{}, fmt.Errorf("hooks: %s argument %d: cannot use %s as %s", name, idx, v.Type(), want)
			}
			v = v.Convert(want)
		}
		in[idx] = v
	}

	results := fn.Call(in)
	var value reflect.Value
	for idx, r := range results {
		if idx == len(results)-1 && t.Out(idx).Implements(errType) {
			if r.IsNil() {
				return value, nil
			}
			e, _ := r.Interface().(error)
			return value, fmt.Errorf("hooks: %s: %w", name, e)
		}
		if idx == 0 {
			value = r
		}
	}
	return value, nil
}

func packageName(path string, code []byte) (string, error) {
	f, err := parser.ParseFile(token.NewFileSet(), path, code, parser.PackageClauseOnly)
	if err != nil {
		return "", fmt.Errorf("hooks: parse %s: %w", path, err)
	}
	return f.Name.Name, nil
}
