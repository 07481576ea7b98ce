package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"go.uber.org/zap"

	"github.com/jward/taper"
)

// Runtime embeds a Risor VM and exposes a taper.Calculator to bucking
// scripts.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     *zap.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger sends script log calls to l.
func WithLogger(l *zap.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime that loads scripts from scriptsDir unless an
// fs.FS is supplied.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run holds the inputs of one script evaluation.
type Run struct {
	Calculator *taper.Calculator
	// Params are read by scripts through param(name, default).
	Params map[string]float64
}

// RunScript loads and executes a Risor script against run and returns the
// rows the script emitted.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, run Run) ([]Row, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, src, scriptPath, run)
}

// RunSource executes Risor source code directly. Useful for testing without
// script files.
func (r *Runtime) RunSource(ctx context.Context, source string, run Run) ([]Row, error) {
	return r.eval(ctx, source, "<inline>", run)
}

func (r *Runtime) eval(ctx context.Context, source, label string, run Run) ([]Row, error) {
	if run.Calculator == nil {
		return nil, fmt.Errorf("runtime: script %s: no calculator", label)
	}
	out := &rowCollector{}
	globals := r.buildGlobals(label, run, out)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	_, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return out.rows, nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		// For fs.FS, strip any leading path separator so the path is
		// relative within the FS (e.g., "/buck.risor" -> "buck.risor").
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// ListScripts returns the .risor files available to the Runtime, sorted.
func (r *Runtime) ListScripts() ([]string, error) {
	var paths []string
	collect := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".risor") {
			paths = append(paths, path)
		}
		return nil
	}

	switch {
	case r.fsys != nil:
		if err := fs.WalkDir(r.fsys, ".", collect); err != nil {
			return nil, fmt.Errorf("runtime: listing scripts: %w", err)
		}
	case r.scriptsDir != "":
		if err := fs.WalkDir(os.DirFS(r.scriptsDir), ".", collect); err != nil {
			return nil, fmt.Errorf("runtime: listing scripts in %s: %w", r.scriptsDir, err)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ScriptPath returns the conventional file name of a named script.
func ScriptPath(name string) string {
	if strings.HasSuffix(name, ".risor") {
		return name
	}
	return name + ".risor"
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(label string, run Run, out *rowCollector) map[string]any {
	c := run.Calculator
	return map[string]any{
		"diameter_at": makeDiameterAtFn(c),
		"height_at":   makeHeightAtFn(c),
		"volume":      makeVolumeFn(c),
		"param":       makeParamFn(run.Params),
		"emit":        makeEmitFn(out),
		"tree":        treeObject(c),
		"log":         mustProxy(&logObject{logger: r.logger.With(zap.String("script", label))}),
	}
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
