// Package bucking runs a bucking script over every saved tree.
package bucking

import (
	"context"
	"fmt"
	"io/fs"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/jward/taper"
	taperrt "github.com/jward/taper/internal/runtime"
	"github.com/jward/taper/internal/store"
)

// Engine bucks saved trees with a worker pool.
type Engine struct {
	store      *store.Store
	scriptsDir string
	scriptsFS  fs.FS
	logger     *zap.Logger
	workers    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithScriptsFS loads scripts from fsys instead of scriptsDir.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithLogger sets the logger for the engine and its scripts.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithWorkers caps the number of concurrent script runs. Values below 1
// mean one worker per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// New creates an Engine over s. The caller owns s.
func New(s *store.Store, scriptsDir string, opts ...Option) *Engine {
	e := &Engine{
		store:      s,
		scriptsDir: scriptsDir,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request describes one bucking pass.
type Request struct {
	Script string
	Params map[string]float64
	// Save replaces each tree's stored assortments with the new logs.
	Save bool
}

// Result is the outcome for one tree. Err is set when the tree could not be
// bucked; Logs is then nil.
type Result struct {
	Tree *store.Tree
	Logs []*store.Assortment
	Err  error
}

// workItem holds everything a worker needs for one tree.
type workItem struct {
	index int
	tree  *store.Tree
	calc  *taper.Calculator
}

// BuckAll runs req.Script against every saved tree using a three-phase
// pipeline:
//
//	Phase A (serial):   Load trees and build calculators.
//	Phase B (parallel): Run the script via worker pool (each with own Runtime).
//	Phase C (serial):   Commit assortments to SQLite when req.Save is set.
//
// Results are ordered by tree name. The returned error summarizes per-tree
// failures; successful trees are still returned and saved.
func (e *Engine) BuckAll(ctx context.Context, req Request) ([]Result, error) {
	// ---- Phase A: Serial preparation ----
	trees, err := e.store.Trees()
	if err != nil {
		return nil, fmt.Errorf("bucking: load trees: %w", err)
	}
	results := make([]Result, len(trees))
	var items []workItem
	for i, t := range trees {
		results[i].Tree = t
		calc, err := taper.NewFromParams(t.Params())
		if err != nil {
			results[i].Err = err
			continue
		}
		items = append(items, workItem{index: i, tree: t, calc: calc})
	}

	// ---- Phase B: Parallel script runs ----
	numWorkers := e.workers
	if numWorkers < 1 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = max(min(numWorkers, len(items)), 1)

	workCh := make(chan workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type output struct {
		item workItem
		rows []taperrt.Row
		err  error
	}
	outCh := make(chan output, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each worker gets its own Runtime.
			rt := e.newRuntime()
			for item := range workCh {
				rows, err := rt.RunScript(ctx, req.Script, taperrt.Run{Calculator: item.calc, Params: req.Params})
				outCh <- output{item: item, rows: rows, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outCh)
	}()

	// ---- Phase C: Serial commit ----
	for out := range outCh {
		r := &results[out.item.index]
		if out.err != nil {
			r.Err = out.err
			continue
		}
		logs := ToAssortments(out.rows, req.Script)
		if req.Save {
			if err := e.store.ReplaceAssortments(out.item.tree.ID, logs); err != nil {
				r.Err = fmt.Errorf("save: %w", err)
				continue
			}
		}
		r.Logs = logs
		e.logger.Debug("bucked tree",
			zap.String("tree", out.item.tree.Name),
			zap.Int("logs", len(logs)),
			zap.Bool("saved", req.Save))
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("tree %s: %w", r.Tree.Name, r.Err))
		}
	}
	if len(errs) > 0 {
		return results, fmt.Errorf("bucking had %d error(s): %w", len(errs), errs[0])
	}
	return results, nil
}

func (e *Engine) newRuntime() *taperrt.Runtime {
	rtOpts := []taperrt.RuntimeOption{taperrt.WithLogger(e.logger)}
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, taperrt.WithRuntimeFS(e.scriptsFS))
	}
	return taperrt.NewRuntime(e.scriptsDir, rtOpts...)
}

// ToAssortments converts emitted script rows to store records.
func ToAssortments(rows []taperrt.Row, script string) []*store.Assortment {
	logs := make([]*store.Assortment, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, &store.Assortment{
			Ordinal:  r.Int("ordinal"),
			Kind:     r.Text("kind"),
			FromM:    r.Float("from_m"),
			ToM:      r.Float("to_m"),
			TopCM:    r.Float("top_cm"),
			VolumeM3: r.Float("volume_m3"),
			Script:   script,
		})
	}
	return logs
}
