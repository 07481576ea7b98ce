package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/taper"
	"github.com/jward/taper/internal/bucking"
	"github.com/jward/taper/internal/runtime"
	"github.com/jward/taper/internal/store"
	"github.com/jward/taper/scripts"
)

var (
	flagScript  string
	flagSet     []string
	flagSave    bool
	flagList    bool
	flagAll     bool
	flagWorkers int
)

var buckCmd = &cobra.Command{
	Use:   "buck",
	Short: "Cut a tree into logs with a bucking script",
	Long:  "Runs a Risor bucking script against the tree and prints one row per log.\nScripts read their limits with param(); override them with --set name=value.",
	Args:  cobra.NoArgs,
	RunE:  runBuck,
}

func init() {
	buckCmd.Flags().StringVar(&flagScript, "script", "buck", "script name or path to a .risor file")
	buckCmd.Flags().StringArrayVar(&flagSet, "set", nil, "script parameter as name=value (repeatable)")
	buckCmd.Flags().BoolVar(&flagSave, "save", false, "store the logs on the --tree record")
	buckCmd.Flags().BoolVar(&flagList, "list", false, "list available scripts and exit")
	buckCmd.Flags().BoolVar(&flagAll, "all", false, "buck every saved tree")
	buckCmd.Flags().IntVar(&flagWorkers, "workers", 0, "concurrent script runs with --all (default: one per CPU)")
}

func runBuck(cmd *cobra.Command, args []string) error {
	if flagList {
		names, err := newRuntime("").ListScripts()
		if err != nil {
			return outputError("buck", err)
		}
		return outputResult(CLIResult{Command: "buck", Results: names})
	}

	if flagAll {
		return runBuckAll(cmd.Context())
	}
	if flagSave && flagTree == "" {
		return outputError("buck", fmt.Errorf("--save requires --tree or --all"))
	}
	params, err := parseSetFlags(flagSet)
	if err != nil {
		return outputError("buck", err)
	}
	calc, tree, err := resolveCalculator()
	if err != nil {
		return outputError("buck", err)
	}

	rt, scriptPath := scriptRuntime(flagScript)
	rows, err := rt.RunScript(cmd.Context(), scriptPath, runtime.Run{Calculator: calc, Params: params})
	if err != nil {
		return outputError("buck", err)
	}

	logs := bucking.ToAssortments(rows, scriptPath)
	result := buckToCLI(calc, logs)
	result.Script = scriptPath
	if tree != nil {
		result.Tree = tree.Name
	}

	if flagSave {
		if err := saveAssortments(tree, logs); err != nil {
			return outputError("buck", err)
		}
		result.Saved = true
	}
	logger.Debug("bucked tree", zap.String("script", scriptPath), zap.Int("logs", len(logs)))

	return outputResult(CLIResult{Command: "buck", Results: result})
}

// runBuckAll bucks every saved tree in parallel.
func runBuckAll(ctx context.Context) error {
	params, err := parseSetFlags(flagSet)
	if err != nil {
		return outputError("buck", err)
	}
	s, err := openStore()
	if err != nil {
		return outputError("buck", err)
	}
	defer s.Close()

	var opts []bucking.Option
	scriptsDir := cfg.ScriptsDir
	if scriptsDir == "" {
		opts = append(opts, bucking.WithScriptsFS(scripts.FS))
	}
	opts = append(opts, bucking.WithLogger(logger), bucking.WithWorkers(flagWorkers))
	engine := bucking.New(s, scriptsDir, opts...)

	scriptPath := runtime.ScriptPath(flagScript)
	results, buckErr := engine.BuckAll(ctx, bucking.Request{
		Script: scriptPath,
		Params: params,
		Save:   flagSave,
	})
	if results == nil {
		return outputError("buck", buckErr)
	}

	out := make([]CLIBuck, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			logger.Warn("tree not bucked", zap.String("tree", r.Tree.Name), zap.Error(r.Err))
			out = append(out, CLIBuck{Tree: r.Tree.Name, Script: scriptPath, Logs: []CLIAssortment{}, Error: r.Err.Error()})
			continue
		}
		calc := taper.New(r.Tree.Species, r.Tree.HeightM, r.Tree.DiameterCM, r.Tree.FormFactor)
		b := buckToCLI(calc, r.Logs)
		b.Tree = r.Tree.Name
		b.Script = scriptPath
		b.Saved = flagSave
		out = append(out, b)
	}
	if err := outputResult(CLIResult{Command: "buck", Results: out}); err != nil {
		return err
	}
	if buckErr != nil {
		errorHandled = true
		return buckErr
	}
	return nil
}

// buckToCLI summarizes logs cut from calc.
func buckToCLI(calc *taper.Calculator, logs []*store.Assortment) CLIBuck {
	b := CLIBuck{
		Logs:         assortmentsToCLI(logs),
		StemVolumeM3: calc.Volume(0, calc.HeightM()),
	}
	for _, l := range logs {
		b.TotalVolumeM3 += l.VolumeM3
	}
	return b
}

// newRuntime returns a script runtime reading from dir, the configured
// scripts directory, or the embedded scripts, in that order.
func newRuntime(dir string) *runtime.Runtime {
	if dir == "" {
		dir = cfg.ScriptsDir
	}
	if dir == "" {
		return runtime.NewRuntime("", runtime.WithRuntimeFS(scripts.FS), runtime.WithLogger(logger))
	}
	return runtime.NewRuntime(dir, runtime.WithLogger(logger))
}

// scriptRuntime resolves --script. A path to an existing file is run from
// its own directory so its imports resolve next to it.
func scriptRuntime(script string) (*runtime.Runtime, string) {
	if info, err := os.Stat(script); err == nil && !info.IsDir() {
		abs, err := filepath.Abs(script)
		if err == nil {
			return newRuntime(filepath.Dir(abs)), filepath.Base(abs)
		}
	}
	return newRuntime(""), runtime.ScriptPath(script)
}

// parseSetFlags converts name=value pairs into script parameters.
func parseSetFlags(pairs []string) (map[string]float64, error) {
	params := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: expected name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: value must be a number", pair)
		}
		params[name] = v
	}
	return params, nil
}

// assortmentsToCLI converts store records to CLI logs.
func assortmentsToCLI(logs []*store.Assortment) []CLIAssortment {
	out := make([]CLIAssortment, 0, len(logs))
	for _, a := range logs {
		out = append(out, CLIAssortment{
			Ordinal:  a.Ordinal,
			Kind:     a.Kind,
			FromM:    a.FromM,
			ToM:      a.ToM,
			TopCM:    a.TopCM,
			VolumeM3: a.VolumeM3,
		})
	}
	return out
}

// saveAssortments replaces the stored logs of tree.
func saveAssortments(tree *store.Tree, logs []*store.Assortment) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return s.ReplaceAssortments(tree.ID, logs)
}
