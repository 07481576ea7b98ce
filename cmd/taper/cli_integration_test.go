package main_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/taper"
)

func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "taper"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "taper")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot returns the root of the project by walking up from the test
// file's directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "go.mod not found")
		dir = parent
	}
}

// cliEnv is an isolated home with its own config dir and database.
type cliEnv struct {
	bin  string
	home string
}

func newCLIEnv(t *testing.T, bin string) *cliEnv {
	t.Helper()
	return &cliEnv{bin: bin, home: t.TempDir()}
}

func (e *cliEnv) command(args ...string) *exec.Cmd {
	cmd := exec.Command(e.bin, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+e.home,
		"XDG_CONFIG_HOME="+filepath.Join(e.home, ".config"),
		"TAPER_DB="+filepath.Join(e.home, "trees.db"),
		"TAPER_FORMAT=",
		"TAPER_LOG_LEVEL=",
		"TAPER_SCRIPTS_DIR=",
	)
	return cmd
}

// run executes taper and returns the parsed CLIResult.
func (e *cliEnv) run(t *testing.T, args ...string) map[string]any {
	t.Helper()
	stdout, err := e.command(args...).Output()
	// Allow non-zero exit for error cases, but we always expect JSON on stdout.
	if err != nil && len(stdout) == 0 {
		t.Fatalf("taper %v failed with no output: %v", args, err)
	}
	var result map[string]any
	require.NoError(t, json.Unmarshal(stdout, &result), "invalid JSON output: %s", string(stdout))
	return result
}

var pine = []string{"--species", "southern-pine", "--height", "20", "--diameter", "25", "--form-factor", "0.5"}

func withTree(args ...string) []string {
	return append(args, pine...)
}

func TestCLI_Calculations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	e := newCLIEnv(t, buildBinary(t))

	t.Run("diameter", func(t *testing.T) {
		result := e.run(t, withTree("diameter", "1.3")...)
		assert.Equal(t, "diameter", result["command"])
		assert.Empty(t, result["error"])
		res := result["results"].(map[string]any)
		assert.InDelta(t, 25.0, res["diameter_cm"], 1e-6)
		assert.Equal(t, "root-swell", res["region"])
	})

	t.Run("height", func(t *testing.T) {
		result := e.run(t, withTree("height", "14")...)
		res := result["results"].(map[string]any)
		assert.InDelta(t, 12.0, res["height_m"], 1e-9, "start-of-top boundary diameter")
		assert.Equal(t, "top", res["region"])
	})

	t.Run("height at root swell boundary", func(t *testing.T) {
		calc := taper.New(taper.SouthernPine, 20, 25, 0.5)
		d := calc.DiameterAtEndOfRootSwell()
		result := e.run(t, withTree("height", strconv.FormatFloat(d, 'f', -1, 64))...)
		res := result["results"].(map[string]any)
		assert.InDelta(t, calc.RootSwellShare()*20, res["height_m"], 1e-9)
		assert.Equal(t, "middle-stem", res["region"])
	})

	t.Run("info", func(t *testing.T) {
		result := e.run(t, withTree("info")...)
		res := result["results"].(map[string]any)
		assert.Equal(t, "southern-pine", res["species"])
		assert.Equal(t, 3.0, res["form_class"])
		assert.Equal(t, 22.0, res["diameter_at_end_of_root_swell_cm"])
		assert.Equal(t, 14.0, res["diameter_at_start_of_top_cm"])
	})

	t.Run("profile", func(t *testing.T) {
		result := e.run(t, withTree("profile", "--step", "5")...)
		res := result["results"].(map[string]any)
		points := res["points"].([]any)
		require.Len(t, points, 5)
		tip := points[4].(map[string]any)
		assert.Equal(t, 20.0, tip["height_m"])
		assert.Equal(t, 0.0, tip["diameter_cm"])
	})

	t.Run("volume", func(t *testing.T) {
		result := e.run(t, withTree("volume")...)
		res := result["results"].(map[string]any)
		assert.InEpsilon(t, 0.49, res["volume_m3"], 0.15)
		assert.Equal(t, 20.0, res["to_m"])
	})
}

func TestCLI_Errors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	e := newCLIEnv(t, buildBinary(t))

	result := e.run(t, "diameter", "1.3", "--species", "southern-pien", "--height", "20", "--diameter", "25")
	assert.Contains(t, result["error"], `did you mean "southern-pine"`)
	assert.Nil(t, result["results"])

	result = e.run(t, "diameter", "1.3", "--species", "northern-spruce", "--height", "1", "--diameter", "25")
	assert.Contains(t, result["error"], "breast height")

	result = e.run(t, "info")
	assert.Contains(t, result["error"], "--tree")

	result = e.run(t, "info", "--tree", "nope")
	assert.Contains(t, result["error"], `tree "nope" not found`)

	result = e.run(t, withTree("buck", "--save")...)
	assert.Contains(t, result["error"], "--save requires --tree")

	result = e.run(t, withTree("profile", "--step", "1e-300")...)
	assert.Contains(t, result["error"], "invalid step")

	for _, set := range []string{"saw_length_m=0", "saw_length_m=-3", "pulp_length_m=0", "min_pulp_length_m=0"} {
		result = e.run(t, withTree("buck", "--set", set)...)
		assert.Contains(t, result["error"], "must be positive", set)
		assert.Nil(t, result["results"], set)
	}

	err := e.command(withTree("info", "--format", "yaml")...).Run()
	assert.Error(t, err, "invalid format exits non-zero")
}

func TestCLI_TreeLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	e := newCLIEnv(t, buildBinary(t))

	result := e.run(t, withTree("tree", "add", "plot-1", "--note", "north slope")...)
	require.Empty(t, result["error"])
	added := result["results"].(map[string]any)
	assert.Equal(t, "plot-1", added["name"])
	assert.NotZero(t, added["id"])

	result = e.run(t, withTree("tree", "add", "plot-1")...)
	assert.Contains(t, result["error"], "already exists")

	e.run(t, "tree", "add", "plot-2", "--species", "northern-spruce", "--height", "18", "--diameter", "21")

	list := e.run(t, "tree", "list")["results"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "plot-1", list[0].(map[string]any)["name"])

	spruce := e.run(t, "tree", "list", "--species", "northern-spruce")["results"].([]any)
	require.Len(t, spruce, 1)

	// Calculations against a saved tree.
	res := e.run(t, "diameter", "1.3", "--tree", "plot-1")["results"].(map[string]any)
	assert.InDelta(t, 25.0, res["diameter_cm"], 1e-6)

	// Buck and save, then read the logs back.
	buck := e.run(t, "buck", "--tree", "plot-1", "--save")["results"].(map[string]any)
	assert.Equal(t, true, buck["saved"])
	assert.Equal(t, "buck.risor", buck["script"])
	logs := buck["logs"].([]any)
	require.Len(t, logs, 6)
	assert.Less(t, buck["total_volume_m3"], buck["stem_volume_m3"])

	shown := e.run(t, "tree", "show", "plot-1")["results"].(map[string]any)
	assert.Equal(t, "north slope", shown["note"])
	require.Len(t, shown["assortments"], 6)
	assert.Equal(t, "saw", shown["assortments"].([]any)[0].(map[string]any)["kind"])

	result = e.run(t, "tree", "rm", "plot-1")
	assert.Empty(t, result["error"])
	result = e.run(t, "tree", "rm", "plot-1")
	assert.Contains(t, result["error"], "not found")
}

func TestCLI_BuckScripts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	e := newCLIEnv(t, buildBinary(t))

	names := e.run(t, "buck", "--list")["results"].([]any)
	assert.Equal(t, []any{"buck.risor", "pulp.risor"}, names)

	pulp := e.run(t, withTree("buck", "--script", "pulp")...)["results"].(map[string]any)
	for _, l := range pulp["logs"].([]any) {
		assert.Equal(t, "pulp", l.(map[string]any)["kind"])
	}

	long := e.run(t, withTree("buck", "--set", "saw_length_m=5")...)["results"].(map[string]any)
	first := long["logs"].([]any)[0].(map[string]any)
	assert.InDelta(t, 5.1, first["to_m"], 1e-9)

	// A script on disk, passed by path.
	custom := filepath.Join(t.TempDir(), "one.risor")
	require.NoError(t, os.WriteFile(custom, []byte(`emit({"ordinal": 0, "kind": "whole", "from_m": 0, "to_m": tree["height_m"], "volume_m3": volume(0, tree["height_m"])})`), 0o644))
	one := e.run(t, withTree("buck", "--script", custom)...)["results"].(map[string]any)
	logs := one["logs"].([]any)
	require.Len(t, logs, 1)
	assert.Equal(t, "whole", logs[0].(map[string]any)["kind"])
	assert.Equal(t, one["stem_volume_m3"], one["total_volume_m3"])
}

func TestCLI_TextFormatFromConfig(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	e := newCLIEnv(t, buildBinary(t))

	cfgPath := filepath.Join(e.home, "taper.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format: text\nprofile_step_m: 10\n"), 0o644))

	out, err := e.command(withTree("profile", "--config", cfgPath)...).Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "HEIGHT_M")
	assert.Contains(t, string(out), "10.00")
	assert.Contains(t, string(out), "20.00")

	// Flags win over the config file.
	out, err = e.command(withTree("info", "--config", cfgPath, "--format", "json")...).Output()
	require.NoError(t, err)
	var result map[string]any
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Equal(t, "info", result["command"])
}

func TestCLI_ConfigInitAndShow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	e := newCLIEnv(t, buildBinary(t))

	cfgPath := filepath.Join(e.home, "conf", "taper.yaml")
	dbPath := filepath.Join(e.home, "plots.db")

	result := e.run(t, "config", "init", "--config", cfgPath, "--db", dbPath)
	require.Empty(t, result["error"])
	res := result["results"].(map[string]any)
	assert.Equal(t, cfgPath, res["path"])
	assert.Equal(t, dbPath, res["database_path"])

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "database_path: "+dbPath)
	assert.Contains(t, string(data), "profile_step_m: 1")

	result = e.run(t, "config", "init", "--config", cfgPath)
	assert.Contains(t, result["error"], "already exists")

	result = e.run(t, "config", "init", "--config", cfgPath, "--force")
	assert.Empty(t, result["error"])

	result = e.run(t, "config", "show", "--config", cfgPath)
	res = result["results"].(map[string]any)
	assert.Equal(t, "config show", result["command"])
	assert.Equal(t, cfgPath, res["path"])
	assert.Equal(t, "json", res["format"])
	assert.Equal(t, "warn", res["log_level"])
}

func TestCLI_BuckAll(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	e := newCLIEnv(t, buildBinary(t))

	e.run(t, withTree("tree", "add", "b")...)
	e.run(t, "tree", "add", "a", "--species", "northern-spruce", "--height", "22", "--diameter", "27")

	result := e.run(t, "buck", "--all", "--save", "--workers", "2")
	require.Empty(t, result["error"])
	all := result["results"].([]any)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].(map[string]any)["tree"])
	assert.Equal(t, true, all[1].(map[string]any)["saved"])

	shown := e.run(t, "tree", "show", "b")["results"].(map[string]any)
	assert.Len(t, shown["assortments"], 6)
}
