package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/taper"
	"github.com/jward/taper/internal/store"
)

// Tree input flags shared by every calculation command.
var (
	flagSpecies    string
	flagHeight     float64
	flagDiameter   float64
	flagFormFactor float64
	flagTree       string
)

// addTreeFlags registers the tree input flags on cmd.
func addTreeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagSpecies, "species", "", "southern-pine|northern-pine|southern-spruce|northern-spruce")
	cmd.Flags().Float64Var(&flagHeight, "height", 0, "tree height in m")
	cmd.Flags().Float64Var(&flagDiameter, "diameter", 0, "mean diameter under bark at breast height in cm")
	cmd.Flags().Float64Var(&flagFormFactor, "form-factor", 0.5, "form factor (0..1)")
	cmd.Flags().StringVar(&flagTree, "tree", "", "use a saved tree instead of --species/--height/--diameter")
}

// --- Calculation Commands ---

var diameterCmd = &cobra.Command{
	Use:   "diameter <height_m>",
	Short: "Stem diameter under bark at a height",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiameter,
}

var heightCmd = &cobra.Command{
	Use:   "height <diameter_cm>",
	Short: "Height at which the stem narrows to a diameter",
	Args:  cobra.ExactArgs(1),
	RunE:  runHeight,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Diameters sampled from the ground to the tip",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Derived model constants of a tree",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var volumeCmd = &cobra.Command{
	Use:   "volume [<from_m> <to_m>]",
	Short: "Stem volume under bark between two heights (whole stem by default)",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runVolume,
}

var flagStep float64

func init() {
	for _, cmd := range []*cobra.Command{diameterCmd, heightCmd, profileCmd, infoCmd, volumeCmd, buckCmd} {
		addTreeFlags(cmd)
	}
	profileCmd.Flags().Float64Var(&flagStep, "step", 0, "sampling step in m (default from config)")
}

func runDiameter(cmd *cobra.Command, args []string) error {
	h, err := parseFloatArg(args[0], "height")
	if err != nil {
		return outputError("diameter", err)
	}
	calc, _, err := resolveCalculator()
	if err != nil {
		return outputError("diameter", err)
	}
	share := h / calc.HeightM()
	return outputResult(CLIResult{
		Command: "diameter",
		Results: CLIDiameter{
			HeightM:    h,
			DiameterCM: calc.DiameterAtHeight(h),
			Region:     calc.RegionAtShare(min(max(share, 0), 1)).String(),
		},
	})
}

func runHeight(cmd *cobra.Command, args []string) error {
	d, err := parseFloatArg(args[0], "diameter")
	if err != nil {
		return outputError("height", err)
	}
	calc, _, err := resolveCalculator()
	if err != nil {
		return outputError("height", err)
	}
	share := calc.HeightShareAtDiameter(d)
	return outputResult(CLIResult{
		Command: "height",
		Results: CLIHeight{
			DiameterCM: d,
			HeightM:    share * calc.HeightM(),
			Region:     calc.RegionAtDiameter(d).String(),
		},
	})
}

func runProfile(cmd *cobra.Command, args []string) error {
	calc, _, err := resolveCalculator()
	if err != nil {
		return outputError("profile", err)
	}
	step := cfg.ProfileStepM
	if cmd.Flags().Changed("step") {
		step = flagStep
	}
	points := calc.Profile(step)
	if points == nil {
		return outputError("profile", fmt.Errorf("invalid step %v: must be positive and give at most %d points", step, taper.MaxProfilePoints))
	}
	return outputResult(CLIResult{
		Command: "profile",
		Results: CLIProfile{StepM: step, Points: points},
	})
}

func runInfo(cmd *cobra.Command, args []string) error {
	calc, _, err := resolveCalculator()
	if err != nil {
		return outputError("info", err)
	}
	return outputResult(CLIResult{Command: "info", Results: calc.Summary()})
}

func runVolume(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return outputError("volume", fmt.Errorf("requires both <from_m> and <to_m>, or neither"))
	}
	calc, _, err := resolveCalculator()
	if err != nil {
		return outputError("volume", err)
	}
	from, to := 0.0, calc.HeightM()
	if len(args) == 2 {
		if from, err = parseFloatArg(args[0], "from"); err != nil {
			return outputError("volume", err)
		}
		if to, err = parseFloatArg(args[1], "to"); err != nil {
			return outputError("volume", err)
		}
	}
	return outputResult(CLIResult{
		Command: "volume",
		Results: CLIVolume{FromM: from, ToM: to, VolumeM3: calc.Volume(from, to)},
	})
}

// --- Helpers ---

// resolveCalculator builds a Calculator from --tree or the ad-hoc tree flags.
// The saved tree is returned when --tree was used.
func resolveCalculator() (*taper.Calculator, *store.Tree, error) {
	if flagTree != "" {
		s, err := openStore()
		if err != nil {
			return nil, nil, err
		}
		defer s.Close()
		tree, err := s.TreeByName(flagTree)
		if err != nil {
			return nil, nil, err
		}
		if tree == nil {
			return nil, nil, fmt.Errorf("tree %q not found", flagTree)
		}
		calc, err := taper.NewFromParams(tree.Params())
		if err != nil {
			return nil, nil, fmt.Errorf("saved tree %q: %w", tree.Name, err)
		}
		return calc, tree, nil
	}

	p, err := paramsFromFlags()
	if err != nil {
		return nil, nil, err
	}
	calc, err := taper.NewFromParams(p)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("calculator ready",
		zap.Stringer("species", p.Species),
		zap.Int("form_class", calc.FormClass()),
		zap.Float64("root_swell_share", calc.RootSwellShare()))
	return calc, nil, nil
}

// paramsFromFlags reads --species, --height, --diameter and --form-factor.
func paramsFromFlags() (taper.Params, error) {
	if flagSpecies == "" {
		return taper.Params{}, fmt.Errorf("requires --species, --height and --diameter, or --tree")
	}
	sp, err := taper.ParseSpecies(flagSpecies)
	if err != nil {
		return taper.Params{}, err
	}
	return taper.Params{
		Species:             sp,
		HeightM:             flagHeight,
		DiameterUnderBarkCM: flagDiameter,
		FormFactor:          flagFormFactor,
	}, nil
}

// openStore opens and migrates the tree database, creating its directory.
func openStore() (*store.Store, error) {
	dbPath := cfg.DatabasePath
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	logger.Debug("opened tree database", zap.String("path", dbPath))
	return s, nil
}

// parseFloatArg parses a positional argument as a number with a clear error.
func parseFloatArg(value, name string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q: must be a number", name, value)
	}
	return v, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	logger.Debug("command failed", zap.String("command", command), zap.Error(err))
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}
