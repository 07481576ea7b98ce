package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jward/taper"
)

// formatDiameterText formats a diameter answer as a single line.
func formatDiameterText(w io.Writer, d CLIDiameter) {
	fmt.Fprintf(w, "%.2f cm at %.2f m (%s)\n", d.DiameterCM, d.HeightM, d.Region)
}

// formatHeightText formats a height answer as a single line.
func formatHeightText(w io.Writer, h CLIHeight) {
	fmt.Fprintf(w, "%.2f m at %.2f cm (%s)\n", h.HeightM, h.DiameterCM, h.Region)
}

// formatProfileText formats profile points as aligned columns.
func formatProfileText(w io.Writer, p CLIProfile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HEIGHT_M\tDIAMETER_CM")
	for _, pt := range p.Points {
		fmt.Fprintf(tw, "%.2f\t%.2f\n", pt.HeightM, pt.DiameterCM)
	}
	tw.Flush()
}

// formatSummaryText formats the derived constants as readable text.
func formatSummaryText(w io.Writer, s taper.Summary) {
	fmt.Fprintf(w, "Species: %s\n", s.Species)
	fmt.Fprintf(w, "Height: %.2f m\n", s.HeightM)
	fmt.Fprintf(w, "Diameter: %.2f cm\n", s.DiameterUnderBarkCM)
	fmt.Fprintf(w, "Form factor: %.3f\n", s.FormFactor)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Form quotient: %.4f (class %d)\n", s.FormQuotient, s.FormClass)
	fmt.Fprintf(w, "Root swell share: %.4f\n", s.RootSwellShare)
	fmt.Fprintf(w, "Diameter at end of root swell: %.0f cm\n", s.DiameterAtEndOfRootSwell)
	fmt.Fprintf(w, "Diameter at start of top: %.0f cm\n", s.DiameterAtStartOfTop)
	k := s.StemFormConstants
	fmt.Fprintf(w, "Constants: beta=%g gamma=%g q=%g Q=%g R=%g\n", k.Beta, k.Gamma, k.RootQ, k.StemQ, k.R)
}

// formatVolumeText formats a section volume as a single line.
func formatVolumeText(w io.Writer, v CLIVolume) {
	fmt.Fprintf(w, "%.4f m3 between %.2f m and %.2f m\n", v.VolumeM3, v.FromM, v.ToM)
}

// formatAssortmentsText formats logs as aligned columns.
func formatAssortmentsText(w io.Writer, logs []CLIAssortment) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tFROM_M\tTO_M\tTOP_CM\tVOLUME_M3")
	for _, l := range logs {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.1f\t%.4f\n",
			l.Ordinal, l.Kind, l.FromM, l.ToM, l.TopCM, l.VolumeM3)
	}
	tw.Flush()
}

// formatBuckText formats a bucking result with a volume footer.
func formatBuckText(w io.Writer, b CLIBuck) {
	formatAssortmentsText(w, b.Logs)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d logs, %.4f of %.4f m3", len(b.Logs), b.TotalVolumeM3, b.StemVolumeM3)
	if b.Saved {
		fmt.Fprintf(w, " (saved to %s)", b.Tree)
	}
	fmt.Fprintln(w)
}

// formatTreesText formats saved trees as aligned columns.
func formatTreesText(w io.Writer, trees []CLITree) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSPECIES\tHEIGHT_M\tDIAMETER_CM\tFORM_FACTOR")
	for _, t := range trees {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%.3f\n",
			t.ID, t.Name, t.Species, t.HeightM, t.DiameterCM, t.FormFactor)
	}
	tw.Flush()
}

// formatTreeDetailText formats one tree with its stored logs.
func formatTreeDetailText(w io.Writer, t CLITree) {
	formatTreesText(w, []CLITree{t})
	if t.Note != "" {
		fmt.Fprintf(w, "\nNote: %s\n", t.Note)
	}
	if len(t.Assortments) > 0 {
		fmt.Fprintln(w)
		formatAssortmentsText(w, t.Assortments)
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to os.Stdout.
// formatConfigText formats the effective configuration as readable text.
func formatConfigText(w io.Writer, c CLIConfig) {
	fmt.Fprintf(w, "Config file: %s\n", c.Path)
	fmt.Fprintf(w, "Database: %s\n", c.DatabasePath)
	fmt.Fprintf(w, "Format: %s\n", c.Format)
	fmt.Fprintf(w, "Log level: %s\n", c.LogLevel)
	if c.ScriptsDir != "" {
		fmt.Fprintf(w, "Scripts: %s\n", c.ScriptsDir)
	}
	fmt.Fprintf(w, "Profile step: %g m\n", c.ProfileStepM)
}

func outputResultText(result CLIResult) error {
	return writeResultText(os.Stdout, result)
}

func writeResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLIDiameter:
		formatDiameterText(w, v)
	case CLIHeight:
		formatHeightText(w, v)
	case CLIProfile:
		formatProfileText(w, v)
	case taper.Summary:
		formatSummaryText(w, v)
	case CLIVolume:
		formatVolumeText(w, v)
	case CLIBuck:
		formatBuckText(w, v)
	case []CLIBuck:
		for i, b := range v {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s ==\n", b.Tree)
			if b.Error != "" {
				fmt.Fprintf(w, "Error: %s\n", b.Error)
				continue
			}
			formatBuckText(w, b)
		}
	case []CLITree:
		formatTreesText(w, v)
	case CLITree:
		if result.Command == "tree show" {
			formatTreeDetailText(w, v)
		} else {
			formatTreesText(w, []CLITree{v})
		}
	case CLIConfig:
		formatConfigText(w, v)
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
	case map[string]string:
		for k, s := range v {
			fmt.Fprintf(w, "%s: %s\n", k, s)
		}
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
