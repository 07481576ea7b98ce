package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/taper"
	"github.com/jward/taper/internal/store"
)

var (
	flagNote          string
	flagFilterSpecies string
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Manage saved trees",
}

var treeAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Save a tree under a name",
	Args:  cobra.ExactArgs(1),
	RunE:  runTreeAdd,
}

var treeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved trees",
	Args:  cobra.NoArgs,
	RunE:  runTreeList,
}

var treeShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a saved tree and its stored logs",
	Args:  cobra.ExactArgs(1),
	RunE:  runTreeShow,
}

var treeRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a saved tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runTreeRm,
}

func init() {
	treeAddCmd.Flags().StringVar(&flagSpecies, "species", "", "southern-pine|northern-pine|southern-spruce|northern-spruce")
	treeAddCmd.Flags().Float64Var(&flagHeight, "height", 0, "tree height in m")
	treeAddCmd.Flags().Float64Var(&flagDiameter, "diameter", 0, "mean diameter under bark at breast height in cm")
	treeAddCmd.Flags().Float64Var(&flagFormFactor, "form-factor", 0.5, "form factor (0..1)")
	treeAddCmd.Flags().StringVar(&flagNote, "note", "", "free-form note")
	treeListCmd.Flags().StringVar(&flagFilterSpecies, "species", "", "only list trees of this species")

	treeCmd.AddCommand(treeAddCmd)
	treeCmd.AddCommand(treeListCmd)
	treeCmd.AddCommand(treeShowCmd)
	treeCmd.AddCommand(treeRmCmd)
}

func runTreeAdd(cmd *cobra.Command, args []string) error {
	p, err := paramsFromFlags()
	if err != nil {
		return outputError("tree add", err)
	}
	if err := p.Validate(); err != nil {
		return outputError("tree add", err)
	}

	s, err := openStore()
	if err != nil {
		return outputError("tree add", err)
	}
	defer s.Close()

	existing, err := s.TreeByName(args[0])
	if err != nil {
		return outputError("tree add", err)
	}
	if existing != nil {
		return outputError("tree add", fmt.Errorf("tree %q already exists", args[0]))
	}

	tree := &store.Tree{
		Name:       args[0],
		Species:    p.Species,
		HeightM:    p.HeightM,
		DiameterCM: p.DiameterUnderBarkCM,
		FormFactor: p.FormFactor,
		Note:       flagNote,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if _, err := s.InsertTree(tree); err != nil {
		return outputError("tree add", err)
	}
	logger.Info("saved tree", zap.String("name", tree.Name), zap.Int64("id", tree.ID))

	return outputResult(CLIResult{Command: "tree add", Results: treeToCLI(tree)})
}

func runTreeList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("tree list", err)
	}
	defer s.Close()

	var trees []*store.Tree
	if flagFilterSpecies != "" {
		sp, perr := taper.ParseSpecies(flagFilterSpecies)
		if perr != nil {
			return outputError("tree list", perr)
		}
		trees, err = s.TreesBySpecies(sp)
	} else {
		trees, err = s.Trees()
	}
	if err != nil {
		return outputError("tree list", err)
	}

	out := make([]CLITree, 0, len(trees))
	for _, t := range trees {
		out = append(out, treeToCLI(t))
	}
	return outputResult(CLIResult{Command: "tree list", Results: out})
}

func runTreeShow(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("tree show", err)
	}
	defer s.Close()

	tree, err := s.TreeByName(args[0])
	if err != nil {
		return outputError("tree show", err)
	}
	if tree == nil {
		return outputError("tree show", fmt.Errorf("tree %q not found", args[0]))
	}
	logs, err := s.AssortmentsByTree(tree.ID)
	if err != nil {
		return outputError("tree show", err)
	}

	out := treeToCLI(tree)
	if len(logs) > 0 {
		out.Assortments = assortmentsToCLI(logs)
	}
	return outputResult(CLIResult{Command: "tree show", Results: out})
}

func runTreeRm(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("tree rm", err)
	}
	defer s.Close()

	removed, err := s.DeleteTree(args[0])
	if err != nil {
		return outputError("tree rm", err)
	}
	if !removed {
		return outputError("tree rm", fmt.Errorf("tree %q not found", args[0]))
	}
	return outputResult(CLIResult{Command: "tree rm", Results: map[string]string{"removed": args[0]}})
}

// treeToCLI converts a store.Tree to a CLITree.
func treeToCLI(t *store.Tree) CLITree {
	out := CLITree{
		ID:         t.ID,
		Name:       t.Name,
		Species:    t.Species.String(),
		HeightM:    t.HeightM,
		DiameterCM: t.DiameterCM,
		FormFactor: t.FormFactor,
		Note:       t.Note,
	}
	if !t.CreatedAt.IsZero() {
		out.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	}
	return out
}
