package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/taper/internal/config"
)

var flagForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or write the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  "Prints the configuration after the file, TAPER_* environment variables and flags are applied.",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&flagForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultPath()
}

func configToCLI(path string, c *config.Config) CLIConfig {
	return CLIConfig{
		Path:         path,
		DatabasePath: c.DatabasePath,
		Format:       c.Format,
		LogLevel:     c.LogLevel,
		ScriptsDir:   c.ScriptsDir,
		ProfileStepM: c.ProfileStepM,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	return outputResult(CLIResult{Command: "config show", Results: configToCLI(configPath(), cfg)})
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if _, err := os.Stat(path); err == nil && !flagForce {
		return outputError("config init", fmt.Errorf("config file %s already exists (use --force to overwrite)", path))
	}
	if err := cfg.Save(path); err != nil {
		return outputError("config init", err)
	}
	logger.Debug("wrote config", zap.String("path", path))
	return outputResult(CLIResult{Command: "config init", Results: configToCLI(path, cfg)})
}
