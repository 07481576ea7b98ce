package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jward/taper/internal/config"
)

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagVerbose bool
)

var (
	cfg    *config.Config
	logger = zap.NewNop()
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "taper",
	Short:         "Stem taper calculations for pine and spruce",
	Long:          "Taper evaluates the Edgren & Nylinder stem taper model: diameter at a height, height at a diameter, stem volume and log bucking for Swedish pine and spruce.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return initLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "tree database path (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(diameterCmd)
	rootCmd.AddCommand(heightCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(buckCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the config file and lets explicitly set flags win over it.
func loadConfig(cmd *cobra.Command) error {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		c.DatabasePath = flagDB
	}
	if cmd.Flags().Changed("format") {
		c.Format = flagFormat
	} else {
		flagFormat = c.Format
	}
	cfg = c
	return nil
}

// initLogger builds the process logger from the configured level.
func initLogger() error {
	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	if flagVerbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	l, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}
