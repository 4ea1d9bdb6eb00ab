package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"scheduleall/internal/config"
)

var (
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scheduled",
	Short: "Custom schedule slot server",
	Long: `scheduled runs a colony simulation in which colonists' timetables may use
custom schedule slots. While a colonist is inside a custom slot, the slot's
target work type is raised to the top priority; when the slot ends the
previous priority comes back.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		switch {
		case err == nil:
			cfg = loaded
		case configPath == "" && errors.Is(err, fs.ErrNotExist):
			cfg = config.Default()
		default:
			return err
		}

		zc := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.Runtime.LogLevel)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml (default: ~/.scheduleall/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(uninstallCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
