// =============================================================================
// CSB 19 Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (csb19)
//   ├── generateCmd (csb19 generate)
//   ├── validateCmd (csb19 validate)
//   ├── layoutCmd   (csb19 layout)
//   ├── historyCmd  (csb19 history)
//   └── versionCmd  (csb19 version)
//
// The root command owns the global flags and the shared start-up: loading
// the configuration, setting up logging and registering process methods.
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ginjaninja78/csb19-generator/internal/config"
	"github.com/ginjaninja78/csb19-generator/internal/csb19"
	"github.com/ginjaninja78/csb19-generator/internal/logging"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile holds the path to an optional .env file.
var envFile string

// verbose forces debug logging regardless of the configured level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "csb19",
	Short: "CSB 19 Generator - Build Spanish direct debit files from receipt exports",
	Long: `CSB 19 Generator turns receipt exports (CSV or XLSX) into CSB 19 direct
debit files, the 162 column fixed-width format Spanish banks accept for
collections.

Key Features:
  - One configuration per presenting company
  - Payment journals deciding the optional concept and domicile records
  - Validation with row-level error reporting before any file is written
  - Concurrent processing of the input directory
  - Output in ISO-8859-1, Windows-1252 or UTF-8
  - Attachment history in SQLite

Example Usage:
  csb19 generate                          # Generate files for every input
  csb19 generate --file input/acme.csv    # Generate a single file
  csb19 validate                          # Check inputs without generating
  csb19 layout --out layout.xlsx          # Export the record layout`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env",
		"",
		"Path to a .env file (default: ./.env when present)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED START-UP
// =============================================================================

// app is what every command needs once the configuration is loaded.
type app struct {
	config     *config.MainConfig
	presenters map[string]*config.PresenterConfig
	registry   *config.Registry
	logger     *slog.Logger
}

// loadApp loads the configuration, sets up logging and checks the journals
// against the registered process methods.
func loadApp() (*app, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile, envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	level := mainConfig.LogLevel
	if verbose {
		level = "debug"
	}
	logger := logging.Init(logging.Config{Level: level, Format: mainConfig.LogFormat}, os.Stderr)

	registry := config.NewRegistry()
	csb19.Register(registry)
	if err := mainConfig.ValidateJournals(registry); err != nil {
		return nil, err
	}

	presenters, err := config.LoadPresenterConfigs(mainConfig.PresentersDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load presenter configs: %w", err)
	}
	for code, p := range presenters {
		if _, err := mainConfig.ResolveJournal(p.Journal, csb19.ProcessMethod); err != nil {
			return nil, fmt.Errorf("presenter %s: %w", code, err)
		}
	}

	logger.Debug("configuration loaded",
		"config", cfgFile,
		"journals", len(mainConfig.Journals),
		"presenters", len(presenters),
	)

	return &app{
		config:     mainConfig,
		presenters: presenters,
		registry:   registry,
		logger:     logger,
	}, nil
}
