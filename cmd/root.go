package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string // Log verbosity level
	configPath string // YAML run configuration
	dataPath   string // Directory relative data paths resolve against
	startDate  string // Overrides the configured start date
	endDate    string // Overrides the configured end date
	workers    int    // Overrides the configured worker count
	traceLevel string // Overrides the configured trace level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ifrsim",
	Short: "Instream flow requirement simulator for regulated river reaches",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is not an error
		_ = godotenv.Load()

		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd evaluates every configured scenario of a reach over a date range
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the requirement pipeline for every scenario of a reach",
	Run: func(cmd *cobra.Command, args []string) {
		if configPath == "" {
			logrus.Fatalf("Run config not provided. Use --config.")
		}
		cfg, err := LoadRunConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		applyRunFlags(cmd, cfg)

		root := dataPath
		if root == "" {
			root = os.Getenv(dataPathEnv)
		}
		cfg.ResolvePaths(root)

		if err := runReach(cmd.Context(), cfg, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Run failed: %v", err)
		}
		logrus.Info("Run complete.")
	},
}

// applyRunFlags lets explicitly set CLI flags override the run config.
func applyRunFlags(cmd *cobra.Command, cfg *RunConfig) {
	if cmd.Flags().Changed("start") {
		cfg.Start = startDate
	}
	if cmd.Flags().Changed("end") {
		cfg.End = endDate
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("trace") {
		cfg.Output.Trace = traceLevel
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data-path", "", "Directory relative data paths resolve against (default $"+dataPathEnv+")")

	runCmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML run configuration")
	runCmd.Flags().StringVar(&startDate, "start", "", "First simulated date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&endDate, "end", "", "Last simulated date (YYYY-MM-DD)")
	runCmd.Flags().IntVar(&workers, "workers", 1, "Scenario timelines evaluated concurrently")
	runCmd.Flags().StringVar(&traceLevel, "trace", "", "Decision trace level (none, decisions)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(wytCmd)
	rootCmd.AddCommand(dowyCmd)
}
