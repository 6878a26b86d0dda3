package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/boshu2/taskguard/internal/config"
	"github.com/boshu2/taskguard/internal/logger"
)

var (
	// Global flags
	dryRun  bool
	verbose bool
	output  string
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "taskguard",
	Short: "Validate and security-scan task documents",
	Long: `taskguard checks the task documents under a task root before they are
handed to an agent as prompts.

Every folder holding a task.md is validated (frontmatter, sections,
references) and scanned for hardcoded secrets, prompt injection and
destructive commands. A document fails when any finding reaches the
threshold; the run fails when any document fails.

Commands:
  scan     Validate and scan task documents
  index    Generate the task index
  rules    List the active detector rules
  config   Show resolved configuration
  version  Show version information`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		syncConfigFlagToEnv()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would happen without writing files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (table, json, yaml, markdown, sarif)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .taskguard/config.yaml)")
}

// GetDryRun returns the dry-run flag value for use by subcommands.
func GetDryRun() bool {
	return dryRun
}

// GetVerbose returns the verbose flag value for use by subcommands.
func GetVerbose() bool {
	return verbose
}

// GetOutput returns the output format for use by subcommands.
func GetOutput() string {
	return output
}

// GetConfigFile returns the config file path for use by subcommands.
func GetConfigFile() string {
	return cfgFile
}

// VerbosePrintf prints to stderr only when verbose mode is enabled.
func VerbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func syncConfigFlagToEnv() {
	path := strings.TrimSpace(GetConfigFile())
	if path == "" {
		return
	}
	_ = os.Setenv(config.EnvConfig, path)
}

// globalOverrides returns the config values set by global flags.
func globalOverrides() *config.Config {
	return &config.Config{Output: GetOutput(), Verbose: GetVerbose()}
}

// loadConfig resolves and validates configuration with flag overrides.
func loadConfig(overrides *config.Config) (*config.Config, error) {
	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) hclog.Logger {
	return logger.New(cfg, "taskguard")
}
