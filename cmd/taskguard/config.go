package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/boshu2/taskguard/internal/config"
	"github.com/boshu2/taskguard/internal/formatter"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show resolved configuration",
	Long: `Show the resolved taskguard configuration and where each value came from.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (TASKGUARD_*)
  3. Project config (.taskguard/config.yaml, or TASKGUARD_CONFIG)
  4. Home config (~/.taskguard/config.yaml)
  5. Defaults

Environment variables:
  TASKGUARD_CONFIG              - Explicit project config file path
  TASKGUARD_OUTPUT              - Default output format
  TASKGUARD_VERBOSE             - Enable verbose output (true/1)
  TASKGUARD_LOG_LEVEL           - trace, debug, info, warn, error or off
  TASKGUARD_TASK_ROOT           - Task root directory
  TASKGUARD_THRESHOLD           - info, warning or critical
  TASKGUARD_FAIL_FAST           - Report the first failure immediately (true/1)
  TASKGUARD_WORKERS             - Documents scanned at once
  TASKGUARD_RULES_FILE          - TOML file with extra detector rules
  TASKGUARD_GITLEAKS            - Add the gitleaks rule set (true/1)
  TASKGUARD_CLASSIFIER_URL      - Safety classifier endpoint
  TASKGUARD_CLASSIFIER_TIMEOUT  - Classifier request timeout (e.g. 10s)
  TASKGUARD_CLASSIFIER_RATE     - Classifier requests per second
  TASKGUARD_CLASSIFIER_RETRIES  - Classifier retries
  TASKGUARD_INDEX_OUTPUT        - Task index path

Examples:
  taskguard config           # Show resolved configuration
  taskguard config -o json   # Output as JSON`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	resolved := config.Resolve(globalOverrides())
	home, project := config.Paths()
	return writeConfig(cmd.OutOrStdout(), GetOutput(), resolved, home, project)
}

func writeConfig(w io.Writer, format string, resolved config.ResolvedConfig, home, project string) error {
	switch format {
	case formatter.FormatJSON:
		data, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatter.FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(resolved); err != nil {
			return err
		}
		return enc.Close()
	}

	fmt.Fprintln(w, "taskguard configuration")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config files:")
	for _, f := range []struct{ label, path string }{{"Home:   ", home}, {"Project:", project}} {
		if _, err := os.Stat(f.path); err == nil {
			fmt.Fprintf(w, "  ✓ %s %s\n", f.label, f.path)
		} else {
			fmt.Fprintf(w, "  ✗ %s %s (not found)\n", f.label, f.path)
		}
	}
	fmt.Fprintln(w)

	tbl := formatter.NewTable(w, "KEY", "VALUE", "SOURCE")
	for _, r := range resolved {
		tbl.AddRow(r.Key, fmt.Sprint(r.Value), string(r.Source))
	}
	return tbl.Render()
}
