package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/boshu2/taskguard/internal/config"
	"github.com/boshu2/taskguard/internal/detect"
	"github.com/boshu2/taskguard/internal/formatter"
)

var (
	rulesFile     string
	rulesGitleaks bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active detector rules",
	Long: `List every rule the scanner applies: the built-in ruleset plus any
rules from scan.rules_file.

Destructive-command rules are listed at Warning; they report Critical when
the same code block also escalates privileges.

Examples:
  taskguard rules
  taskguard rules --rules .taskguard/rules.toml -o json`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVar(&rulesFile, "rules", "", "TOML file with extra detector rules")
	rulesCmd.Flags().BoolVar(&rulesGitleaks, "gitleaks", false, "Include the gitleaks source in the version")
}

// rulesListing is the machine-readable form of the rules command.
type rulesListing struct {
	Version   string            `json:"version" yaml:"version"`
	Detectors []string          `json:"detectors" yaml:"detectors"`
	Rules     []detect.RuleInfo `json:"rules" yaml:"rules"`
}

func runRules(cmd *cobra.Command, args []string) error {
	overrides := globalOverrides()
	overrides.Scan = config.ScanConfig{RulesFile: rulesFile, Gitleaks: rulesGitleaks}
	cfg, err := loadConfig(overrides)
	if err != nil {
		return err
	}

	rs, err := buildRuleset(cfg)
	if err != nil {
		return err
	}
	scanner, err := scannerFor(cfg, rs)
	if err != nil {
		return err
	}
	return writeRules(cmd.OutOrStdout(), cfg.Output, rulesListing{
		Version:   scanner.Version(),
		Detectors: scanner.Detectors(),
		Rules:     rs.Describe(),
	})
}

func writeRules(w io.Writer, format string, listing rulesListing) error {
	switch format {
	case formatter.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	case formatter.FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(listing); err != nil {
			return err
		}
		return enc.Close()
	}

	if _, err := fmt.Fprintf(w, "Ruleset %s\nDetectors: %s\n\n", listing.Version, strings.Join(listing.Detectors, ", ")); err != nil {
		return err
	}
	tbl := formatter.NewTable(w, "DETECTOR", "RULE", "SEVERITY", "DESCRIPTION")
	for _, r := range listing.Rules {
		tbl.AddRow(r.Detector, r.ID, r.Severity.String(), r.Description)
	}
	return tbl.Render()
}
