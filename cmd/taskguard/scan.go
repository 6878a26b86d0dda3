package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/boshu2/taskguard/internal/classifier"
	"github.com/boshu2/taskguard/internal/config"
	"github.com/boshu2/taskguard/internal/detect"
	"github.com/boshu2/taskguard/internal/formatter"
	"github.com/boshu2/taskguard/internal/gate"
	"github.com/boshu2/taskguard/internal/scan"
)

// errGateFailed marks a run that completed but did not pass.
var errGateFailed = errors.New("scan gate failed")

var (
	scanRoot          string
	scanThreshold     string
	scanFailFast      bool
	scanWorkers       int
	scanRules         string
	scanGitleaks      bool
	scanClassifierURL string
	scanReport        string
)

var scanCmd = &cobra.Command{
	Use:   "scan [folder...]",
	Short: "Validate and scan task documents",
	Long: `Validate and security-scan every task folder under the task root.

Each task.md is checked for frontmatter, required sections and dangling
local references, and scanned for hardcoded secrets, prompt injection and
destructive commands. Text files next to task.md are scanned for secrets.

The command exits 1 when any document has a finding at or above the
threshold, when the run is interrupted, or when the task root cannot be read.

Examples:
  taskguard scan                          # Scan ./tasks
  taskguard scan mysql-to-postgresql      # Scan one task folder
  taskguard scan --threshold warning      # Fail on warnings too
  taskguard scan -o sarif --report scan.sarif
  taskguard scan --rules .taskguard/rules.toml --gitleaks`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanRoot, "root", "", "Task root directory (default: tasks)")
	scanCmd.Flags().StringVar(&scanThreshold, "threshold", "", "Lowest failing severity: info, warning, critical (default: critical)")
	scanCmd.Flags().BoolVar(&scanFailFast, "fail-fast", false, "Report the first failing document immediately")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 1, "Documents scanned at once (0 = one per CPU)")
	scanCmd.Flags().StringVar(&scanRules, "rules", "", "TOML file with extra detector rules")
	scanCmd.Flags().BoolVar(&scanGitleaks, "gitleaks", false, "Add the gitleaks rule set to secret detection")
	scanCmd.Flags().StringVar(&scanClassifierURL, "classifier-url", "", "Safety classifier endpoint (optional)")
	scanCmd.Flags().StringVar(&scanReport, "report", "", "Write the report to a file instead of stdout")
}

func runScan(cmd *cobra.Command, args []string) error {
	overrides := globalOverrides()
	overrides.Scan = config.ScanConfig{
		TaskRoot:  scanRoot,
		Threshold: scanThreshold,
		FailFast:  scanFailFast,
		RulesFile: scanRules,
		Gitleaks:  scanGitleaks,
	}
	overrides.Classifier.URL = scanClassifierURL

	cfg, err := config.Load(overrides)
	if err != nil {
		return err
	}
	// Zero is a meaningful worker count, so only an explicit flag applies.
	if cmd.Flags().Changed("workers") {
		cfg.Scan.Workers = scanWorkers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	VerbosePrintf("Scanning %s (threshold %s, workers %d)\n", cfg.Scan.TaskRoot, cfg.Scan.Threshold, cfg.Scan.Workers)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := cmd.OutOrStdout()
	if scanReport != "" && !GetDryRun() {
		f, err := os.Create(scanReport)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	return scanAndReport(ctx, cfg, args, w, newLogger(cfg))
}

// scanAndReport runs the orchestrator and renders its report to w. The error
// is non-nil whenever the process should exit non-zero.
func scanAndReport(ctx context.Context, cfg *config.Config, only []string, w io.Writer, log hclog.Logger) error {
	orch, err := newOrchestrator(cfg, only, log)
	if err != nil {
		return err
	}

	run, runErr := orch.Run(ctx)
	var infra *scan.InfraError
	if errors.As(runErr, &infra) {
		return runErr
	}

	if err := formatter.Render(w, cfg.Output, run); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if runErr != nil {
		return runErr
	}
	if !run.OK() {
		return fmt.Errorf("%w: %d of %d documents failed at threshold %s",
			errGateFailed, run.Summary.Failed, run.Summary.Scanned, run.Summary.Threshold)
	}
	return nil
}

func newOrchestrator(cfg *config.Config, only []string, log hclog.Logger) (*scan.Orchestrator, error) {
	threshold, err := cfg.Threshold()
	if err != nil {
		return nil, err
	}
	scanner, err := buildScanner(cfg)
	if err != nil {
		return nil, err
	}

	opts := scan.Options{
		Root:      cfg.Scan.TaskRoot,
		Only:      only,
		Threshold: threshold,
		FailFast:  cfg.Scan.FailFast,
		Workers:   cfg.Scan.Workers,
		Scanner:   scanner,
		Logger:    log,
	}
	if cfg.Scan.FailFast {
		opts.OnFailure = func(rep gate.Report) {
			fmt.Fprintf(os.Stderr, "FAIL %s: %d finding(s)\n", rep.DocumentID, len(rep.Findings))
		}
	}
	if cfg.Classifier.URL != "" {
		opts.Classifier = classifier.New(classifier.Options{
			URL:           cfg.Classifier.URL,
			Timeout:       cfg.ClassifierTimeout(),
			RatePerSecond: cfg.Classifier.RatePerSecond,
			Retries:       cfg.Classifier.Retries,
			Logger:        log.Named("classifier"),
			Redact:        scanner.Redact,
		})
	}
	return scan.New(opts), nil
}

// buildRuleset returns the built-in rules plus any custom rules file.
func buildRuleset(cfg *config.Config) (*detect.Ruleset, error) {
	rs := detect.DefaultRuleset()
	if cfg.Scan.RulesFile == "" {
		return rs, nil
	}
	return detect.LoadRules(cfg.Scan.RulesFile, rs)
}

// buildScanner assembles the ruleset and optional gitleaks source.
func buildScanner(cfg *config.Config) (*detect.Scanner, error) {
	rs, err := buildRuleset(cfg)
	if err != nil {
		return nil, err
	}
	return scannerFor(cfg, rs)
}

func scannerFor(cfg *config.Config, rs *detect.Ruleset) (*detect.Scanner, error) {
	var opts []detect.Option
	if cfg.Scan.Gitleaks {
		src, err := detect.NewGitleaksSource()
		if err != nil {
			return nil, err
		}
		opts = append(opts, detect.WithSpanSource(src))
	}
	return detect.NewScanner(rs, opts...), nil
}
