// Package scan runs the validation and scanning pipeline over every task
// folder under a task root and gates the results.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/boshu2/taskguard/internal/detect"
	"github.com/boshu2/taskguard/internal/finding"
	"github.com/boshu2/taskguard/internal/gate"
	"github.com/boshu2/taskguard/internal/task"
	"github.com/boshu2/taskguard/internal/validate"
	"github.com/boshu2/taskguard/internal/worker"
)

// MaxSiblingSize bounds the sibling files read for secret scanning.
const MaxSiblingSize = 1 << 20

// Classifier returns extra prompt-injection findings for a document body,
// with lines relative to the body. Implementations swallow their own errors.
type Classifier interface {
	Findings(ctx context.Context, text string) []finding.Finding
}

// Options configures an Orchestrator.
type Options struct {
	// Root is the task root holding one folder per task.
	Root string

	// Only restricts the run to these folder names.
	Only []string

	Threshold finding.Severity

	// FailFast reports the first failing document as soon as it is known.
	// Every document is still scanned.
	FailFast bool

	// Workers is the number of documents scanned at once; 0 means
	// GOMAXPROCS.
	Workers int

	// Scanner defaults to the built-in ruleset.
	Scanner *detect.Scanner

	// Classifier is optional.
	Classifier Classifier

	Logger hclog.Logger

	// OnFailure is called once, for the first failing document, when
	// FailFast is set.
	OnFailure func(gate.Report)
}

// Orchestrator drives one scan run. It is not reusable across runs.
type Orchestrator struct {
	opts    Options
	scanner *detect.Scanner
	logger  hclog.Logger

	mu    sync.Mutex
	state State

	failOnce sync.Once
}

// New builds an orchestrator from opts.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	scanner := opts.Scanner
	if scanner == nil {
		scanner = detect.NewScanner(nil)
	}
	return &Orchestrator{
		opts:    opts,
		scanner: scanner,
		logger:  logger.Named("scan"),
		state:   StateIdle,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State, args ...interface{}) {
	o.mu.Lock()
	prev := o.state
	o.state = s
	o.mu.Unlock()
	o.logger.Debug("state change", append([]interface{}{"from", prev.String(), "to", s.String()}, args...)...)
}

// Run scans every task folder and returns the gated run. An *InfraError
// fails the run and no report is returned. When ctx is cancelled the partial
// run is returned together with the context error; unscanned documents are
// listed as skipped.
func (o *Orchestrator) Run(ctx context.Context) (gate.Run, error) {
	if o.State() != StateIdle {
		return gate.Run{}, fmt.Errorf("orchestrator already ran (state %s)", o.State())
	}

	dirs, err := task.Discover(o.opts.Root, o.opts.Only)
	if err != nil {
		return o.fail(&InfraError{Op: "discover", Path: o.opts.Root, Err: err})
	}
	o.logger.Info("scanning task root", "root", o.opts.Root, "documents", len(dirs),
		"threshold", o.opts.Threshold.String(), "ruleset", o.scanner.Version())

	o.setState(StateScanning, "documents", len(dirs))
	pool := worker.NewPool[gate.Report](o.opts.Workers)
	results, err := pool.Process(ctx, dirs, func(ctx context.Context, dir string) (gate.Report, error) {
		return o.ScanDocument(ctx, dir)
	})

	var infra *InfraError
	if errors.As(err, &infra) {
		return o.fail(infra)
	}

	o.setState(StateAggregating)
	reports := make([]gate.Report, 0, len(results))
	var skipped []string
	for _, r := range results {
		if r.Done && r.Err == nil {
			reports = append(reports, r.Value)
		} else {
			skipped = append(skipped, filepath.Base(dirs[r.Index]))
		}
	}
	run := gate.Summarize(o.opts.Root, reports, skipped, o.opts.Threshold, o.scanner.Version())

	o.setState(StateReporting, "scanned", run.Summary.Scanned, "failed", run.Summary.Failed)
	if err != nil {
		o.logger.Warn("scan interrupted", "skipped", len(skipped), "error", err)
		o.setState(StateDone)
		return run, fmt.Errorf("scan interrupted: %w", err)
	}
	o.setState(StateDone)
	return run, nil
}

func (o *Orchestrator) fail(err *InfraError) (gate.Run, error) {
	o.logger.Error("scan failed", "op", err.Op, "path", err.Path, "error", err.Err)
	o.setState(StateFailed)
	return gate.Run{}, err
}

// ScanDocument validates and scans the task folder dir and gates the result.
// Only unreadable files produce an error.
func (o *Orchestrator) ScanDocument(ctx context.Context, dir string) (gate.Report, error) {
	src, err := task.ReadSource(dir)
	if err != nil {
		return gate.Report{}, &InfraError{Op: "read", Path: dir, Err: err}
	}
	o.logger.Debug("scanning document", "document", src.Folder, "siblings", len(src.Siblings))

	findings, err := o.documentFindings(ctx, src)
	if err != nil {
		return gate.Report{}, err
	}
	rep := gate.Aggregate(src.Folder, findings, o.opts.Threshold)

	c := rep.Counts()
	o.logger.Debug("document scanned", "document", rep.DocumentID, "passed", rep.Passed,
		"critical", c.Critical, "warning", c.Warning, "info", c.Info)
	if !rep.Passed && o.opts.FailFast {
		o.failOnce.Do(func() {
			o.logger.Error("document failed", "document", rep.DocumentID, "findings", len(rep.Findings))
			if o.opts.OnFailure != nil {
				o.opts.OnFailure(rep)
			}
		})
	}
	return rep, nil
}

func (o *Orchestrator) documentFindings(ctx context.Context, src *task.Source) ([]finding.Finding, error) {
	doc, err := src.Document()

	var findings []finding.Finding
	var fe *task.FrontmatterError
	switch {
	case errors.As(err, &fe):
		findings = append(findings, validate.Frontmatter(fe))
	case err != nil:
		return nil, &InfraError{Op: "extract", Path: src.Path, Err: err}
	default:
		findings = append(findings, validate.Document(doc)...)
	}

	if doc.Frontmatter != "" {
		findings = append(findings, o.scanner.Scan(doc.Frontmatter, task.FrontmatterLine)...)
	}
	findings = append(findings, o.scanner.Scan(doc.Body, doc.BodyLine)...)

	if o.opts.Classifier != nil {
		for _, f := range o.opts.Classifier.Findings(ctx, doc.Body) {
			findings = append(findings, f.ShiftLines(doc.BodyLine-1))
		}
	}

	for _, name := range src.Siblings {
		found, err := o.scanSibling(src.Dir, name)
		if err != nil {
			return nil, err
		}
		findings = append(findings, found...)
	}
	return findings, nil
}

func (o *Orchestrator) scanSibling(dir, name string) ([]finding.Finding, error) {
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, &InfraError{Op: "stat", Path: path, Err: err}
	}
	if info.Size() > MaxSiblingSize {
		o.logger.Debug("sibling too large, not scanned", "file", path, "size", info.Size())
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InfraError{Op: "read", Path: path, Err: err}
	}
	if !detect.IsText(data) {
		o.logger.Trace("binary sibling, not scanned", "file", path)
		return nil, nil
	}
	return o.scanner.ScanSibling(name, string(data)), nil
}
