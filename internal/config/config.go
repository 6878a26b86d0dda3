// Package config provides configuration management for taskguard.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (TASKGUARD_*)
// 3. Project config (.taskguard/config.yaml in cwd, or TASKGUARD_CONFIG)
// 4. Home config (~/.taskguard/config.yaml)
// 5. Defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/boshu2/taskguard/internal/finding"
)

// Config holds all taskguard configuration.
type Config struct {
	// Output controls the default report format.
	Output string `yaml:"output" json:"output" validate:"omitempty,oneof=table json yaml markdown sarif"`

	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// LogLevel sets the log level (trace, debug, info, warn, error, off).
	// TASKGUARD_LOG_LEVEL is used when empty.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=trace debug info warn error off"`

	Scan       ScanConfig       `yaml:"scan" json:"scan"`
	Classifier ClassifierConfig `yaml:"classifier" json:"classifier"`
	Index      IndexConfig      `yaml:"index" json:"index"`
}

// ScanConfig holds scan settings.
type ScanConfig struct {
	// TaskRoot is the directory holding one folder per task.
	TaskRoot string `yaml:"task_root" json:"task_root" validate:"required"`

	// Threshold is the lowest severity that fails a document.
	Threshold string `yaml:"threshold" json:"threshold" validate:"required,oneof=info warning critical"`

	// FailFast reports the first failing document as soon as it is known.
	FailFast bool `yaml:"fail_fast" json:"fail_fast"`

	// Workers is the number of documents scanned at once (0 = GOMAXPROCS).
	Workers int `yaml:"workers" json:"workers" validate:"gte=0,lte=256"`

	// RulesFile is an optional TOML file of extra detector rules.
	RulesFile string `yaml:"rules_file" json:"rules_file"`

	// Gitleaks adds the gitleaks rule set to the secret detector.
	Gitleaks bool `yaml:"gitleaks" json:"gitleaks"`

	// workersSet records an explicit workers key in a config file, so that
	// workers: 0 overrides a lower layer.
	workersSet bool
}

// ClassifierConfig holds settings for the optional safety classifier.
type ClassifierConfig struct {
	// URL of the classification endpoint. Empty disables the classifier.
	URL string `yaml:"url" json:"url" validate:"omitempty,url"`

	// Timeout per request, as a Go duration.
	Timeout string `yaml:"timeout" json:"timeout"`

	// RatePerSecond bounds outgoing requests.
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second" validate:"gte=0"`

	// Retries on transport errors and 5xx responses.
	Retries int `yaml:"retries" json:"retries" validate:"gte=0,lte=10"`
}

// IndexConfig holds task index settings.
type IndexConfig struct {
	// Output is the generated index path.
	Output string `yaml:"output" json:"output" validate:"required"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput            = "table"
	defaultTaskRoot          = "tasks"
	defaultThreshold         = "critical"
	defaultWorkers           = 1
	defaultClassifierTimeout = "10s"
	defaultClassifierRate    = 2.0
	defaultClassifierRetries = 2
	defaultIndexOutput       = "tasks.json"
	projectDirName           = ".taskguard"
	configFileName           = "config.yaml"
)

// Environment variables read outside applyEnv.
const (
	EnvConfig   = "TASKGUARD_CONFIG"
	EnvLogLevel = "TASKGUARD_LOG_LEVEL"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output: defaultOutput,
		Scan: ScanConfig{
			TaskRoot:  defaultTaskRoot,
			Threshold: defaultThreshold,
			Workers:   defaultWorkers,
		},
		Classifier: ClassifierConfig{
			Timeout:       defaultClassifierTimeout,
			RatePerSecond: defaultClassifierRate,
			Retries:       defaultClassifierRetries,
		},
		Index: IndexConfig{
			Output: defaultIndexOutput,
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
// Missing config files are skipped; unreadable or malformed ones are errors.
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	homeConfig, err := loadFromPath(homeConfigPath())
	if err != nil {
		return nil, err
	}
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, err := loadFromPath(projectConfigPath())
	if err != nil {
		return nil, err
	}
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// Validate lower-cases enumerated values, then checks field constraints and
// value formats.
func (c *Config) Validate() error {
	c.normalize()
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Classifier.Timeout != "" {
		if _, err := time.ParseDuration(c.Classifier.Timeout); err != nil {
			return fmt.Errorf("%w: classifier.timeout: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.Output = strings.ToLower(strings.TrimSpace(c.Output))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Scan.Threshold = strings.ToLower(strings.TrimSpace(c.Scan.Threshold))
}

// Threshold returns the parsed scan threshold.
func (c *Config) Threshold() (finding.Severity, error) {
	s, err := finding.ParseSeverity(c.Scan.Threshold)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidThreshold, err)
	}
	return s, nil
}

// ClassifierTimeout returns the classifier request timeout.
func (c *Config) ClassifierTimeout() time.Duration {
	d, err := time.ParseDuration(c.Classifier.Timeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(defaultClassifierTimeout)
	}
	return d
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, projectDirName, configFileName)
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv(EnvConfig)); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, projectDirName, configFileName)
}

// loadFromPath loads config from a YAML file. A missing file yields nil.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	var keys struct {
		Scan struct {
			Workers *int `yaml:"workers"`
		} `yaml:"scan"`
	}
	if err := yaml.Unmarshal(data, &keys); err == nil && keys.Scan.Workers != nil {
		cfg.Scan.workersSet = true
	}

	return &cfg, nil
}

// envTrue reports whether an environment flag is set to a truthy value.
func envTrue(key string) bool {
	v := os.Getenv(key)
	return v == "true" || v == "1"
}

// applyEnv applies environment variable overrides. Unparseable numbers are
// ignored.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("TASKGUARD_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if envTrue("TASKGUARD_VERBOSE") {
		cfg.Verbose = true
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TASKGUARD_TASK_ROOT"); v != "" {
		cfg.Scan.TaskRoot = v
	}
	if v := os.Getenv("TASKGUARD_THRESHOLD"); v != "" {
		cfg.Scan.Threshold = v
	}
	if envTrue("TASKGUARD_FAIL_FAST") {
		cfg.Scan.FailFast = true
	}
	if v, err := strconv.Atoi(os.Getenv("TASKGUARD_WORKERS")); err == nil {
		cfg.Scan.Workers = v
	}
	if v := os.Getenv("TASKGUARD_RULES_FILE"); v != "" {
		cfg.Scan.RulesFile = v
	}
	if envTrue("TASKGUARD_GITLEAKS") {
		cfg.Scan.Gitleaks = true
	}
	if v := os.Getenv("TASKGUARD_CLASSIFIER_URL"); v != "" {
		cfg.Classifier.URL = v
	}
	if v := os.Getenv("TASKGUARD_CLASSIFIER_TIMEOUT"); v != "" {
		cfg.Classifier.Timeout = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("TASKGUARD_CLASSIFIER_RATE"), 64); err == nil {
		cfg.Classifier.RatePerSecond = v
	}
	if v, err := strconv.Atoi(os.Getenv("TASKGUARD_CLASSIFIER_RETRIES")); err == nil {
		cfg.Classifier.Retries = v
	}
	if v := os.Getenv("TASKGUARD_INDEX_OUTPUT"); v != "" {
		cfg.Index.Output = v
	}
	return cfg
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergeInt overwrites dst with src when src is non-zero.
func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

func mergeFloat(dst *float64, src float64) {
	if src != 0 {
		*dst = src
	}
}

// merge merges src into dst, with src values taking precedence.
// Booleans can only be switched on by a higher layer.
func merge(dst, src *Config) *Config {
	mergeStr(&dst.Output, src.Output)
	if src.Verbose {
		dst.Verbose = true
	}
	mergeStr(&dst.LogLevel, src.LogLevel)

	mergeScan(&dst.Scan, &src.Scan)
	mergeClassifier(&dst.Classifier, &src.Classifier)
	mergeStr(&dst.Index.Output, src.Index.Output)

	return dst
}

// mergeScan merges scan-specific config fields.
func mergeScan(dst, src *ScanConfig) {
	mergeStr(&dst.TaskRoot, src.TaskRoot)
	mergeStr(&dst.Threshold, src.Threshold)
	if src.FailFast {
		dst.FailFast = true
	}
	if src.workersSet {
		dst.Workers = src.Workers
	} else {
		mergeInt(&dst.Workers, src.Workers)
	}
	mergeStr(&dst.RulesFile, src.RulesFile)
	if src.Gitleaks {
		dst.Gitleaks = true
	}
}

// mergeClassifier merges classifier config fields.
func mergeClassifier(dst, src *ClassifierConfig) {
	mergeStr(&dst.URL, src.URL)
	mergeStr(&dst.Timeout, src.Timeout)
	mergeFloat(&dst.RatePerSecond, src.RatePerSecond)
	mergeInt(&dst.Retries, src.Retries)
}
