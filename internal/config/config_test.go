package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/boshu2/taskguard/internal/finding"
)

var envKeys = []string{
	"TASKGUARD_OUTPUT", "TASKGUARD_VERBOSE", "TASKGUARD_LOG_LEVEL",
	"TASKGUARD_TASK_ROOT", "TASKGUARD_THRESHOLD", "TASKGUARD_FAIL_FAST",
	"TASKGUARD_WORKERS", "TASKGUARD_RULES_FILE", "TASKGUARD_GITLEAKS",
	"TASKGUARD_CLASSIFIER_URL", "TASKGUARD_CLASSIFIER_TIMEOUT",
	"TASKGUARD_CLASSIFIER_RATE", "TASKGUARD_CLASSIFIER_RETRIES",
	"TASKGUARD_INDEX_OUTPUT",
}

// isolate points home and project config at an empty temp dir and clears
// every TASKGUARD_ variable.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv(EnvConfig, filepath.Join(dir, "missing.yaml"))
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Output != "table" {
		t.Errorf("Default Output = %q, want %q", cfg.Output, "table")
	}
	if cfg.Verbose {
		t.Error("Default Verbose = true, want false")
	}
	if cfg.Scan.TaskRoot != "tasks" {
		t.Errorf("Default Scan.TaskRoot = %q, want %q", cfg.Scan.TaskRoot, "tasks")
	}
	if cfg.Scan.Threshold != "critical" {
		t.Errorf("Default Scan.Threshold = %q, want %q", cfg.Scan.Threshold, "critical")
	}
	if cfg.Scan.FailFast {
		t.Error("Default Scan.FailFast = true, want false")
	}
	if cfg.Scan.Workers != 1 {
		t.Errorf("Default Scan.Workers = %d, want 1", cfg.Scan.Workers)
	}
	if cfg.Index.Output != "tasks.json" {
		t.Errorf("Default Index.Output = %q, want %q", cfg.Index.Output, "tasks.json")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default Validate() = %v", err)
	}
}

func TestMerge(t *testing.T) {
	dst := Default()
	src := &Config{
		Output: "json",
		Scan:   ScanConfig{Threshold: "warning", FailFast: true},
	}

	result := merge(dst, src)

	if result.Output != "json" {
		t.Errorf("merge Output = %q, want %q", result.Output, "json")
	}
	if result.Scan.Threshold != "warning" {
		t.Errorf("merge Threshold = %q, want %q", result.Scan.Threshold, "warning")
	}
	if !result.Scan.FailFast {
		t.Error("merge FailFast = false, want true")
	}
	// Defaults should be preserved when not overridden
	if result.Scan.TaskRoot != "tasks" {
		t.Errorf("merge preserved TaskRoot = %q, want %q", result.Scan.TaskRoot, "tasks")
	}
	if result.Classifier.Retries != 2 {
		t.Errorf("merge preserved Retries = %d, want 2", result.Classifier.Retries)
	}
}

func TestMerge_BooleanNotSet(t *testing.T) {
	dst := Default()
	dst.Scan.Gitleaks = true
	result := merge(dst, &Config{Output: "yaml"})
	if !result.Scan.Gitleaks {
		t.Error("merge should not clear Gitleaks when src leaves it unset")
	}
}

func TestApplyEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TASKGUARD_OUTPUT", "sarif")
	t.Setenv("TASKGUARD_TASK_ROOT", "/env/tasks")
	t.Setenv("TASKGUARD_THRESHOLD", "info")
	t.Setenv("TASKGUARD_FAIL_FAST", "1")
	t.Setenv("TASKGUARD_WORKERS", "8")
	t.Setenv("TASKGUARD_GITLEAKS", "true")
	t.Setenv("TASKGUARD_CLASSIFIER_URL", "http://localhost:9000/classify")
	t.Setenv("TASKGUARD_CLASSIFIER_RATE", "0.5")

	cfg := applyEnv(Default())

	if cfg.Output != "sarif" {
		t.Errorf("Output = %q, want sarif", cfg.Output)
	}
	if cfg.Scan.TaskRoot != "/env/tasks" {
		t.Errorf("TaskRoot = %q, want /env/tasks", cfg.Scan.TaskRoot)
	}
	if cfg.Scan.Threshold != "info" {
		t.Errorf("Threshold = %q, want info", cfg.Scan.Threshold)
	}
	if !cfg.Scan.FailFast || !cfg.Scan.Gitleaks {
		t.Error("FailFast and Gitleaks should be enabled from env")
	}
	if cfg.Scan.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Scan.Workers)
	}
	if cfg.Classifier.URL != "http://localhost:9000/classify" {
		t.Errorf("Classifier.URL = %q", cfg.Classifier.URL)
	}
	if cfg.Classifier.RatePerSecond != 0.5 {
		t.Errorf("Classifier.RatePerSecond = %v, want 0.5", cfg.Classifier.RatePerSecond)
	}
}

func TestApplyEnv_InvalidNumbersIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("TASKGUARD_WORKERS", "many")
	t.Setenv("TASKGUARD_CLASSIFIER_RETRIES", "")

	cfg := applyEnv(Default())
	if cfg.Scan.Workers != 1 {
		t.Errorf("Workers = %d, want default 1", cfg.Scan.Workers)
	}
	if cfg.Classifier.Retries != 2 {
		t.Errorf("Retries = %d, want default 2", cfg.Classifier.Retries)
	}
}

func TestApplyEnv_VerboseVariants(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"false", false},
		{"yes", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TASKGUARD_VERBOSE", tt.value)
			cfg := applyEnv(Default())
			if cfg.Verbose != tt.want {
				t.Errorf("TASKGUARD_VERBOSE=%q: Verbose = %v, want %v", tt.value, cfg.Verbose, tt.want)
			}
		})
	}
}

func TestLoadFromPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, `
output: json
verbose: true
scan:
  task_root: content/tasks
  threshold: warning
  workers: 4
classifier:
  url: https://classifier.internal/v1/check
  timeout: 3s
`)

	cfg, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() error = %v", err)
	}

	if cfg.Output != "json" {
		t.Errorf("loadFromPath Output = %q, want %q", cfg.Output, "json")
	}
	if !cfg.Verbose {
		t.Error("loadFromPath Verbose = false, want true")
	}
	if cfg.Scan.TaskRoot != "content/tasks" {
		t.Errorf("loadFromPath TaskRoot = %q", cfg.Scan.TaskRoot)
	}
	if cfg.Scan.Workers != 4 {
		t.Errorf("loadFromPath Workers = %d, want 4", cfg.Scan.Workers)
	}
	if cfg.Classifier.Timeout != "3s" {
		t.Errorf("loadFromPath Timeout = %q, want 3s", cfg.Classifier.Timeout)
	}
}

func TestLoadFromPath_NotExists(t *testing.T) {
	cfg, err := loadFromPath("/nonexistent/config.yaml")
	if cfg != nil || err != nil {
		t.Errorf("loadFromPath(missing) = %v, %v; want nil, nil", cfg, err)
	}
}

func TestLoadFromPath_Empty(t *testing.T) {
	cfg, err := loadFromPath("")
	if cfg != nil || err != nil {
		t.Errorf("loadFromPath(\"\") = %v, %v; want nil, nil", cfg, err)
	}
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, "scan: [unterminated\n")

	_, err := loadFromPath(configPath)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("loadFromPath invalid YAML error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".taskguard", "config.yaml"), `
output: markdown
scan:
  task_root: home-tasks
  threshold: info
`)
	projectPath := filepath.Join(dir, "project.yaml")
	writeFile(t, projectPath, `
scan:
  threshold: warning
  workers: 3
`)
	t.Setenv(EnvConfig, projectPath)
	t.Setenv("TASKGUARD_WORKERS", "6")

	cfg, err := Load(&Config{Output: "json"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json from flag", cfg.Output)
	}
	if cfg.Scan.TaskRoot != "home-tasks" {
		t.Errorf("TaskRoot = %q, want home-tasks from home config", cfg.Scan.TaskRoot)
	}
	if cfg.Scan.Threshold != "warning" {
		t.Errorf("Threshold = %q, want warning from project config", cfg.Scan.Threshold)
	}
	if cfg.Scan.Workers != 6 {
		t.Errorf("Workers = %d, want 6 from env", cfg.Scan.Workers)
	}
}

func TestValidate_NormalizesCase(t *testing.T) {
	cfg := Default()
	cfg.Scan.Threshold = "Critical"
	cfg.LogLevel = "DEBUG"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if cfg.Scan.Threshold != "critical" || cfg.LogLevel != "debug" {
		t.Errorf("Validate() left Threshold=%q LogLevel=%q", cfg.Scan.Threshold, cfg.LogLevel)
	}
}

func TestLoad_ZeroWorkersFromFile(t *testing.T) {
	dir := isolate(t)
	projectPath := filepath.Join(dir, "project.yaml")
	writeFile(t, projectPath, "scan:\n  workers: 0\n")
	t.Setenv(EnvConfig, projectPath)

	cfg, err := Load(&Config{Output: "json"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scan.Workers != 0 {
		t.Errorf("Workers = %d, want 0 from project config", cfg.Scan.Workers)
	}

	r, _ := Resolve(nil).Get("scan.workers")
	if r.Source != SourceProject || r.Value != 0 {
		t.Errorf("Resolve(scan.workers) = %+v, want 0 from project", r)
	}
}

func TestLoad_MalformedProjectConfig(t *testing.T) {
	dir := isolate(t)
	projectPath := filepath.Join(dir, "project.yaml")
	writeFile(t, projectPath, "output: [json\n")
	t.Setenv(EnvConfig, projectPath)

	if _, err := Load(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad output", func(c *Config) { c.Output = "html" }, false},
		{"bad threshold", func(c *Config) { c.Scan.Threshold = "severe" }, false},
		{"empty task root", func(c *Config) { c.Scan.TaskRoot = "" }, false},
		{"negative workers", func(c *Config) { c.Scan.Workers = -1 }, false},
		{"bad url", func(c *Config) { c.Classifier.URL = "not a url" }, false},
		{"good url", func(c *Config) { c.Classifier.URL = "http://127.0.0.1:8080/classify" }, true},
		{"bad timeout", func(c *Config) { c.Classifier.Timeout = "soon" }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"capitalized threshold", func(c *Config) { c.Scan.Threshold = "Warning" }, true},
		{"upper-case output", func(c *Config) { c.Output = " JSON" }, true},
		{"too many retries", func(c *Config) { c.Classifier.Retries = 50 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestThreshold(t *testing.T) {
	cfg := Default()
	sev, err := cfg.Threshold()
	if err != nil || sev != finding.SeverityCritical {
		t.Errorf("Threshold() = %v, %v; want critical", sev, err)
	}

	cfg.Scan.Threshold = "bogus"
	if _, err := cfg.Threshold(); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("Threshold() error = %v, want ErrInvalidThreshold", err)
	}
}

func TestClassifierTimeout(t *testing.T) {
	cfg := Default()
	cfg.Classifier.Timeout = "250ms"
	if got := cfg.ClassifierTimeout().Milliseconds(); got != 250 {
		t.Errorf("ClassifierTimeout() = %dms, want 250ms", got)
	}
	cfg.Classifier.Timeout = "junk"
	if got := cfg.ClassifierTimeout().Seconds(); got != 10 {
		t.Errorf("ClassifierTimeout() fallback = %vs, want 10s", got)
	}
}

func TestResolve_Defaults(t *testing.T) {
	isolate(t)

	rc := Resolve(nil)

	if len(rc) != len(fields) {
		t.Fatalf("Resolve returned %d values, want %d", len(rc), len(fields))
	}
	out, _ := rc.Get("output")
	if out.Value != "table" || out.Source != SourceDefault {
		t.Errorf("output = (%v, %v), want (table, default)", out.Value, out.Source)
	}
	verbose, _ := rc.Get("verbose")
	if verbose.Value != false || verbose.Source != SourceDefault {
		t.Errorf("verbose = (%v, %v), want (false, default)", verbose.Value, verbose.Source)
	}
	if _, ok := rc.Get("nope"); ok {
		t.Error("Get(nope) should report missing")
	}
}

func TestResolve_Sources(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".taskguard", "config.yaml"), "index:\n  output: home-index.json\n")
	projectPath := filepath.Join(dir, "project.yaml")
	writeFile(t, projectPath, "scan:\n  threshold: warning\n  fail_fast: true\n")
	t.Setenv(EnvConfig, projectPath)
	t.Setenv("TASKGUARD_TASK_ROOT", "/env/tasks")

	rc := Resolve(&Config{Output: "json", Verbose: true})

	tests := []struct {
		key    string
		value  interface{}
		source Source
	}{
		{"output", "json", SourceFlag},
		{"verbose", true, SourceFlag},
		{"scan.task_root", "/env/tasks", SourceEnv},
		{"scan.threshold", "warning", SourceProject},
		{"scan.fail_fast", true, SourceProject},
		{"index.output", "home-index.json", SourceHome},
		{"scan.workers", 1, SourceDefault},
	}
	for _, tt := range tests {
		r, ok := rc.Get(tt.key)
		if !ok {
			t.Errorf("missing key %s", tt.key)
			continue
		}
		if r.Value != tt.value || r.Source != tt.source {
			t.Errorf("%s = (%v, %v), want (%v, %v)", tt.key, r.Value, r.Source, tt.value, tt.source)
		}
	}
}

func TestProjectConfigPath_UsesConfigEnv(t *testing.T) {
	t.Setenv(EnvConfig, "/custom/config.yaml")
	if got := projectConfigPath(); got != "/custom/config.yaml" {
		t.Errorf("projectConfigPath() = %q, want /custom/config.yaml", got)
	}
}

func TestProjectConfigPath_WhitespaceOnlyConfig(t *testing.T) {
	t.Setenv(EnvConfig, "   ")
	cwd, _ := os.Getwd()
	want := filepath.Join(cwd, ".taskguard", "config.yaml")
	if got := projectConfigPath(); got != want {
		t.Errorf("projectConfigPath() = %q, want %q", got, want)
	}
}
