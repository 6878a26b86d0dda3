package config

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.taskguard/config.yaml"
	SourceProject Source = ".taskguard/config.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

// Resolved is one configuration value with its origin.
type Resolved struct {
	Key    string      `json:"key" yaml:"key"`
	Value  interface{} `json:"value" yaml:"value"`
	Source Source      `json:"source" yaml:"source"`
}

// ResolvedConfig shows config values with their sources, in display order.
type ResolvedConfig []Resolved

// Get returns the resolved value for key.
func (rc ResolvedConfig) Get(key string) (Resolved, bool) {
	for _, r := range rc {
		if r.Key == key {
			return r, true
		}
	}
	return Resolved{}, false
}

// field reads one value from a layer and reports whether the layer sets it.
type field struct {
	key string
	get func(*Config) (interface{}, bool)
}

func str(f func(*Config) string) func(*Config) (interface{}, bool) {
	return func(c *Config) (interface{}, bool) { v := f(c); return v, v != "" }
}

func boolean(f func(*Config) bool) func(*Config) (interface{}, bool) {
	return func(c *Config) (interface{}, bool) { v := f(c); return v, v }
}

func integer(f func(*Config) int) func(*Config) (interface{}, bool) {
	return func(c *Config) (interface{}, bool) { v := f(c); return v, v != 0 }
}

func float(f func(*Config) float64) func(*Config) (interface{}, bool) {
	return func(c *Config) (interface{}, bool) { v := f(c); return v, v != 0 }
}

var fields = []field{
	{"output", str(func(c *Config) string { return c.Output })},
	{"verbose", boolean(func(c *Config) bool { return c.Verbose })},
	{"log_level", str(func(c *Config) string { return c.LogLevel })},
	{"scan.task_root", str(func(c *Config) string { return c.Scan.TaskRoot })},
	{"scan.threshold", str(func(c *Config) string { return c.Scan.Threshold })},
	{"scan.fail_fast", boolean(func(c *Config) bool { return c.Scan.FailFast })},
	{"scan.workers", func(c *Config) (interface{}, bool) {
		return c.Scan.Workers, c.Scan.Workers != 0 || c.Scan.workersSet
	}},
	{"scan.rules_file", str(func(c *Config) string { return c.Scan.RulesFile })},
	{"scan.gitleaks", boolean(func(c *Config) bool { return c.Scan.Gitleaks })},
	{"classifier.url", str(func(c *Config) string { return c.Classifier.URL })},
	{"classifier.timeout", str(func(c *Config) string { return c.Classifier.Timeout })},
	{"classifier.rate_per_second", float(func(c *Config) float64 { return c.Classifier.RatePerSecond })},
	{"classifier.retries", integer(func(c *Config) int { return c.Classifier.Retries })},
	{"index.output", str(func(c *Config) string { return c.Index.Output })},
}

// Resolve returns configuration with source tracking.
// Uses precedence chain: flags > env > project > home > defaults.
// Unreadable config files are treated as absent.
func Resolve(flags *Config) ResolvedConfig {
	homeConfig, _ := loadFromPath(homeConfigPath())
	projectConfig, _ := loadFromPath(projectConfigPath())
	envConfig := applyEnv(&Config{})

	layers := []struct {
		cfg    *Config
		source Source
	}{
		{homeConfig, SourceHome},
		{projectConfig, SourceProject},
		{envConfig, SourceEnv},
		{flags, SourceFlag},
	}

	defaults := Default()
	rc := make(ResolvedConfig, 0, len(fields))
	for _, f := range fields {
		v, _ := f.get(defaults)
		r := Resolved{Key: f.key, Value: v, Source: SourceDefault}
		for _, l := range layers {
			if l.cfg == nil {
				continue
			}
			if v, ok := f.get(l.cfg); ok {
				r.Value, r.Source = v, l.source
			}
		}
		rc = append(rc, r)
	}
	return rc
}

// Paths returns the home and project config file locations.
func Paths() (home, project string) {
	return homeConfigPath(), projectConfigPath()
}
