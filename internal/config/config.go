package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoTargets is returned by AllTargets when nothing is configured to scan.
var ErrNoTargets = errors.New("no targets configured")

// Defaults applied by ApplyDefaults.
const (
	DefaultConcurrency    = 10
	DefaultTimeout        = 15
	DefaultAttackerDomain = "evil-corsgo.com"
	DefaultMethod         = "GET"
	DefaultUserAgent      = "Corsgo-Scanner/1.0"
)

// OutputConfig holds configuration settings related to output and logging.
type OutputConfig struct {
	Format     string `yaml:"format"`      // Output format (e.g., "text", "json").
	OutputFile string `yaml:"output_file"` // Path to save the JSON report.
	Verbose    bool   `yaml:"verbose"`     // Enable DEBUG logging.
}

// AuthConfig holds static credentials sent with every probe. CORS findings are
// only exploitable with credentials, so scanning authenticated is common.
type AuthConfig struct {
	Enabled bool              `yaml:"enabled"`
	Cookie  string            `yaml:"cookie"`
	Headers map[string]string `yaml:"headers"`
}

// CORSConfig tunes the CORS rule.
type CORSConfig struct {
	// AttackerDomain is the domain used to build attacker-controlled Origin values.
	AttackerDomain string `yaml:"attacker_domain"`
	// BaselineProbe sends one request without an Origin header before the attacker origins.
	BaselineProbe *bool `yaml:"baseline_probe"`
	// Method is the HTTP method used for probes.
	Method string `yaml:"method"`
}

// AIConfig holds the settings for optional AI triage of findings.
type AIConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // gemini, openai or groq
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"` // OpenAI-compatible endpoint override
}

// Config is the main struct holding everything read from config.yaml.
type Config struct {
	Target          string   `yaml:"target"`           // Single target URL.
	Targets         []string `yaml:"targets"`          // Additional target URLs.
	TargetsFile     string   `yaml:"targets_file"`     // File with one target URL per line.
	Concurrency     int      `yaml:"concurrency"`      // Number of concurrent workers.
	MaxRetries      int      `yaml:"max_retries"`      // Maximum number of retries for HTTP requests.
	Delay           int      `yaml:"delay"`            // Delay between retries in milliseconds.
	Timeout         int      `yaml:"timeout"`          // Per-request timeout in seconds.
	RateLimit       float64  `yaml:"rate_limit"`       // Requests per second, 0 means unlimited.
	UserAgent       string   `yaml:"user_agent"`       // Custom User-Agent header.
	FollowRedirects bool     `yaml:"follow_redirects"` // Follow redirects when probing.
	LogLevel        string   `yaml:"log_level"`        // trace, debug, info, warn, error.

	Output         OutputConfig `yaml:"output"`
	Authentication AuthConfig   `yaml:"authentication"`
	CORS           CORSConfig   `yaml:"cors"`
	AI             AIConfig     `yaml:"ai"`
}

// LoadConfig reads the configuration from a YAML file.
// A missing file yields the default configuration without error.
func LoadConfig(filePath string) (*Config, error) {
	// Initialize with the output defaults before the file is read.
	config := &Config{
		Output: OutputConfig{
			Format: "text",
		},
	}

	// Read the YAML file.
	yamlFile, err := os.ReadFile(filePath)
	if err != nil {
		// No config.yaml is fine: flags alone can drive a scan.
		if os.IsNotExist(err) {
			config.ApplyDefaults()
			return config, nil
		}
		return nil, fmt.Errorf("read config %s: %w", filePath, err)
	}

	// Unmarshal the YAML data into the Config struct.
	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filePath, err)
	}

	config.ApplyDefaults()
	return config, nil
}

// ApplyDefaults fills zero values with the scanner defaults.
func (c *Config) ApplyDefaults() {
	// Performance settings.
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RateLimit < 0 {
		c.RateLimit = 0
	}
	// Request identity and output.
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	// CORS probe settings. The method is sent on the wire, so normalise its case here.
	if c.CORS.AttackerDomain == "" {
		c.CORS.AttackerDomain = DefaultAttackerDomain
	}
	if c.CORS.Method == "" {
		c.CORS.Method = DefaultMethod
	}
	c.CORS.Method = strings.ToUpper(c.CORS.Method)
	// The baseline probe is opt-out: only an explicit false disables it.
	if c.CORS.BaselineProbe == nil {
		enabled := true
		c.CORS.BaselineProbe = &enabled
	}
}

// Baseline reports whether the no-Origin baseline probe is enabled.
func (c *Config) Baseline() bool {
	return c.CORS.BaselineProbe == nil || *c.CORS.BaselineProbe
}

// AllTargets merges Target, Targets and the lines of TargetsFile, in that order,
// skipping blank lines, '#' comments and duplicates.
func (c *Config) AllTargets() ([]string, error) {
	seen := make(map[string]struct{})
	var targets []string
	// add keeps the first occurrence of every non-comment line.
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" || strings.HasPrefix(t, "#") {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		targets = append(targets, t)
	}

	add(c.Target)
	for _, t := range c.Targets {
		add(t)
	}

	// Targets file, one URL per line.
	if c.TargetsFile != "" {
		f, err := os.Open(c.TargetsFile)
		if err != nil {
			return nil, fmt.Errorf("open targets file: %w", err)
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		for sc.Scan() {
			add(sc.Text())
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read targets file: %w", err)
		}
	}

	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	return targets, nil
}
