// Package config loads ghimport settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the mapping file is looked up when --config is not given.
const DefaultPath = "config/mappings.yaml"

// EnvPrefix prefixes environment overrides, e.g. GHIMPORT_PROJECT_LABEL.
const EnvPrefix = "GHIMPORT"

// Defaults
const (
	DefaultProjectLabel = "ask-myuni"
	DefaultLabelColor   = "cccccc"
	DefaultOwner        = "nimeshe"
	DefaultAPIURL       = "https://api.github.com"
	DefaultTimeout      = 30 * time.Second
	DefaultConcurrency  = 4
)

// Config is the resolved configuration for one run.
type Config struct {
	Rules        RepositoryRules `mapstructure:"repository_rules" yaml:"repository_rules"`
	ProjectLabel string          `mapstructure:"project_label" yaml:"project_label"`
	Labels       LabelDefaults   `mapstructure:"labels" yaml:"labels"`
	GitHub       GitHubConfig    `mapstructure:"github" yaml:"github"`
	Reconcile    ReconcileConfig `mapstructure:"reconcile" yaml:"reconcile"`

	// Path is the file the settings were read from, empty if none was found.
	Path string `mapstructure:"-" yaml:"-"`
}

// LabelDefaults apply to labels the importer creates.
type LabelDefaults struct {
	Color       string `mapstructure:"color" yaml:"color"`
	Description string `mapstructure:"description" yaml:"description"`
}

// GitHubConfig holds connection settings.
type GitHubConfig struct {
	Owner   string        `mapstructure:"owner" yaml:"owner"`
	Token   string        `mapstructure:"token" yaml:"-"`
	APIURL  string        `mapstructure:"api_url" yaml:"api_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ReconcileConfig tunes the remote lookups.
type ReconcileConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// ErrMissingToken is returned by Validate when no API token is configured.
var ErrMissingToken = errors.New("GitHub token not configured: set GITHUB_TOKEN or github.token")

// ErrMissingOwner is returned by Validate when no owner is configured.
var ErrMissingOwner = errors.New("GitHub owner not configured: set GITHUB_ORG or github.owner")

// Load reads configuration from path (DefaultPath when empty). A missing
// file yields defaults. A .env file in the working directory is loaded
// first without overriding variables already set.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		cfg.Path = path
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// newViper returns an isolated viper instance with defaults and env bindings.
func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("repository_rules.primary", "")
	v.SetDefault("repository_rules.secondary", "")
	v.SetDefault("repository_rules.default", "")
	v.SetDefault("project_label", DefaultProjectLabel)
	v.SetDefault("labels.color", DefaultLabelColor)
	v.SetDefault("labels.description", "")
	v.SetDefault("github.owner", DefaultOwner)
	v.SetDefault("github.token", "")
	v.SetDefault("github.api_url", DefaultAPIURL)
	v.SetDefault("github.timeout", DefaultTimeout)
	v.SetDefault("reconcile.concurrency", DefaultConcurrency)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional names take effect when the prefixed one is unset.
	_ = v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("github.owner", EnvPrefix+"_GITHUB_OWNER", "GITHUB_ORG")
	_ = v.BindEnv("github.api_url", EnvPrefix+"_GITHUB_API_URL", "GITHUB_API_URL")

	return v
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	c.ProjectLabel = strings.TrimSpace(c.ProjectLabel)
	c.Labels.Color = strings.TrimPrefix(strings.TrimSpace(c.Labels.Color), "#")
	if c.Labels.Color == "" {
		c.Labels.Color = DefaultLabelColor
	}
	c.GitHub.Owner = strings.TrimSpace(c.GitHub.Owner)
	c.GitHub.Token = strings.TrimSpace(c.GitHub.Token)
	c.GitHub.APIURL = strings.TrimRight(strings.TrimSpace(c.GitHub.APIURL), "/")
	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = DefaultAPIURL
	}
	if c.GitHub.Timeout <= 0 {
		c.GitHub.Timeout = DefaultTimeout
	}
	if c.Reconcile.Concurrency < 1 {
		c.Reconcile.Concurrency = DefaultConcurrency
	}
}

// Validate checks the settings needed to reach the remote.
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return ErrMissingToken
	}
	if c.GitHub.Owner == "" {
		return ErrMissingOwner
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		ProjectLabel: DefaultProjectLabel,
		Labels:       LabelDefaults{Color: DefaultLabelColor},
		GitHub: GitHubConfig{
			Owner:   DefaultOwner,
			APIURL:  DefaultAPIURL,
			Timeout: DefaultTimeout,
		},
		Reconcile: ReconcileConfig{Concurrency: DefaultConcurrency},
	}
	return cfg
}

// WriteFile writes c as YAML to path, creating parent directories. The
// token is never written. Existing files are left alone unless force is set.
func (c *Config) WriteFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	out := struct {
		Rules        RepositoryRules `yaml:"repository_rules"`
		ProjectLabel string          `yaml:"project_label"`
		Labels       LabelDefaults   `yaml:"labels"`
		GitHub       struct {
			Owner   string `yaml:"owner"`
			APIURL  string `yaml:"api_url"`
			Timeout string `yaml:"timeout"`
		} `yaml:"github"`
		Reconcile ReconcileConfig `yaml:"reconcile"`
	}{
		Rules:        c.Rules,
		ProjectLabel: c.ProjectLabel,
		Labels:       c.Labels,
		Reconcile:    c.Reconcile,
	}
	out.GitHub.Owner = c.GitHub.Owner
	out.GitHub.APIURL = c.GitHub.APIURL
	out.GitHub.Timeout = c.GitHub.Timeout.String()

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
