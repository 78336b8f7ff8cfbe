// Package config provides configuration loading and validation for the reader API server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/qianmo517/reader/internal/telemetry"
)

// EnvPrefix is the prefix of environment variables read by the server
const EnvPrefix = "READER"

const (
	// SourceTypeGit is the type for source lists stored in Git repositories
	SourceTypeGit = "git"

	// SourceTypeURL is the type for source lists fetched over HTTP
	SourceTypeURL = "url"

	// SourceTypeFile is the type for source lists stored in local files
	SourceTypeFile = "file"
)

const (
	// DefaultAddress is the listen address used when neither flag nor file sets one
	DefaultAddress = ":8080"

	// DefaultEngineTimeout bounds one engine call
	DefaultEngineTimeout = 60 * time.Second

	// DefaultSyncInterval is how often source lists are re-fetched
	DefaultSyncInterval = 30 * time.Minute
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Server ServerConfig `yaml:"server,omitempty"`
	Engine EngineConfig `yaml:"engine"`

	// Sources are merged in order into a single registry. Later lists
	// override earlier ones for the same code.
	Sources []SourceConfig `yaml:"sources,omitempty"`

	// SyncPolicy governs the merged registry as a whole
	SyncPolicy *SyncPolicyConfig `yaml:"syncPolicy,omitempty"`

	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	// Address is the listen address, e.g. ":8080"
	Address string `yaml:"address,omitempty"`
}

// EngineConfig defines how the rule engine is reached
type EngineConfig struct {
	// Endpoint is the base URL of the engine service
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds a single engine call (e.g. "60s")
	Timeout string `yaml:"timeout,omitempty"`

	// RequestsPerSecond throttles outbound engine calls. Zero disables throttling.
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`

	// Burst is the number of calls allowed above the steady rate
	Burst int `yaml:"burst,omitempty"`
}

// SourceConfig defines a single source list
type SourceConfig struct {
	// Name identifies the list in logs, status and metrics
	Name string `yaml:"name"`

	// Type-specific configurations (only one should be set)
	Git  *GitConfig  `yaml:"git,omitempty"`
	URL  *URLConfig  `yaml:"url,omitempty"`
	File *FileConfig `yaml:"file,omitempty"`

	// Filter narrows the list to the sources it selects
	Filter *FilterConfig `yaml:"filter,omitempty"`
}

// FilterConfig selects sources by code and by group. A source must pass both.
type FilterConfig struct {
	Codes  *NameFilterConfig `yaml:"codes,omitempty"`
	Groups *TagFilterConfig  `yaml:"groups,omitempty"`
}

// NameFilterConfig holds glob patterns matched against source codes
type NameFilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// TagFilterConfig holds group names matched exactly against bookSourceGroup
type TagFilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// GitConfig defines Git source settings
type GitConfig struct {
	// Repository is the Git repository URL (HTTP/HTTPS/SSH)
	Repository string `yaml:"repository"`

	// Branch is the Git branch to use (mutually exclusive with Tag and Commit)
	Branch string `yaml:"branch,omitempty"`

	// Tag is the Git tag to use (mutually exclusive with Branch and Commit)
	Tag string `yaml:"tag,omitempty"`

	// Commit is the Git commit SHA to use (mutually exclusive with Branch and Tag)
	Commit string `yaml:"commit,omitempty"`

	// Path is the path to the source list within the repository
	Path string `yaml:"path,omitempty"`
}

// URLConfig defines a source list served over HTTP
type URLConfig struct {
	// Endpoint is the full URL of the source list document
	Endpoint string `yaml:"endpoint"`
}

// FileConfig defines local file source configuration
type FileConfig struct {
	// Path is the path to the source list on the local filesystem.
	// Can be absolute or relative to the working directory
	Path string `yaml:"path"`
}

// SyncPolicyConfig defines synchronization settings
type SyncPolicyConfig struct {
	Interval string `yaml:"interval"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetAddress returns the listen address, defaulting to DefaultAddress
func (c *Config) GetAddress() string {
	if c.Server.Address == "" {
		return DefaultAddress
	}
	return c.Server.Address
}

// GetTimeout returns the engine call timeout. The value has been validated
// by LoadConfig.
func (e *EngineConfig) GetTimeout() time.Duration {
	if e.Timeout == "" {
		return DefaultEngineTimeout
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return DefaultEngineTimeout
	}
	return d
}

// GetSyncInterval returns the sync interval, defaulting to DefaultSyncInterval
func (c *Config) GetSyncInterval() time.Duration {
	if c.SyncPolicy == nil || c.SyncPolicy.Interval == "" {
		return DefaultSyncInterval
	}
	d, err := time.ParseDuration(c.SyncPolicy.Interval)
	if err != nil {
		return DefaultSyncInterval
	}
	return d
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateEngineConfig(&c.Engine); err != nil {
		return err
	}

	if err := validateSyncPolicy(c.SyncPolicy); err != nil {
		return err
	}

	sourceNames := make(map[string]bool)
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}

		if sourceNames[src.Name] {
			return fmt.Errorf("sources[%d]: duplicate source name '%s'", i, src.Name)
		}
		sourceNames[src.Name] = true

		if err := validateSourceConfig(&src, i); err != nil {
			return err
		}
	}

	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}

	return nil
}

// validateEngineConfig validates the engine configuration
func validateEngineConfig(engine *EngineConfig) error {
	if engine.Endpoint == "" {
		return fmt.Errorf("engine.endpoint is required")
	}
	if err := validateHTTPURL(engine.Endpoint); err != nil {
		return fmt.Errorf("engine.endpoint: %w", err)
	}

	if engine.Timeout != "" {
		d, err := time.ParseDuration(engine.Timeout)
		if err != nil {
			return fmt.Errorf("engine.timeout must be a valid duration (e.g., '30s', '2m'): %w", err)
		}
		if d < 0 {
			return fmt.Errorf("engine.timeout must not be negative")
		}
	}

	if engine.RequestsPerSecond < 0 {
		return fmt.Errorf("engine.requestsPerSecond must not be negative")
	}
	if engine.Burst < 0 {
		return fmt.Errorf("engine.burst must not be negative")
	}

	return nil
}

// validateSyncPolicy validates the sync policy configuration
func validateSyncPolicy(policy *SyncPolicyConfig) error {
	if policy == nil || policy.Interval == "" {
		return nil
	}

	d, err := time.ParseDuration(policy.Interval)
	if err != nil {
		return fmt.Errorf("syncPolicy.interval must be a valid duration (e.g., '30m', '1h'): %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("syncPolicy.interval must be positive")
	}

	return nil
}

// validateSourceConfig validates a single source list configuration
func validateSourceConfig(src *SourceConfig, index int) error {
	prefix := fmt.Sprintf("sources[%d] (%s)", index, src.Name)

	if err := validateSourceTypeCount(src, prefix); err != nil {
		return err
	}
	if err := validateFilterConfig(src.Filter, prefix); err != nil {
		return err
	}

	switch {
	case src.Git != nil:
		return validateGitConfig(src.Git, prefix)
	case src.URL != nil:
		return validateURLConfig(src.URL, prefix)
	default:
		return validateFileConfig(src.File, prefix)
	}
}

// validateSourceTypeCount ensures exactly one source type is configured
func validateSourceTypeCount(src *SourceConfig, prefix string) error {
	configCount := 0
	if src.Git != nil {
		configCount++
	}
	if src.URL != nil {
		configCount++
	}
	if src.File != nil {
		configCount++
	}

	if configCount == 0 {
		return fmt.Errorf("%s: one of git, url, or file configuration must be specified", prefix)
	}
	if configCount > 1 {
		return fmt.Errorf("%s: only one of git, url, or file configuration may be specified", prefix)
	}

	return nil
}

// validateGitConfig validates Git-specific configuration
func validateGitConfig(git *GitConfig, prefix string) error {
	if git.Repository == "" {
		return fmt.Errorf("%s: git.repository is required", prefix)
	}

	refs := 0
	for _, ref := range []string{git.Branch, git.Tag, git.Commit} {
		if ref != "" {
			refs++
		}
	}
	if refs > 1 {
		return fmt.Errorf("%s: only one of git.branch, git.tag, or git.commit may be specified", prefix)
	}

	return nil
}

// validateURLConfig validates URL-specific configuration
func validateURLConfig(u *URLConfig, prefix string) error {
	if u.Endpoint == "" {
		return fmt.Errorf("%s: url.endpoint is required", prefix)
	}
	if err := validateHTTPURL(u.Endpoint); err != nil {
		return fmt.Errorf("%s: url.endpoint: %w", prefix, err)
	}
	return nil
}

// validateFileConfig validates File-specific configuration
func validateFileConfig(file *FileConfig, prefix string) error {
	if file.Path == "" {
		return fmt.Errorf("%s: file.path is required", prefix)
	}
	return nil
}

// validateFilterConfig checks that every code pattern compiles
func validateFilterConfig(filter *FilterConfig, prefix string) error {
	if filter == nil || filter.Codes == nil {
		return nil
	}
	for _, pattern := range slices.Concat(filter.Codes.Include, filter.Codes.Exclude) {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("%s: invalid filter.codes pattern %q: %w", prefix, pattern, err)
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// GetType returns the inferred type of the source config based on which field is present
func (s *SourceConfig) GetType() string {
	if s.Git != nil {
		return SourceTypeGit
	}
	if s.URL != nil {
		return SourceTypeURL
	}
	if s.File != nil {
		return SourceTypeFile
	}
	return ""
}
