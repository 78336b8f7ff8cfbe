package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qianmo517/reader/internal/telemetry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		yamlContent string
		wantConfig  *Config
		wantErr     string
	}{
		{
			name: "full config",
			yamlContent: `server:
  address: ":9090"
engine:
  endpoint: http://engine:9000
  timeout: 45s
  requestsPerSecond: 20
  burst: 5
sources:
  - name: local
    file:
      path: ./sources.json
  - name: community
    url:
      endpoint: https://example.com/sources.json
  - name: curated
    git:
      repository: https://github.com/example/book-sources.git
      branch: main
      path: sources/all.json
syncPolicy:
  interval: 1h
telemetry:
  enabled: true
  serviceName: reader-api
  metrics:
    enabled: true
    exporter: prometheus`,
			wantConfig: &Config{
				Server: ServerConfig{Address: ":9090"},
				Engine: EngineConfig{
					Endpoint:          "http://engine:9000",
					Timeout:           "45s",
					RequestsPerSecond: 20,
					Burst:             5,
				},
				Sources: []SourceConfig{
					{Name: "local", File: &FileConfig{Path: "./sources.json"}},
					{Name: "community", URL: &URLConfig{Endpoint: "https://example.com/sources.json"}},
					{Name: "curated", Git: &GitConfig{
						Repository: "https://github.com/example/book-sources.git",
						Branch:     "main",
						Path:       "sources/all.json",
					}},
				},
				SyncPolicy: &SyncPolicyConfig{Interval: "1h"},
				Telemetry: &telemetry.Config{
					Enabled:     true,
					ServiceName: "reader-api",
					Metrics:     &telemetry.MetricsConfig{Enabled: true, Exporter: "prometheus"},
				},
			},
		},
		{
			name: "minimal config without sources",
			yamlContent: `engine:
  endpoint: https://engine.example`,
			wantConfig: &Config{
				Engine: EngineConfig{Endpoint: "https://engine.example"},
			},
		},
		{
			name:        "invalid yaml",
			yamlContent: "engine: [",
			wantErr:     "failed to parse YAML config",
		},
		{
			name:        "missing engine",
			yamlContent: `sources: []`,
			wantErr:     "engine.endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := LoadConfig(WithConfigPath(writeConfig(t, tt.yamlContent)))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, cfg)
		})
	}
}

func TestLoadConfig_RequiresPath(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig()
	require.Error(t, err)

	_, err = LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	engine := EngineConfig{Endpoint: "http://engine:9000"}
	file := &FileConfig{Path: "sources.json"}

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: "config cannot be nil",
		},
		{
			name:    "engine endpoint without scheme",
			config:  &Config{Engine: EngineConfig{Endpoint: "engine:9000"}},
			wantErr: "scheme must be http or https",
		},
		{
			name:    "engine timeout unparsable",
			config:  &Config{Engine: EngineConfig{Endpoint: "http://e", Timeout: "soon"}},
			wantErr: "engine.timeout must be a valid duration",
		},
		{
			name:    "negative rate",
			config:  &Config{Engine: EngineConfig{Endpoint: "http://e", RequestsPerSecond: -1}},
			wantErr: "engine.requestsPerSecond must not be negative",
		},
		{
			name:    "invalid sync interval",
			config:  &Config{Engine: engine, SyncPolicy: &SyncPolicyConfig{Interval: "often"}},
			wantErr: "syncPolicy.interval must be a valid duration",
		},
		{
			name:    "zero sync interval",
			config:  &Config{Engine: engine, SyncPolicy: &SyncPolicyConfig{Interval: "0s"}},
			wantErr: "syncPolicy.interval must be positive",
		},
		{
			name:    "source without name",
			config:  &Config{Engine: engine, Sources: []SourceConfig{{File: file}}},
			wantErr: "sources[0]: name is required",
		},
		{
			name: "duplicate source names",
			config: &Config{Engine: engine, Sources: []SourceConfig{
				{Name: "a", File: file},
				{Name: "a", File: file},
			}},
			wantErr: "duplicate source name 'a'",
		},
		{
			name:    "source without type",
			config:  &Config{Engine: engine, Sources: []SourceConfig{{Name: "a"}}},
			wantErr: "one of git, url, or file configuration must be specified",
		},
		{
			name: "source with two types",
			config: &Config{Engine: engine, Sources: []SourceConfig{
				{Name: "a", File: file, URL: &URLConfig{Endpoint: "https://x"}},
			}},
			wantErr: "only one of git, url, or file configuration may be specified",
		},
		{
			name:    "git without repository",
			config:  &Config{Engine: engine, Sources: []SourceConfig{{Name: "a", Git: &GitConfig{}}}},
			wantErr: "git.repository is required",
		},
		{
			name: "git with branch and tag",
			config: &Config{Engine: engine, Sources: []SourceConfig{
				{Name: "a", Git: &GitConfig{Repository: "https://g", Branch: "main", Tag: "v1"}},
			}},
			wantErr: "only one of git.branch, git.tag, or git.commit",
		},
		{
			name:    "url without endpoint",
			config:  &Config{Engine: engine, Sources: []SourceConfig{{Name: "a", URL: &URLConfig{}}}},
			wantErr: "url.endpoint is required",
		},
		{
			name: "url with ftp scheme",
			config: &Config{Engine: engine, Sources: []SourceConfig{
				{Name: "a", URL: &URLConfig{Endpoint: "ftp://example.com/s.json"}},
			}},
			wantErr: "scheme must be http or https",
		},
		{
			name:    "file without path",
			config:  &Config{Engine: engine, Sources: []SourceConfig{{Name: "a", File: &FileConfig{}}}},
			wantErr: "file.path is required",
		},
		{
			name: "invalid code filter pattern",
			config: &Config{Engine: engine, Sources: []SourceConfig{
				{Name: "a", File: file, Filter: &FilterConfig{Codes: &NameFilterConfig{Include: []string{"[abc"}}}},
			}},
			wantErr: "invalid filter.codes pattern",
		},
		{
			name: "invalid telemetry",
			config: &Config{Engine: engine, Telemetry: &telemetry.Config{
				Enabled: true,
				Metrics: &telemetry.MetricsConfig{Enabled: true, Exporter: "statsd"},
			}},
			wantErr: "telemetry",
		},
		{
			name: "valid",
			config: &Config{Engine: engine, Sources: []SourceConfig{
				{Name: "a", File: file},
				{Name: "b", Git: &GitConfig{Repository: "https://g", Commit: "abc123"}},
				{Name: "c", File: file, Filter: &FilterConfig{
					Codes:  &NameFilterConfig{Exclude: []string{"https://*.example.com*"}},
					Groups: &TagFilterConfig{Include: []string{"comics"}},
				}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultAddress, cfg.GetAddress())
	assert.Equal(t, DefaultSyncInterval, cfg.GetSyncInterval())
	assert.Equal(t, DefaultEngineTimeout, cfg.Engine.GetTimeout())

	cfg = &Config{
		Server:     ServerConfig{Address: "127.0.0.1:9000"},
		Engine:     EngineConfig{Timeout: "5s"},
		SyncPolicy: &SyncPolicyConfig{Interval: "10m"},
	}
	assert.Equal(t, "127.0.0.1:9000", cfg.GetAddress())
	assert.Equal(t, 10*time.Minute, cfg.GetSyncInterval())
	assert.Equal(t, 5*time.Second, cfg.Engine.GetTimeout())
}

func TestGetType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SourceTypeGit, (&SourceConfig{Git: &GitConfig{}}).GetType())
	assert.Equal(t, SourceTypeURL, (&SourceConfig{URL: &URLConfig{}}).GetType())
	assert.Equal(t, SourceTypeFile, (&SourceConfig{File: &FileConfig{}}).GetType())
	assert.Equal(t, "", (&SourceConfig{}).GetType())
}

func TestWithConfigPath(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "configs"), 0755))
	configPath := filepath.Join(tmpDir, "configs", "app.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("engine: {}"), 0600))

	linkPath := filepath.Join(tmpDir, "link.yaml")
	require.NoError(t, os.Symlink(configPath, linkPath))

	realConfigPath, err := filepath.EvalSymlinks(configPath)
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		wantPath string
		wantErr  bool
	}{
		{name: "empty path", path: "", wantErr: true},
		{name: "missing file", path: filepath.Join(tmpDir, "nope.yaml"), wantErr: true},
		{name: "relative traversal", path: "../../../../../../etc/passwd-does-not-exist", wantErr: true},
		{name: "absolute path", path: configPath, wantPath: realConfigPath},
		{name: "symlink resolved", path: linkPath, wantPath: realConfigPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &loaderConfig{}
			err := WithConfigPath(tt.path)(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, cfg.path)
		})
	}
}
