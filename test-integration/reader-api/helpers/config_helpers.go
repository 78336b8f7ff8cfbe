package helpers

import (
	"os"
	"path/filepath"

	"github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/qianmo517/reader/internal/config"
)

// WriteConfigYAML writes a configuration file for the given engine and lists
// and returns its path
func WriteConfigYAML(dir, engineURL, interval string, lists ...config.SourceConfig) string {
	cfg := config.Config{
		Engine: config.EngineConfig{
			Endpoint: engineURL,
			Timeout:  "5s",
		},
		Sources: lists,
	}
	if interval != "" {
		cfg.SyncPolicy = &config.SyncPolicyConfig{Interval: interval}
	}

	data, err := yaml.Marshal(&cfg)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	path := filepath.Join(dir, "config.yaml")
	err = os.WriteFile(path, data, 0600)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return path
}

// FileList is a file source list config
func FileList(name, path string) config.SourceConfig {
	return config.SourceConfig{Name: name, File: &config.FileConfig{Path: path}}
}

// URLList is a url source list config
func URLList(name, endpoint string) config.SourceConfig {
	return config.SourceConfig{Name: name, URL: &config.URLConfig{Endpoint: endpoint}}
}

// GitList is a git source list config
func GitList(name, repository, branch, path string) config.SourceConfig {
	return config.SourceConfig{Name: name, Git: &config.GitConfig{
		Repository: repository,
		Branch:     branch,
		Path:       path,
	}}
}
