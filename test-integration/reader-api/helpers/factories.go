package helpers

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/onsi/gomega"
)

// TestSource is a minimal book source definition used by the integration tests
type TestSource struct {
	Code  string `json:"bookSourceUrl"`
	Name  string `json:"bookSourceName"`
	Group string `json:"bookSourceGroup,omitempty"`
}

// CreateOriginalTestSources returns the list most tests start from
func CreateOriginalTestSources() []TestSource {
	return []TestSource{
		{Code: "https://alpha.example.com", Name: "Alpha", Group: "novels"},
		{Code: "https://beta.example.com", Name: "Beta", Group: "comics"},
		{Code: "https://gamma.test", Name: "Gamma", Group: "novels,18+"},
	}
}

// CreateUpdatedTestSources returns the original list with one source added
func CreateUpdatedTestSources() []TestSource {
	return append(CreateOriginalTestSources(),
		TestSource{Code: "https://delta.example.com", Name: "Delta", Group: "novels"})
}

// MarshalSources encodes sources as a source list document
func MarshalSources(sources []TestSource) []byte {
	data, err := json.MarshalIndent(sources, "", "  ")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return data
}

// WriteSourceList writes sources to dir/name and returns the path
func WriteSourceList(dir, name string, sources []TestSource) string {
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, MarshalSources(sources), 0600)
	gomega.Expect(err).NotTo(gomega.HaveOccurred(), fmt.Sprintf("writing %s", path))
	return path
}

// WriteRaw overwrites path with data
func WriteRaw(path string, data []byte) {
	gomega.Expect(os.WriteFile(path, data, 0600)).To(gomega.Succeed())
}
