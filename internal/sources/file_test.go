package sources_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qianmo517/reader/internal/config"
	"github.com/qianmo517/reader/internal/sources"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func fileSource(path string) *config.SourceConfig {
	return &config.SourceConfig{Name: "local", File: &config.FileConfig{Path: path}}
}

func TestFileSourceHandler_FetchList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		content       string
		wantCodes     []string
		errorContains string
	}{
		{
			name:      "array of definitions",
			content:   `[{"bookSourceUrl":"https://a.example","bookSourceName":"A"},{"code":"b"}]`,
			wantCodes: []string{"https://a.example", "b"},
		},
		{
			name: "hujson with comments and trailing commas",
			content: `[
	// primary
	{"code": "a", "bookSourceName": "A",},
]`,
			wantCodes: []string{"a"},
		},
		{
			name:      "single definition object",
			content:   `{"code":"solo"}`,
			wantCodes: []string{"solo"},
		},
		{
			name:      "broken entries are skipped",
			content:   `[1, {"bookSourceName":"no code"}, {"code":"ok"}]`,
			wantCodes: []string{"ok"},
		},
		{
			name:          "not json",
			content:       `<html>`,
			errorContains: "invalid source list",
		},
		{
			name:          "empty file",
			content:       ``,
			errorContains: "invalid source list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := sources.NewFileSourceHandler()
			result, err := handler.FetchList(context.Background(), fileSource(writeList(t, tt.content)))
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "local", result.ListName)
			assert.Equal(t, len(tt.wantCodes), result.Count)
			codes := make([]string, 0, len(result.Definitions))
			for _, def := range result.Definitions {
				codes = append(codes, def.Code)
			}
			assert.Equal(t, tt.wantCodes, codes)
			assert.Len(t, result.Hash, 64)
		})
	}
}

func TestFileSourceHandler_MissingFile(t *testing.T) {
	t.Parallel()

	handler := sources.NewFileSourceHandler()
	_, err := handler.FetchList(context.Background(), fileSource(filepath.Join(t.TempDir(), "nope.json")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestFileSourceHandler_Validate(t *testing.T) {
	t.Parallel()

	handler := sources.NewFileSourceHandler()

	tests := []struct {
		name          string
		src           *config.SourceConfig
		errorContains string
	}{
		{name: "nil config", src: nil, errorContains: "cannot be nil"},
		{name: "missing file block", src: &config.SourceConfig{Name: "x"}, errorContains: "file configuration is required"},
		{name: "empty path", src: fileSource(""), errorContains: "file path cannot be empty"},
		{name: "valid", src: fileSource("sources.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := handler.Validate(tt.src)
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
		})
	}
}
