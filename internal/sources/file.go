package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/qianmo517/reader/internal/config"
)

// fileSourceHandler handles source lists from local files
type fileSourceHandler struct{}

// NewFileSourceHandler creates a new file source handler
func NewFileSourceHandler() SourceHandler {
	return &fileSourceHandler{}
}

// Validate validates the file source configuration
func (*fileSourceHandler) Validate(src *config.SourceConfig) error {
	if err := requireSource(src); err != nil {
		return err
	}
	if src.File == nil {
		return fmt.Errorf("file configuration is required")
	}
	if src.File.Path == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	return nil
}

// FetchList reads and parses the list file
func (h *fileSourceHandler) FetchList(ctx context.Context, src *config.SourceConfig) (*FetchResult, error) {
	data, err := h.readFile(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file data: %w", err)
	}
	return parseFetched(src, data)
}

func (h *fileSourceHandler) readFile(_ context.Context, src *config.SourceConfig) ([]byte, error) {
	if err := h.Validate(src); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	path := src.File.Path
	//nolint:gosec // File path comes from user configuration, this is expected behavior
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}
