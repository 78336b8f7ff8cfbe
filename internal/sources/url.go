package sources

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qianmo517/reader/internal/config"
	"github.com/qianmo517/reader/internal/httpclient"
)

// urlSourceHandler handles source lists published over HTTP(S)
type urlSourceHandler struct {
	httpClient httpclient.Client
}

// NewURLSourceHandler creates a new URL source handler
func NewURLSourceHandler(httpClient httpclient.Client) SourceHandler {
	return &urlSourceHandler{httpClient: httpClient}
}

// Validate validates the URL source configuration
func (*urlSourceHandler) Validate(src *config.SourceConfig) error {
	if err := requireSource(src); err != nil {
		return err
	}
	if src.URL == nil {
		return fmt.Errorf("url configuration is required")
	}
	if src.URL.Endpoint == "" {
		return fmt.Errorf("url endpoint cannot be empty")
	}
	return nil
}

// FetchList downloads and parses the list
func (h *urlSourceHandler) FetchList(ctx context.Context, src *config.SourceConfig) (*FetchResult, error) {
	data, err := h.download(ctx, src)
	if err != nil {
		return nil, err
	}
	return parseFetched(src, data)
}

func (h *urlSourceHandler) download(ctx context.Context, src *config.SourceConfig) ([]byte, error) {
	if err := h.Validate(src); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	start := time.Now()
	data, err := h.httpClient.Get(ctx, src.URL.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", src.URL.Endpoint, err)
	}
	zap.S().Debugw("Downloaded source list",
		"list", src.Name,
		"endpoint", src.URL.Endpoint,
		"bytes", len(data),
		"duration", time.Since(start).String())
	return data, nil
}
