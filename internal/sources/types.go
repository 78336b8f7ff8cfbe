package sources

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/qianmo517/reader/internal/booksource"
	"github.com/qianmo517/reader/internal/config"
)

//go:generate mockgen -destination=mocks/mock_source_handler.go -package=mocks -source=types.go SourceHandler,SourceHandlerFactory

// SourceHandler is an interface with methods to fetch book source lists from external locations
type SourceHandler interface {
	// FetchList retrieves the list and returns its parsed definitions
	FetchList(ctx context.Context, src *config.SourceConfig) (*FetchResult, error)

	// Validate validates the source configuration
	Validate(src *config.SourceConfig) error
}

// FetchResult contains the result of a fetch operation
type FetchResult struct {
	// ListName is the configured name of the list
	ListName string

	// Definitions are the list entries in document order
	Definitions []booksource.Definition

	// Hash is the SHA256 hash of the raw document for change detection
	Hash string

	// Count is the number of definitions found in the list
	Count int
}

// NewFetchResult creates a new FetchResult from parsed definitions and a pre-calculated hash.
// The hash is taken over the raw document, before parsing.
func NewFetchResult(listName string, defs []booksource.Definition, hash string) *FetchResult {
	return &FetchResult{
		ListName:    listName,
		Definitions: defs,
		Hash:        hash,
		Count:       len(defs),
	}
}

// SourceHandlerFactory creates source handlers based on source type
type SourceHandlerFactory interface {
	// CreateHandler creates a source handler for the given source type
	CreateHandler(sourceType string) (SourceHandler, error)
}

func hashOf(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// parseFetched turns a raw list document into a FetchResult.
func parseFetched(src *config.SourceConfig, data []byte) (*FetchResult, error) {
	defs, err := booksource.ParseList(data)
	if err != nil {
		return nil, fmt.Errorf("invalid source list: %w", err)
	}
	return NewFetchResult(src.Name, defs, hashOf(data)), nil
}

func requireSource(src *config.SourceConfig) error {
	if src == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}
	return nil
}
