package app

import (
	"github.com/qianmo517/reader/internal/booksource"
	"github.com/qianmo517/reader/internal/dispatch"
	"github.com/qianmo517/reader/internal/sync/coordinator"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator manages background synchronization
	SyncCoordinator coordinator.Coordinator

	// Registry holds the book source definitions the dispatcher resolves codes against
	Registry *booksource.Registry

	// Dispatcher routes operations to the engine
	Dispatcher *dispatch.Dispatcher
}
