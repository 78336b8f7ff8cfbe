package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/qianmo517/reader/internal/booksource"
	"github.com/qianmo517/reader/internal/config"
	"github.com/qianmo517/reader/internal/filtering"
	"github.com/qianmo517/reader/internal/sources"
	"github.com/qianmo517/reader/internal/status"
	"github.com/qianmo517/reader/internal/telemetry"
)

// Failure reasons carried by Error
const (
	ReasonHandlerCreationFailed = "HandlerCreationFailed"
	ReasonFetchFailed           = "FetchFailed"
	ReasonFilterFailed          = "FilterFailed"
	ReasonStorageFailed         = "StorageFailed"
)

// Result contains the result of a sync run
type Result struct {
	RunID string

	// Hash is the combined hash of the merged lists
	Hash string

	// SourceCount is the number of definitions in the registry after the run
	SourceCount int

	// Changed reports whether a new snapshot was published
	Changed bool

	// Lists holds one entry per configured list, in config order
	Lists []status.ListStatus
}

// Failed returns the lists whose fetch failed in this run.
func (r *Result) Failed() []status.ListStatus {
	return lo.Filter(r.Lists, func(l status.ListStatus, _ int) bool {
		return l.Error != ""
	})
}

// Error represents a sync run that published nothing
type Error struct {
	Err     error
	Message string
	Reason  string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager synchronizes the registry with the configured source lists
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/qianmo517/reader/internal/sync Manager
type Manager interface {
	// PerformSync fetches all lists and publishes the merged result if it changed
	PerformSync(ctx context.Context) (*Result, *Error)
}

// ManagerOption configures the default manager
type ManagerOption func(*defaultSyncManager)

// WithSyncMetrics records per-list fetch outcomes
func WithSyncMetrics(metrics *telemetry.SyncMetrics) ManagerOption {
	return func(m *defaultSyncManager) {
		m.syncMetrics = metrics
	}
}

// WithRegistryMetrics records the registry size after each publish
func WithRegistryMetrics(metrics *telemetry.RegistryMetrics) ManagerOption {
	return func(m *defaultSyncManager) {
		m.registryMetrics = metrics
	}
}

// WithFilterService replaces the filter applied to lists that configure one
func WithFilterService(service filtering.FilterService) ManagerOption {
	return func(m *defaultSyncManager) {
		m.filter = service
	}
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	factory  sources.SourceHandlerFactory
	registry *booksource.Registry
	lists    []config.SourceConfig
	filter   filtering.FilterService

	syncMetrics     *telemetry.SyncMetrics
	registryMetrics *telemetry.RegistryMetrics

	// mu serializes runs and guards the fields below
	mu        stdsync.Mutex
	lastGood  map[string]*sources.FetchResult
	lastHash  string
	published bool
}

// NewDefaultSyncManager creates a manager that loads lists into registry
func NewDefaultSyncManager(
	factory sources.SourceHandlerFactory,
	registry *booksource.Registry,
	lists []config.SourceConfig,
	opts ...ManagerOption,
) Manager {
	m := &defaultSyncManager{
		factory:  factory,
		registry: registry,
		lists:    lists,
		filter:   filtering.NewDefaultFilterService(),
		lastGood: make(map[string]*sources.FetchResult),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type fetchOutcome struct {
	result *sources.FetchResult
	err    *Error
}

// PerformSync executes one sync run
func (m *defaultSyncManager) PerformSync(ctx context.Context) (*Result, *Error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	runID := uuid.NewString()
	logger := zap.S().With("run_id", runID)
	logger.Infow("Starting source list sync", "list_count", len(m.lists))

	outcomes := iter.Map(m.lists, func(src *config.SourceConfig) fetchOutcome {
		return m.fetchList(ctx, src)
	})

	var (
		results []*sources.FetchResult
		lists   = make([]status.ListStatus, 0, len(m.lists))
		errs    []error
	)
	for i, outcome := range outcomes {
		src := &m.lists[i]
		listStatus := status.ListStatus{Name: src.Name, Type: src.GetType()}

		result := outcome.result
		if outcome.err != nil {
			errs = append(errs, outcome.err)
			listStatus.Error = outcome.err.Message
			prev, ok := m.lastGood[src.Name]
			if ok {
				listStatus.Stale = true
				result = prev
			}
			logger.Warnw("Source list fetch failed",
				"list", src.Name,
				"error", outcome.err.Err,
				"keeping_previous", ok)
		} else {
			m.lastGood[src.Name] = result
		}

		if result != nil {
			listStatus.Hash = result.Hash
			listStatus.Count = result.Count
			results = append(results, result)
		}
		lists = append(lists, listStatus)
	}

	if len(m.lists) > 0 && len(results) == 0 {
		return nil, &Error{
			Err:     errors.Join(errs...),
			Message: fmt.Sprintf("all %d source lists failed to load", len(m.lists)),
			Reason:  ReasonFetchFailed,
		}
	}

	hash := combinedHash(results)
	result := &Result{RunID: runID, Hash: hash, Lists: lists}

	if m.published && hash == m.lastHash {
		result.SourceCount = m.registry.Len()
		logger.Infow("Source lists unchanged", "hash", shortHash(hash))
		return result, nil
	}

	defs := lo.FlatMap(results, func(r *sources.FetchResult, _ int) []booksource.Definition {
		return r.Definitions
	})
	snap, err := m.registry.Replace(defs)
	if err != nil {
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("failed to publish registry: %v", err),
			Reason:  ReasonStorageFailed,
		}
	}

	m.lastHash = hash
	m.published = true
	m.registryMetrics.RecordSourcesTotal(ctx, int64(snap.Len()))

	result.Changed = true
	result.SourceCount = snap.Len()
	logger.Infow("Published book source registry",
		"sources", snap.Len(),
		"generation", snap.Generation(),
		"fingerprint", shortHash(snap.Fingerprint()))
	return result, nil
}

// fetchList creates the handler for src and fetches it
func (m *defaultSyncManager) fetchList(ctx context.Context, src *config.SourceConfig) (out fetchOutcome) {
	defer func() {
		m.syncMetrics.RecordListFetch(ctx, src.Name, out.err == nil)
	}()

	handler, err := m.factory.CreateHandler(src.GetType())
	if err != nil {
		return fetchOutcome{err: &Error{
			Err:     err,
			Message: fmt.Sprintf("failed to create source handler: %v", err),
			Reason:  ReasonHandlerCreationFailed,
		}}
	}

	start := time.Now()
	result, err := handler.FetchList(ctx, src)
	if err != nil {
		return fetchOutcome{err: &Error{
			Err:     err,
			Message: fmt.Sprintf("fetch failed: %v", err),
			Reason:  ReasonFetchFailed,
		}}
	}

	if src.Filter != nil {
		kept, err := m.filter.ApplyFilters(ctx, result.Definitions, src.Filter)
		if err != nil {
			return fetchOutcome{err: &Error{
				Err:     err,
				Message: fmt.Sprintf("filter failed: %v", err),
				Reason:  ReasonFilterFailed,
			}}
		}
		result = sources.NewFetchResult(result.ListName, kept, result.Hash)
	}

	zap.S().Debugw("Fetched source list",
		"list", src.Name,
		"definitions", result.Count,
		"hash", shortHash(result.Hash),
		"duration", time.Since(start).String())
	return fetchOutcome{result: result}
}

// combinedHash digests list names and hashes in merge order. Order matters:
// the same lists merged differently can resolve a duplicate code differently.
func combinedHash(results []*sources.FetchResult) string {
	h := sha256.New()
	for _, r := range results {
		h.Write([]byte(r.ListName))
		h.Write([]byte{0})
		h.Write([]byte(r.Hash))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
