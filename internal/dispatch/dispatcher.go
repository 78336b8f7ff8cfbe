// Package dispatch resolves book-source requests and dispatches them to the
// rule engine.
//
// A request flows through three steps: the Resolver picks the definition
// (inline first, then registry code), the Dispatcher validates the operation
// parameters and calls the engine, and Normalize shapes the settled outcome
// into the response envelope.
package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/mo"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/qianmo517/reader/internal/booksource"
	"github.com/qianmo517/reader/internal/engine"
	"github.com/qianmo517/reader/internal/otel"
	"github.com/qianmo517/reader/internal/telemetry"
)

// DefaultEngineTimeout bounds a single engine call.
const DefaultEngineTimeout = 60 * time.Second

type handler func(ctx context.Context, src booksource.Definition, params Params) *mo.Future[any]

// Dispatcher maps operation requests onto engine calls. It is stateless and
// safe for concurrent use; concurrent requests for the same source are neither
// serialized nor coalesced.
type Dispatcher struct {
	resolver *Resolver
	engine   engine.Engine
	timeout  time.Duration
	tracer   trace.Tracer
	metrics  *telemetry.DispatchMetrics
	handlers map[OperationKind]handler
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithEngineTimeout bounds every engine call. Zero disables the bound.
func WithEngineTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// WithMetrics sets the dispatch metrics.
func WithMetrics(metrics *telemetry.DispatchMetrics) Option {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

// New creates a dispatcher.
func New(resolver *Resolver, eng engine.Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver: resolver,
		engine:   eng,
		timeout:  DefaultEngineTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.handlers = map[OperationKind]handler{
		OpSearch:         d.handleSearch,
		OpExplore:        d.handleExplore,
		OpGetBookInfo:    d.handleGetBookInfo,
		OpGetChapterList: d.handleGetChapterList,
		OpGetContent:     d.handleGetContent,
	}
	return d
}

// Handle resolves the source of req and dispatches it. The returned future
// settles once, after the engine call has settled or validation has failed.
func (d *Dispatcher) Handle(ctx context.Context, req Request) *mo.Future[any] {
	start := time.Now()
	ctx, span := otel.StartSpan(ctx, d.tracer, "dispatch."+string(req.Kind),
		trace.WithAttributes(
			otel.AttrOperation.String(string(req.Kind)),
			otel.AttrSourceRef.String(req.Source.String()),
		),
	)

	var pending *mo.Future[any]
	src, err := d.resolver.Resolve(req.Source)
	if err != nil {
		pending = engine.Rejected[any](err)
	} else {
		span.SetAttributes(otel.AttrSourceCode.String(src.Code))
		pending = d.Dispatch(ctx, req.Kind, src, req.Params)
	}

	// Recording must outlive the caller's request context.
	recordCtx := context.WithoutCancel(ctx)
	return engine.Go(func() (any, error) {
		value, err := pending.Collect()

		kind := ""
		if err != nil {
			kind = string(KindOf(err))
			span.SetAttributes(otel.AttrErrorKind.String(kind))
		}
		d.metrics.RecordOperation(recordCtx, string(req.Kind), time.Since(start), kind)
		otel.EndSpan(span, err)

		return value, err
	})
}

// Dispatch runs one operation against an already resolved definition.
func (d *Dispatcher) Dispatch(ctx context.Context, kind OperationKind, src booksource.Definition, params Params) *mo.Future[any] {
	h, ok := d.handlers[kind]
	if !ok {
		return engine.Rejected[any](badRequest("unknown operation %q", kind))
	}
	return h(ctx, src, params)
}

// Search runs a search for key. Non-positive pages are the first page.
func (d *Dispatcher) Search(ctx context.Context, src booksource.Definition, key string, page int) *mo.Future[[]engine.SearchBook] {
	if strings.TrimSpace(key) == "" {
		return engine.Rejected[[]engine.SearchBook](badRequest("%s is required", FieldKey))
	}
	page = NormalizePage(page)
	return callEngine(ctx, d, OpSearch, func(ctx context.Context) *mo.Future[[]engine.SearchBook] {
		return d.engine.SearchBook(ctx, src, key, page)
	})
}

// Explore runs the discovery rule group ruleFindURL. Non-positive pages are the first page.
func (d *Dispatcher) Explore(ctx context.Context, src booksource.Definition, ruleFindURL string, page int) *mo.Future[[]engine.SearchBook] {
	if strings.TrimSpace(ruleFindURL) == "" {
		return engine.Rejected[[]engine.SearchBook](badRequest("%s is required", FieldRuleFindURL))
	}
	page = NormalizePage(page)
	return callEngine(ctx, d, OpExplore, func(ctx context.Context) *mo.Future[[]engine.SearchBook] {
		return d.engine.ExploreBook(ctx, src, ruleFindURL, page)
	})
}

// GetBookInfo enriches book with the source's detail page.
func (d *Dispatcher) GetBookInfo(ctx context.Context, src booksource.Definition, book engine.Book) *mo.Future[engine.Book] {
	if book.BookURL == "" {
		return engine.Rejected[engine.Book](badRequest("%s.bookUrl is required", FieldSearchBook))
	}
	return callEngine(ctx, d, OpGetBookInfo, func(ctx context.Context) *mo.Future[engine.Book] {
		return d.engine.GetBookInfo(ctx, src, book)
	})
}

// GetChapterList returns the chapters of book in reading order.
func (d *Dispatcher) GetChapterList(ctx context.Context, src booksource.Definition, book engine.Book) *mo.Future[[]engine.BookChapter] {
	if book.BookURL == "" {
		return engine.Rejected[[]engine.BookChapter](badRequest("%s.bookUrl is required", FieldBook))
	}
	return callEngine(ctx, d, OpGetChapterList, func(ctx context.Context) *mo.Future[[]engine.BookChapter] {
		return d.engine.GetChapterList(ctx, src, book)
	})
}

// GetContent returns the text of chapter. The book is optional.
func (d *Dispatcher) GetContent(
	ctx context.Context, src booksource.Definition, book mo.Option[engine.Book], chapter engine.BookChapter,
) *mo.Future[engine.Content] {
	if chapter.URL == "" {
		return engine.Rejected[engine.Content](badRequest("%s.url is required", FieldBookChapter))
	}
	text := callEngine(ctx, d, OpGetContent, func(ctx context.Context) *mo.Future[string] {
		return d.engine.GetContent(ctx, src, book, chapter)
	})
	return engine.Go(func() (engine.Content, error) {
		s, err := text.Collect()
		if err != nil {
			return engine.Content{}, err
		}
		return engine.Content{Text: s}, nil
	})
}

func (d *Dispatcher) handleSearch(ctx context.Context, src booksource.Definition, params Params) *mo.Future[any] {
	key, err := params.String(FieldKey)
	if err != nil {
		return engine.Rejected[any](err)
	}
	page, err := params.Page(FieldPage)
	if err != nil {
		return engine.Rejected[any](err)
	}
	return widen(d.Search(ctx, src, key, page), orEmpty[engine.SearchBook])
}

func (d *Dispatcher) handleExplore(ctx context.Context, src booksource.Definition, params Params) *mo.Future[any] {
	ruleFindURL, err := params.String(FieldRuleFindURL)
	if err != nil {
		return engine.Rejected[any](err)
	}
	page, err := params.Page(FieldPage)
	if err != nil {
		return engine.Rejected[any](err)
	}
	return widen(d.Explore(ctx, src, ruleFindURL, page), orEmpty[engine.SearchBook])
}

func (d *Dispatcher) handleGetBookInfo(ctx context.Context, src booksource.Definition, params Params) *mo.Future[any] {
	var hit engine.SearchBook
	ok, err := params.Object(FieldSearchBook, &hit)
	if err != nil {
		return engine.Rejected[any](err)
	}
	if !ok {
		return engine.Rejected[any](badRequest("%s is required", FieldSearchBook))
	}
	return widen(d.GetBookInfo(ctx, src, hit.ToBook()), identity[engine.Book])
}

func (d *Dispatcher) handleGetChapterList(ctx context.Context, src booksource.Definition, params Params) *mo.Future[any] {
	var book engine.Book
	ok, err := params.Object(FieldBook, &book)
	if err != nil {
		return engine.Rejected[any](err)
	}
	if !ok {
		return engine.Rejected[any](badRequest("%s is required", FieldBook))
	}
	return widen(d.GetChapterList(ctx, src, book), orEmpty[engine.BookChapter])
}

func (d *Dispatcher) handleGetContent(ctx context.Context, src booksource.Definition, params Params) *mo.Future[any] {
	var chapter engine.BookChapter
	ok, err := params.Object(FieldBookChapter, &chapter)
	if err != nil {
		return engine.Rejected[any](err)
	}
	if !ok {
		return engine.Rejected[any](badRequest("%s is required", FieldBookChapter))
	}

	book := mo.None[engine.Book]()
	var b engine.Book
	hasBook, err := params.Object(FieldBook, &b)
	if err != nil {
		return engine.Rejected[any](err)
	}
	if hasBook {
		book = mo.Some(b)
	}
	return widen(d.GetContent(ctx, src, book, chapter), identity[engine.Content])
}

// engineContext detaches the engine call from caller cancellation: a caller
// that goes away does not abort the engine, whose result is then discarded.
func (d *Dispatcher) engineContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if d.timeout <= 0 {
		return detached, func() {}
	}
	return context.WithTimeout(detached, d.timeout)
}

// callEngine invokes call and classifies its failure as an engine failure.
func callEngine[T any](
	ctx context.Context, d *Dispatcher, kind OperationKind, call func(context.Context) *mo.Future[T],
) *mo.Future[T] {
	return engine.Go(func() (T, error) {
		engineCtx, cancel := d.engineContext(ctx)
		defer cancel()

		value, err := call(engineCtx).Collect()
		if err != nil {
			var zero T
			return zero, engineFailure(kind, err)
		}
		return value, nil
	})
}

func engineFailure(kind OperationKind, err error) error {
	var dispatchErr *Error
	if errors.As(err, &dispatchErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindEngineFailure, err, "%s timed out in the book source engine", kind)
	}
	zap.S().Debugw("Engine call failed", "operation", kind, "error", err)
	return NewError(KindEngineFailure, err, "%s failed in the book source engine", kind)
}

func widen[T any](f *mo.Future[T], shape func(T) any) *mo.Future[any] {
	return engine.Go(func() (any, error) {
		value, err := f.Collect()
		if err != nil {
			return nil, err
		}
		return shape(value), nil
	})
}

func identity[T any](v T) any {
	return v
}

// orEmpty keeps "no results" distinguishable from failure on the wire: a nil
// slice would encode as null.
func orEmpty[T any](items []T) any {
	if items == nil {
		return []T{}
	}
	return items
}
