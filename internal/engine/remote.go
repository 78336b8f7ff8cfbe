package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/samber/mo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/qianmo517/reader/internal/booksource"
	"github.com/qianmo517/reader/internal/httpclient"
)

// Operation names understood by a remote engine. They double as URL path
// segments under the engine endpoint.
const (
	OpSearchBook     = "searchBook"
	OpExploreBook    = "exploreBook"
	OpGetBookInfo    = "getBookInfo"
	OpGetChapterList = "getChapterList"
	OpGetContent     = "getContent"
)

// RemoteError is a failure reported by a remote engine in its response envelope.
type RemoteError struct {
	Operation string
	Code      string
	Message   string
}

// Error returns the error message
func (e *RemoteError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("engine %s failed: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("engine %s failed (%s): %s", e.Operation, e.Code, e.Message)
}

// ErrNoData is returned when a remote engine reports success without the
// result object the operation requires.
var ErrNoData = errors.New("engine reported success without data")

// RemoteOption configures a Remote engine
type RemoteOption func(*Remote)

// WithClient sets the HTTP client used to reach the engine.
func WithClient(client httpclient.Client) RemoteOption {
	return func(r *Remote) {
		r.client = client
	}
}

// WithRateLimit throttles outbound calls to rps requests per second with the
// given burst. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) RemoteOption {
	return func(r *Remote) {
		if rps <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Remote is an Engine that forwards every operation to an out-of-process rule
// engine over HTTP. Each call POSTs the definition together with the operation
// parameters to <endpoint>/<operation> and expects an isSuccess envelope back.
//
// Remote never retries; retry policy belongs to the engine. The default client
// sets no request timeout, so calls are bounded by the caller's context alone.
type Remote struct {
	endpoint string
	client   httpclient.Client
	limiter  *rate.Limiter
}

var _ Engine = (*Remote)(nil)

// NewRemote creates a remote engine client for endpoint.
func NewRemote(endpoint string, opts ...RemoteOption) (*Remote, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid engine endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("engine endpoint must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("engine endpoint %q has no host", endpoint)
	}

	r := &Remote{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   httpclient.NewDefaultClient(httpclient.NoTimeout),
		limiter:  rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// SearchBook implements Engine
func (r *Remote) SearchBook(
	ctx context.Context, src booksource.Definition, key string, page int,
) *mo.Future[[]SearchBook] {
	return call[[]SearchBook](ctx, r, OpSearchBook, listResult, map[string]any{
		"bookSource": src,
		"key":        key,
		"page":       page,
	})
}

// ExploreBook implements Engine
func (r *Remote) ExploreBook(
	ctx context.Context, src booksource.Definition, ruleFindURL string, page int,
) *mo.Future[[]SearchBook] {
	return call[[]SearchBook](ctx, r, OpExploreBook, listResult, map[string]any{
		"bookSource":  src,
		"ruleFindUrl": ruleFindURL,
		"page":        page,
	})
}

// GetBookInfo implements Engine
func (r *Remote) GetBookInfo(ctx context.Context, src booksource.Definition, book Book) *mo.Future[Book] {
	return call[Book](ctx, r, OpGetBookInfo, objectResult, map[string]any{
		"bookSource": src,
		"book":       book,
	})
}

// GetChapterList implements Engine
func (r *Remote) GetChapterList(ctx context.Context, src booksource.Definition, book Book) *mo.Future[[]BookChapter] {
	return call[[]BookChapter](ctx, r, OpGetChapterList, listResult, map[string]any{
		"bookSource": src,
		"book":       book,
	})
}

// GetContent implements Engine
func (r *Remote) GetContent(
	ctx context.Context, src booksource.Definition, book mo.Option[Book], chapter BookChapter,
) *mo.Future[string] {
	params := map[string]any{
		"bookSource":  src,
		"bookChapter": chapter,
	}
	if b, ok := book.Get(); ok {
		params["book"] = b
	}

	return Go(func() (string, error) {
		content, err := invoke[Content](ctx, r, OpGetContent, objectResult, params)
		if err != nil {
			return "", err
		}
		return content.Text, nil
	})
}

type remoteEnvelope struct {
	IsSuccess bool            `json:"isSuccess"`
	Data      json.RawMessage `json:"data"`
	ErrCode   string          `json:"errCode"`
	Msg       string          `json:"msg"`
}

// resultShape tells whether a missing result may be read as empty.
type resultShape int

const (
	// listResult operations treat null data as an empty list
	listResult resultShape = iota
	// objectResult operations fail on null data
	objectResult
)

func call[T any](ctx context.Context, r *Remote, op string, shape resultShape, params map[string]any) *mo.Future[T] {
	return Go(func() (T, error) {
		return invoke[T](ctx, r, op, shape, params)
	})
}

func invoke[T any](ctx context.Context, r *Remote, op string, shape resultShape, params map[string]any) (T, error) {
	var zero T

	if err := r.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("engine %s throttled: %w", op, err)
	}

	body, err := json.Marshal(params)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	raw, err := r.client.Post(ctx, r.endpoint+"/"+op, body)
	if err != nil {
		return zero, fmt.Errorf("engine %s request failed: %w", op, err)
	}

	var env remoteEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	if !env.IsSuccess {
		return zero, &RemoteError{Operation: op, Code: env.ErrCode, Message: env.Msg}
	}

	var out T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		if shape == objectResult {
			return zero, fmt.Errorf("failed to decode %s result: %w", op, ErrNoData)
		}
		zap.S().Debugw("Engine returned empty data", "operation", op)
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return zero, fmt.Errorf("failed to decode %s result: %w", op, err)
	}
	return out, nil
}

// IsRemoteError reports whether err carries a failure reported by a remote engine.
func IsRemoteError(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr)
}
