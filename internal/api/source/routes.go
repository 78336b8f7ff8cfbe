// Package source provides the book-source operation endpoints.
//
// Every operation endpoint answers HTTP 200 with a dispatch envelope; failures
// are reported inside the envelope, never through the status code.
package source

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qianmo517/reader/internal/api/common"
	"github.com/qianmo517/reader/internal/booksource"
	"github.com/qianmo517/reader/internal/dispatch"
)

// MaxRequestBodySize bounds an operation request body. Inline definitions are
// the largest legitimate payload.
const MaxRequestBodySize = 10 << 20

// operationRoutes maps route names onto operation kinds.
var operationRoutes = map[string]dispatch.OperationKind{
	"search":         dispatch.OpSearch,
	"explore":        dispatch.OpExplore,
	"getBookInfo":    dispatch.OpGetBookInfo,
	"getChapterList": dispatch.OpGetChapterList,
	"getContent":     dispatch.OpGetContent,
}

// legacyRoutes are the route names of the /yuedu API.
var legacyRoutes = map[string]dispatch.OperationKind{
	"searchBook":     dispatch.OpSearch,
	"exploreBook":    dispatch.OpExplore,
	"getBookInfo":    dispatch.OpGetBookInfo,
	"getChapterList": dispatch.OpGetChapterList,
	"getContent":     dispatch.OpGetContent,
}

// ListResponse is the payload of GET /source/list
type ListResponse struct {
	Fingerprint string                  `json:"fingerprint"`
	Sources     []booksource.Definition `json:"sources"`
}

// Routes serves book-source operations.
type Routes struct {
	dispatcher *dispatch.Dispatcher
	registry   *booksource.Registry
}

// NewRoutes creates a new Routes instance
func NewRoutes(dispatcher *dispatch.Dispatcher, registry *booksource.Registry) *Routes {
	return &Routes{
		dispatcher: dispatcher,
		registry:   registry,
	}
}

// Router creates the /source router.
func Router(dispatcher *dispatch.Dispatcher, registry *booksource.Registry) http.Handler {
	routes := NewRoutes(dispatcher, registry)

	r := chi.NewRouter()
	for name, kind := range operationRoutes {
		r.Post("/"+name, routes.operation(kind))
	}
	r.Get("/fingerprint", routes.fingerprint)
	r.Get("/list", routes.list)
	r.Get("/list/{code}", routes.get)

	return r
}

// LegacyRouter creates the /yuedu router, which serves the same handlers
// under their historical names.
func LegacyRouter(dispatcher *dispatch.Dispatcher, registry *booksource.Registry) http.Handler {
	routes := NewRoutes(dispatcher, registry)

	r := chi.NewRouter()
	for name, kind := range legacyRoutes {
		r.Post("/"+name, routes.operation(kind))
	}
	r.Get("/md5", routes.fingerprint)

	return r
}

// operation handles POST /source/{operation}
func (rr *Routes) operation(kind dispatch.OperationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBodySize))
		if err != nil {
			writeEnvelope(w, dispatch.Failure(
				dispatch.NewError(dispatch.KindBadRequest, err, "failed to read request body")))
			return
		}

		req, err := dispatch.DecodeRequest(kind, body)
		if err != nil {
			writeEnvelope(w, dispatch.Failure(err))
			return
		}

		writeEnvelope(w, dispatch.Normalize(rr.dispatcher.Handle(r.Context(), req).Collect()))
	}
}

// fingerprint handles GET /source/fingerprint
func (rr *Routes) fingerprint(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, dispatch.Success(rr.registry.Fingerprint()))
}

// list handles GET /source/list
func (rr *Routes) list(w http.ResponseWriter, _ *http.Request) {
	// Both fields come from one snapshot so they always agree.
	snap := rr.registry.Snapshot()
	writeEnvelope(w, dispatch.Success(ListResponse{
		Fingerprint: snap.Fingerprint(),
		Sources:     snap.List(),
	}))
}

// get handles GET /source/list/{code}
func (rr *Routes) get(w http.ResponseWriter, r *http.Request) {
	code, err := common.GetAndValidateURLParam(r, "code")
	if err != nil {
		writeEnvelope(w, dispatch.Failure(dispatch.NewError(dispatch.KindBadRequest, err, "%s", err.Error())))
		return
	}

	def, ok := rr.registry.Get(code)
	if !ok {
		writeEnvelope(w, dispatch.Failure(
			dispatch.NewError(dispatch.KindUnknownSourceCode, nil, "unknown book source code %q", code)))
		return
	}
	writeEnvelope(w, dispatch.Success(def))
}

func writeEnvelope(w http.ResponseWriter, env dispatch.Envelope) {
	common.WriteJSONResponse(w, env, http.StatusOK)
}
