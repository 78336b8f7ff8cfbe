package helpers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// FailingSourceName makes the fake engine reject every call for a source
// carrying this bookSourceName
const FailingSourceName = "Broken"

// FakeEngine is an HTTP rule engine that answers from the request alone
type FakeEngine struct {
	server *httptest.Server

	mu    sync.Mutex
	calls []string
}

// NewFakeEngine starts a fake engine. Call Close when done.
func NewFakeEngine() *FakeEngine {
	e := &FakeEngine{}
	e.server = httptest.NewServer(http.HandlerFunc(e.handle))
	return e
}

// URL is the engine endpoint to put in the configuration
func (e *FakeEngine) URL() string {
	return e.server.URL
}

// Close stops the engine
func (e *FakeEngine) Close() {
	e.server.Close()
}

// Calls returns the operations received so far, in order
func (e *FakeEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *FakeEngine) handle(w http.ResponseWriter, r *http.Request) {
	op := strings.TrimPrefix(r.URL.Path, "/")
	body, _ := io.ReadAll(r.Body)

	e.mu.Lock()
	e.calls = append(e.calls, op)
	e.mu.Unlock()

	params := gjson.ParseBytes(body)
	source := params.Get("bookSource")
	if source.Get("bookSourceName").String() == FailingSourceName {
		writeEngineReply(w, map[string]any{"isSuccess": false, "errCode": "RuleError", "msg": "rule matched nothing"})
		return
	}

	origin := source.Get("bookSourceUrl").String()
	var data any
	switch op {
	case "searchBook", "exploreBook":
		term := params.Get("key").String()
		if op == "exploreBook" {
			term = params.Get("ruleFindUrl").String()
		}
		data = []map[string]any{{
			"bookUrl": origin + "/book/1",
			"name":    term + " from " + source.Get("bookSourceName").String(),
			"author":  "Author",
			"origin":  origin,
		}}
	case "getBookInfo":
		book := params.Get("book")
		data = map[string]any{
			"bookUrl": book.Get("bookUrl").String(),
			"tocUrl":  book.Get("bookUrl").String() + "/toc",
			"name":    book.Get("name").String(),
			"author":  "Author",
			"intro":   "An intro",
		}
	case "getChapterList":
		tocURL := params.Get("book.tocUrl").String()
		data = []map[string]any{
			{"url": tocURL + "/1", "title": "Chapter 1", "index": 0},
			{"url": tocURL + "/2", "title": "Chapter 2", "index": 1},
		}
	case "getContent":
		data = map[string]any{"text": "content of " + params.Get("bookChapter.title").String()}
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeEngineReply(w, map[string]any{"isSuccess": true, "data": data})
}

func writeEngineReply(w http.ResponseWriter, reply map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}
