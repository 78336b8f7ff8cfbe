package engine_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qianmo517/reader/internal/booksource"
	"github.com/qianmo517/reader/internal/engine"
	"github.com/qianmo517/reader/internal/httpclient"
)

const testEndpoint = "http://engine.example.test"

func newTestRemote(t *testing.T, transport *httpmock.MockTransport, opts ...engine.RemoteOption) *engine.Remote {
	t.Helper()
	client := httpclient.NewDefaultClient(5*time.Second, httpclient.WithHTTPClient(&http.Client{Transport: transport}))
	remote, err := engine.NewRemote(testEndpoint+"/", append([]engine.RemoteOption{engine.WithClient(client)}, opts...)...)
	require.NoError(t, err)
	return remote
}

func testSource(t *testing.T) booksource.Definition {
	t.Helper()
	def, err := booksource.NewDefinition([]byte(`{"code":"qd","bookSourceName":"Qidian"}`))
	require.NoError(t, err)
	return def
}

// echoRequest captures the decoded request body before answering with body.
func echoRequest(t *testing.T, got *string, body string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		raw, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		*got = string(raw)
		return httpmock.NewStringResponse(http.StatusOK, body), nil
	}
}

func TestNewRemote_InvalidEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
	}{
		{name: "empty", endpoint: ""},
		{name: "no scheme", endpoint: "engine:9000"},
		{name: "unsupported scheme", endpoint: "ftp://engine"},
		{name: "no host", endpoint: "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := engine.NewRemote(tt.endpoint)
			require.Error(t, err)
		})
	}
}

func TestRemote_SearchBook(t *testing.T) {
	t.Parallel()

	var sent string
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, testEndpoint+"/searchBook", echoRequest(t, &sent,
		`{"isSuccess":true,"data":[{"bookUrl":"https://example.com/b/1","name":"Dune","author":"Herbert"}]}`))

	hits, err := newTestRemote(t, transport).SearchBook(context.Background(), testSource(t), "dune", 2).Collect()

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Dune", hits[0].Name)
	assert.JSONEq(t, `{"bookSource":{"code":"qd","bookSourceName":"Qidian"},"key":"dune","page":2}`, sent)
}

func TestRemote_ExploreBookEmptyData(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, testEndpoint+"/exploreBook",
		httpmock.NewStringResponder(http.StatusOK, `{"isSuccess":true,"data":null}`))

	hits, err := newTestRemote(t, transport).ExploreBook(context.Background(), testSource(t), "/rank", 1).Collect()

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRemote_GetBookInfoAndChapters(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, testEndpoint+"/getBookInfo",
		httpmock.NewStringResponder(http.StatusOK, `{"isSuccess":true,"data":{"bookUrl":"u","name":"Dune","intro":"Spice"}}`))
	transport.RegisterResponder(http.MethodPost, testEndpoint+"/getChapterList",
		httpmock.NewStringResponder(http.StatusOK, `{"isSuccess":true,"data":[{"url":"c1","title":"One","index":0},{"url":"c2","title":"Two","index":1}]}`))

	remote := newTestRemote(t, transport)

	book, err := remote.GetBookInfo(context.Background(), testSource(t), engine.Book{BookURL: "u"}).Collect()
	require.NoError(t, err)
	assert.Equal(t, "Spice", book.Intro)

	chapters, err := remote.GetChapterList(context.Background(), testSource(t), book).Collect()
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "c1", chapters[0].URL)
	assert.Equal(t, "c2", chapters[1].URL)
}

func TestRemote_GetContent(t *testing.T) {
	t.Parallel()

	t.Run("without book", func(t *testing.T) {
		t.Parallel()

		var sent string
		transport := httpmock.NewMockTransport()
		transport.RegisterResponder(http.MethodPost, testEndpoint+"/getContent", echoRequest(t, &sent,
			`{"isSuccess":true,"data":{"text":"It was a dark night."}}`))

		text, err := newTestRemote(t, transport).GetContent(context.Background(), testSource(t),
			mo.None[engine.Book](), engine.BookChapter{URL: "c1", Title: "One"}).Collect()

		require.NoError(t, err)
		assert.Equal(t, "It was a dark night.", text)
		assert.NotContains(t, sent, `"book":`)
	})

	t.Run("with book", func(t *testing.T) {
		t.Parallel()

		var sent string
		transport := httpmock.NewMockTransport()
		transport.RegisterResponder(http.MethodPost, testEndpoint+"/getContent", echoRequest(t, &sent,
			`{"isSuccess":true,"data":{"text":""}}`))

		text, err := newTestRemote(t, transport).GetContent(context.Background(), testSource(t),
			mo.Some(engine.Book{BookURL: "u", Name: "Dune"}), engine.BookChapter{URL: "c1"}).Collect()

		require.NoError(t, err)
		assert.Empty(t, text)
		assert.Contains(t, sent, `"book":{"bookUrl":"u"`)
	})
}

func TestRemote_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		responder     httpmock.Responder
		remoteErr     bool
		errorContains string
	}{
		{
			name:          "engine reports failure",
			responder:     httpmock.NewStringResponder(http.StatusOK, `{"isSuccess":false,"errCode":"RuleError","msg":"bookList rule matched nothing"}`),
			remoteErr:     true,
			errorContains: "bookList rule matched nothing",
		},
		{
			name:          "non-2xx status",
			responder:     httpmock.NewStringResponder(http.StatusBadGateway, ""),
			errorContains: "HTTP 502",
		},
		{
			name:          "malformed envelope",
			responder:     httpmock.NewStringResponder(http.StatusOK, `<html>`),
			errorContains: "failed to decode searchBook response",
		},
		{
			name:          "data of the wrong shape",
			responder:     httpmock.NewStringResponder(http.StatusOK, `{"isSuccess":true,"data":{"not":"a list"}}`),
			errorContains: "failed to decode searchBook result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := httpmock.NewMockTransport()
			transport.RegisterResponder(http.MethodPost, testEndpoint+"/searchBook", tt.responder)

			_, err := newTestRemote(t, transport).SearchBook(context.Background(), testSource(t), "x", 1).Collect()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
			assert.Equal(t, tt.remoteErr, engine.IsRemoteError(err))
			assert.Equal(t, 1, transport.GetTotalCallCount(), "remote calls are never retried")
		})
	}
}

func TestRemote_ObjectResultsRequireData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "null data", body: `{"isSuccess":true,"data":null}`},
		{name: "missing data", body: `{"isSuccess":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := httpmock.NewMockTransport()
			transport.RegisterResponder(http.MethodPost, testEndpoint+"/getBookInfo",
				httpmock.NewStringResponder(http.StatusOK, tt.body))
			transport.RegisterResponder(http.MethodPost, testEndpoint+"/getContent",
				httpmock.NewStringResponder(http.StatusOK, tt.body))
			remote := newTestRemote(t, transport)

			_, err := remote.GetBookInfo(context.Background(), testSource(t), engine.Book{BookURL: "u"}).Collect()
			require.ErrorIs(t, err, engine.ErrNoData)
			assert.Contains(t, err.Error(), "getBookInfo")

			_, err = remote.GetContent(context.Background(), testSource(t),
				mo.None[engine.Book](), engine.BookChapter{URL: "c1"}).Collect()
			require.ErrorIs(t, err, engine.ErrNoData)
			assert.Contains(t, err.Error(), "getContent")
		})
	}
}

func TestRemote_RateLimitHonoursContext(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, testEndpoint+"/searchBook",
		httpmock.NewStringResponder(http.StatusOK, `{"isSuccess":true,"data":[]}`))

	remote := newTestRemote(t, transport, engine.WithRateLimit(0.001, 1))

	_, err := remote.SearchBook(context.Background(), testSource(t), "x", 1).Collect()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = remote.SearchBook(ctx, testSource(t), "x", 1).Collect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.Equal(t, 1, transport.GetTotalCallCount())
}
