package dispatch

import (
	"errors"
	"fmt"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qianmo517/reader/internal/engine"
)

func decodeEnvelope(t *testing.T, env Envelope) map[string]any {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		err      error
		wantJSON string
	}{
		{
			name:     "success with list",
			value:    []engine.SearchBook{},
			wantJSON: `{"isSuccess":true,"data":[]}`,
		},
		{
			name:     "success with content",
			value:    engine.Content{Text: "hello"},
			wantJSON: `{"isSuccess":true,"data":{"text":"hello"}}`,
		},
		{
			name:     "bad request",
			err:      badRequest("key is required"),
			wantJSON: `{"isSuccess":false,"errCode":"BadRequest","msg":"key is required"}`,
		},
		{
			name:     "unknown code",
			err:      NewError(KindUnknownSourceCode, nil, "unknown book source code %q", "x"),
			wantJSON: `{"isSuccess":false,"errCode":"UnknownSourceCode","msg":"unknown book source code \"x\""}`,
		},
		{
			name:     "wrapped engine failure keeps its kind",
			err:      fmt.Errorf("outer: %w", NewError(KindEngineFailure, errors.New("detail"), "search failed in the book source engine")),
			wantJSON: `{"isSuccess":false,"errCode":"EngineFailure","msg":"search failed in the book source engine"}`,
		},
		{
			name:     "unclassified error hides its text",
			err:      errors.New("dial tcp 10.0.0.1: refused"),
			wantJSON: `{"isSuccess":false,"errCode":"InternalError","msg":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(Normalize(tt.value, tt.err))
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantJSON, string(data))
		})
	}
}

func TestEnvelope_ExactlyOneBranch(t *testing.T) {
	t.Parallel()

	// A populated but unselected branch is never encoded.
	success := decodeEnvelope(t, Envelope{IsSuccess: true, Data: 1, ErrCode: KindBadRequest, Msg: "stale"})
	assert.Contains(t, success, "data")
	assert.NotContains(t, success, "errCode")
	assert.NotContains(t, success, "msg")

	failure := decodeEnvelope(t, Envelope{IsSuccess: false, Data: 1, ErrCode: KindBadRequest, Msg: "m"})
	assert.NotContains(t, failure, "data")
	assert.Equal(t, "BadRequest", failure["errCode"])
	assert.Equal(t, "m", failure["msg"])
}

func TestNormalize_FutureOutcome(t *testing.T) {
	t.Parallel()

	env := Normalize(engine.Resolved[any]([]engine.BookChapter{}).Collect())
	assert.True(t, env.IsSuccess)

	env = Normalize(engine.Rejected[any](badRequest("x")).Collect())
	assert.False(t, env.IsSuccess)
	assert.Equal(t, KindBadRequest, env.ErrCode)
}
