package dispatch

import (
	"errors"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Envelope is the uniform response of every operation. It carries exactly one
// branch: data on success, errCode and msg on failure.
type Envelope struct {
	IsSuccess bool
	Data      any
	ErrCode   ErrorKind
	Msg       string
}

type successBody struct {
	IsSuccess bool `json:"isSuccess"`
	Data      any  `json:"data"`
}

type failureBody struct {
	IsSuccess bool      `json:"isSuccess"`
	ErrCode   ErrorKind `json:"errCode"`
	Msg       string    `json:"msg"`
}

// MarshalJSON encodes only the branch selected by IsSuccess.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.IsSuccess {
		return json.Marshal(successBody{IsSuccess: true, Data: e.Data})
	}
	return json.Marshal(failureBody{IsSuccess: false, ErrCode: e.ErrCode, Msg: e.Msg})
}

// Success wraps a settled value.
func Success(data any) Envelope {
	return Envelope{IsSuccess: true, Data: data}
}

// Failure classifies err into an envelope. Unclassified errors become
// InternalError with a fixed message; the cause only reaches the log.
func Failure(err error) Envelope {
	kind := KindOf(err)

	msg := "internal error"
	var dispatchErr *Error
	if errors.As(err, &dispatchErr) && dispatchErr.Kind != KindInternalError {
		msg = dispatchErr.Message
	}

	switch kind {
	case KindEngineFailure:
		zap.S().Warnw("Book source operation failed", "kind", kind, "error", err)
	case KindInternalError:
		zap.S().Errorw("Unexpected dispatch failure", "error", err)
	default:
		zap.S().Debugw("Rejected book source request", "kind", kind, "error", err)
	}

	return Envelope{IsSuccess: false, ErrCode: kind, Msg: msg}
}

// Normalize turns a settled outcome into an envelope. It is shaped to take a
// future's Collect result directly.
func Normalize(value any, err error) Envelope {
	if err != nil {
		return Failure(err)
	}
	return Success(value)
}
