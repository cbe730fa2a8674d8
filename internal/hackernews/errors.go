// In file: internal/hackernews/errors.go
package hackernews

import (
	"context"
	"fmt"
	"net"

	"github.com/pkg/errors"
)

// Kind classifies a failed operation.
type Kind string

const (
	KindUnavailable Kind = "upstream_unavailable"
	KindBadStatus   Kind = "upstream_bad_status"
	KindMalformed   Kind = "upstream_malformed"
	KindNotFound    Kind = "not_found"
	KindNotStory    Kind = "not_a_story"
	KindValidation  Kind = "validation"
	KindInternal    Kind = "internal"
)

// Error is returned by every Gateway operation. It carries enough context to be
// rendered as an ErrorPayload without inspecting the wrapped cause.
type Error struct {
	Kind   Kind
	Op     string
	Params map[string]any
	// StatusCode is set for KindBadStatus.
	StatusCode int
	Msg        string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorPayload is the caller-facing shape of a failure. It is returned in place
// of a Story or Story list; it is never raised.
type ErrorPayload struct {
	Error     string         `json:"error"`
	Kind      Kind           `json:"kind"`
	Operation string         `json:"operation,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
	Status    int            `json:"status,omitempty"`
}

// NewErrorPayload converts any error into an ErrorPayload. Errors that did not
// originate in this package are reported as KindInternal.
func NewErrorPayload(err error) ErrorPayload {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorPayload{Error: err.Error(), Kind: KindInternal}
	}
	return ErrorPayload{
		Error:     e.Error(),
		Kind:      e.Kind,
		Operation: e.Op,
		Params:    e.Params,
		Status:    e.StatusCode,
	}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ValidationError reports a missing or unusable caller parameter.
func ValidationError(op string, params map[string]any, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Params: params, Msg: fmt.Sprintf(format, args...)}
}

// withOp stamps the operation and its identifying parameters onto err.
func withOp(err error, op string, params map[string]any) *Error {
	var e *Error
	if errors.As(err, &e) {
		out := *e
		out.Op = op
		out.Params = params
		return &out
	}
	return &Error{Kind: classify(err), Op: op, Params: params, Err: err}
}

// classify maps a transport-level failure onto a Kind.
func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindUnavailable
	}
	return KindInternal
}
