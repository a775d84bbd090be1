// Package oracle defines the boundary to the external text-transformation
// service: a request of instructions plus input, and a result that is either
// extracted text or a failure.
package oracle

import (
	"context"
	"errors"
)

// FileSearchTool attaches retrieval over the named collections to a request.
type FileSearchTool struct {
	VectorStoreIDs []string
}

// FileSearchTools returns one tool per collection id, each wrapping exactly one id.
func FileSearchTools(ids []string) []FileSearchTool {
	tools := make([]FileSearchTool, 0, len(ids))
	for _, id := range ids {
		tools = append(tools, FileSearchTool{VectorStoreIDs: []string{id}})
	}
	return tools
}

// Request is built per call and not retained.
type Request struct {
	Instructions string
	Input        string
	Tools        []FileSearchTool
}

// Kind tags which variant a Result holds.
type Kind int

const (
	KindFailure Kind = iota
	KindText
)

func (k Kind) String() string {
	if k == KindText {
		return "text"
	}
	return "failure"
}

var (
	// ErrUnknown stands in when a failure is constructed without a cause.
	ErrUnknown = errors.New("oracle: unknown failure")
	// ErrNoMessage means the reply carried no message text to extract.
	ErrNoMessage = errors.New("no message text in response output")
)

// Result is either extracted text or a failure carrying its cause.
// The zero value is a failure.
type Result struct {
	kind Kind
	text string
	err  error
}

// Success wraps extracted message text.
func Success(text string) Result { return Result{kind: KindText, text: text} }

// Failure wraps the cause of a failed call.
func Failure(err error) Result {
	if err == nil {
		err = ErrUnknown
	}
	return Result{kind: KindFailure, err: err}
}

func (r Result) Kind() Kind { return r.kind }

func (r Result) OK() bool { return r.kind == KindText }

// Text is empty for a failure.
func (r Result) Text() string { return r.text }

// Err is nil for a success.
func (r Result) Err() error {
	if r.kind == KindText {
		return nil
	}
	if r.err == nil {
		return ErrUnknown
	}
	return r.err
}

// Client performs one oracle call per Invoke and reports every problem as a
// failure Result rather than a Go error.
type Client interface {
	Invoke(ctx context.Context, req Request) Result
}

// Func adapts a function into a Client.
type Func func(ctx context.Context, req Request) Result

func (f Func) Invoke(ctx context.Context, req Request) Result { return f(ctx, req) }
