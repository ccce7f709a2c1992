package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the answering and ingestion pipelines.
type ErrorKind string

const (
	KindInvalidQuery      ErrorKind = "invalid_query"
	KindDimensionMismatch ErrorKind = "dimension_mismatch"
	KindCorruptIndex      ErrorKind = "corrupt_index"
	KindEmbedding         ErrorKind = "embedding_error"
	KindGeneration        ErrorKind = "generation_error"
)

// Error is a pipeline failure with a kind that callers can branch on.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

var (
	ErrInvalidQuery      = &Error{Kind: KindInvalidQuery}
	ErrDimensionMismatch = &Error{Kind: KindDimensionMismatch}
	ErrCorruptIndex      = &Error{Kind: KindCorruptIndex}
	ErrEmbedding         = &Error{Kind: KindEmbedding}
	ErrGeneration        = &Error{Kind: KindGeneration}
)

// NewError creates an Error of the given kind wrapping err (which may be nil).
func NewError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Msg == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
