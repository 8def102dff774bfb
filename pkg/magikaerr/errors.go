// Package magikaerr defines the single error type returned by every
// fallible classifier operation.
//
// An Error carries one of five kinds. Four of them keep the underlying
// failure as the payload, reachable through Unwrap and errors.As. The
// lock kind carries no payload.
package magikaerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/emergingrobotics/go-magika/pkg/guard"
	"github.com/emergingrobotics/go-magika/pkg/tensor"
)

// Kind identifies the subsystem an error originated from
type Kind int

// The set of kinds is closed. New failure sources map onto one of these.
const (
	KindIO Kind = iota
	KindRuntime
	KindLock
	KindJSON
	KindShape
)

var kindMessages = map[Kind]string{
	KindIO:      "I/O error",
	KindRuntime: "ONNX Runtime error",
	KindLock:    "Mutex lock error",
	KindJSON:    "JSON error",
	KindShape:   "shape error",
}

var kindNames = map[Kind]string{
	KindIO:      "io",
	KindRuntime: "runtime",
	KindLock:    "lock",
	KindJSON:    "json",
	KindShape:   "shape",
}

// Kinds returns every kind in declaration order
func Kinds() []Kind {
	return []Kind{KindIO, KindRuntime, KindLock, KindJSON, KindShape}
}

// Valid reports whether k is one of the declared kinds
func (k Kind) Valid() bool {
	_, ok := kindMessages[k]
	return ok
}

// String returns the human-readable label for the kind
func (k Kind) String() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return fmt.Sprintf("invalid error kind (%d)", int(k))
}

// Name returns the short machine-facing name (io, runtime, lock, json, shape)
func (k Kind) Name() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// Error is the unified classifier error
type Error struct {
	Kind Kind
	Err  error
}

// Sentinels for errors.Is matching by kind
var (
	ErrIO      = &Error{Kind: KindIO}
	ErrRuntime = &Error{Kind: KindRuntime}
	ErrLock    = &Error{Kind: KindLock}
	ErrJSON    = &Error{Kind: KindJSON}
	ErrShape   = &Error{Kind: KindShape}
)

// Error returns the kind label. The payload is available via Detail or Unwrap.
func (e *Error) Error() string {
	return e.Kind.String()
}

// Unwrap returns the underlying failure
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Detail returns the underlying failure's message, or "" when there is none
func (e *Error) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// LogValue renders the error as a group of kind and detail attributes
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("kind", e.Kind.Name())}
	if d := e.Detail(); d != "" {
		attrs = append(attrs, slog.String("detail", d))
	}
	return slog.GroupValue(attrs...)
}

func wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	return &Error{Kind: kind, Err: err}
}

// The constructors below return the first *Error found in err's chain
// unchanged, so an error keeps the kind assigned where it first failed.
// Any fmt.Errorf context wrapped around that *Error is dropped.

// IO wraps an I/O failure
func IO(err error) error {
	return wrap(KindIO, err)
}

// Runtime wraps an inference runtime failure
func Runtime(err error) error {
	return wrap(KindRuntime, err)
}

// JSON wraps a structured-data parse or serialize failure
func JSON(err error) error {
	return wrap(KindJSON, err)
}

// Shape wraps a tensor shape failure
func Shape(err error) error {
	return wrap(KindShape, err)
}

// Lock converts a poisoned-lock failure. The payload is discarded.
// An *Error already in the chain is returned unchanged, as with IO.
func Lock(err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	return &Error{Kind: KindLock}
}

// Classify reports the kind err maps to, if its type is recognised
func Classify(err error) (Kind, bool) {
	if err == nil {
		return 0, false
	}

	var (
		existing   *Error
		poison     *guard.PoisonError
		shapeErr   *tensor.ShapeError
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		invalidErr *json.InvalidUnmarshalError
		marshalErr *json.MarshalerError
		unsupType  *json.UnsupportedTypeError
		unsupValue *json.UnsupportedValueError
		pathErr    *fs.PathError
		linkErr    *os.LinkError
		sysErr     *os.SyscallError
	)

	switch {
	case errors.As(err, &existing):
		return existing.Kind, true
	case errors.As(err, &poison):
		return KindLock, true
	case errors.As(err, &shapeErr):
		return KindShape, true
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.As(err, &invalidErr), errors.As(err, &marshalErr),
		errors.As(err, &unsupType), errors.As(err, &unsupValue):
		return KindJSON, true
	case errors.As(err, &pathErr), errors.As(err, &linkErr), errors.As(err, &sysErr),
		isErrno(err),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission),
		errors.Is(err, fs.ErrExist), errors.Is(err, fs.ErrClosed):
		return KindIO, true
	}
	return 0, false
}

// From converts err using its recognised kind, or fallback otherwise
func From(err error, fallback Kind) error {
	if err == nil {
		return nil
	}
	kind, ok := Classify(err)
	if !ok {
		kind = fallback
	}
	if kind == KindLock {
		return Lock(err)
	}
	return wrap(kind, err)
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
