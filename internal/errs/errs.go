// Package errs defines the error kinds shared by the stores and the project
// orchestration. Every failure surfaced to the command layer carries one of
// these kinds so it can be formatted in a single place.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindAlreadyExists
	KindConfig
	KindIO
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAlreadyExists:
		return "already exists"
	case KindConfig:
		return "config error"
	case KindIO:
		return "io error"
	case KindData:
		return "data error"
	default:
		return "unknown error"
	}
}

var (
	// ErrNotFound matches any error of KindNotFound.
	ErrNotFound = errors.New("xgb: not found")
	// ErrAlreadyExists matches any error of KindAlreadyExists.
	ErrAlreadyExists = errors.New("xgb: already exists")
	// ErrConfig matches any error of KindConfig.
	ErrConfig = errors.New("xgb: config error")
	// ErrIO matches any error of KindIO.
	ErrIO = errors.New("xgb: io error")
	// ErrData matches any error of KindData.
	ErrData = errors.New("xgb: data error")
)

var sentinels = map[Kind]error{
	KindNotFound:      ErrNotFound,
	KindAlreadyExists: ErrAlreadyExists,
	KindConfig:        ErrConfig,
	KindIO:            ErrIO,
	KindData:          ErrData,
}

// Error is a typed failure. Op names the operation ("dataset add"), Name the
// entity it acted on, and Err the cause when there is one.
type Error struct {
	Kind Kind
	Op   string
	Name string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Op
	if e.Name != "" {
		s += fmt.Sprintf(" %q", e.Name)
	}
	s += ": " + e.Kind.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// NotFound returns a KindNotFound error.
func NotFound(op, name string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Name: name}
}

// AlreadyExists returns a KindAlreadyExists error.
func AlreadyExists(op, name string) *Error {
	return &Error{Kind: KindAlreadyExists, Op: op, Name: name}
}

// Config returns a KindConfig error with a formatted message.
func Config(op, name, format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Op: op, Name: name, Msg: fmt.Sprintf(format, args...)}
}

// IO wraps an I/O failure.
func IO(op, name string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Name: name, Err: err}
}

// Data returns a KindData error with a formatted message and optional cause.
func Data(op, name string, err error, format string, args ...any) *Error {
	return &Error{Kind: KindData, Op: op, Name: name, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
