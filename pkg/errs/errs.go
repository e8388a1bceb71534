// Package errs defines the error kinds shared by training and inference.
//
// Every failure that crosses a package boundary is an *Error carrying a Kind,
// so callers can tell "bad dataset" from "model unavailable" from "could not
// classify this input" with errors.Is against the sentinels below.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindDataLoad
	KindEmptyCorpus
	KindModelLoad
	KindModelUnavailable
	KindPrediction
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindDataLoad:
		return "data load error"
	case KindEmptyCorpus:
		return "empty corpus"
	case KindModelLoad:
		return "model load error"
	case KindModelUnavailable:
		return "model unavailable"
	case KindPrediction:
		return "prediction error"
	case KindInvalidInput:
		return "invalid input"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is. They carry no Op or cause.
var (
	ErrDataLoad         = &Error{Kind: KindDataLoad}
	ErrEmptyCorpus      = &Error{Kind: KindEmptyCorpus}
	ErrModelLoad        = &Error{Kind: KindModelLoad}
	ErrModelUnavailable = &Error{Kind: KindModelUnavailable}
	ErrPrediction       = &Error{Kind: KindPrediction}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
)

// Error is a kinded error with the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// E builds an *Error. err may be nil.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an *Error whose cause is a formatted message.
func Errorf(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind. Invalid input is a prediction failure too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return e.Kind == KindInvalidInput && t.Kind == KindPrediction
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
