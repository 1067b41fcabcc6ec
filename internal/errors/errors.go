package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the CLI can phrase its exit message.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindParse
	KindValidation
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is the universal error type between the components. Every fatal
// condition ends up here before main maps it to a process exit.
type Error struct {
	Kind Kind
	Err  error // The error this wraps
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an Error from its arguments: a string or error becomes the
// wrapped cause, a Kind sets the classification.
func E(args ...any) *Error {
	ret := &Error{
		Kind: KindUnknown,
		Err:  nil,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case Kind:
			ret.Kind = arg
		}
	}

	return ret
}

// KindOf reports the classification of err, or KindUnknown when err was not
// built by E.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
