package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	MissingCredential
	FileNotFound
	RemoteJob
	Download
	UnexpectedResponseShape
)

func (k Kind) String() string {
	switch k {
	case MissingCredential:
		return "missing credential"
	case FileNotFound:
		return "file not found"
	case RemoteJob:
		return "remote job failed"
	case Download:
		return "download failed"
	case UnexpectedResponseShape:
		return "unexpected response"
	default:
		return "unknown"
	}
}

// Error carries a Kind so the command layer can decide what to print
// alongside the message.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
