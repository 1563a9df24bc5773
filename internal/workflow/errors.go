package workflow

import (
	"errors"
	"fmt"
)

// Kind classifies a stage failure
type Kind string

// Failure kinds. All but KindSequence are retryable by re-running the failed stage.
const (
	KindValidation Kind = "validation"
	KindStorage    Kind = "storage"
	KindTransport  Kind = "transport"
	KindRemote     Kind = "remote"
	KindSequence   Kind = "sequence"
)

// Sentinels for errors.Is against *Error
var (
	ErrValidation = errors.New("validation error")
	ErrStorage    = errors.New("storage error")
	ErrTransport  = errors.New("transport error")
	ErrRemote     = errors.New("remote error")
	ErrSequence   = errors.New("sequence error")
)

var kindSentinels = map[Kind]error{
	KindValidation: ErrValidation,
	KindStorage:    ErrStorage,
	KindTransport:  ErrTransport,
	KindRemote:     ErrRemote,
	KindSequence:   ErrSequence,
}

// Error describes why a stage did not succeed
type Error struct {
	Kind  Kind  `json:"kind"`
	Stage Stage `json:"stage"`

	// Message is safe to show to the user. Remote messages are kept verbatim.
	Message string `json:"message"`

	// Fields lists the missing inputs of a validation failure
	Fields []string `json:"fields,omitempty"`

	Err error `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Stage, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// Retryable reports whether re-running the same stage may succeed
func (e *Error) Retryable() bool {
	return e.Kind != KindSequence
}

// NewError creates an *Error for stage
func NewError(kind Kind, stage Stage, message string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Message: message, Err: err}
}

func sequenceError(stage Stage, format string, args ...any) *Error {
	return NewError(KindSequence, stage, fmt.Sprintf(format, args...), nil)
}
