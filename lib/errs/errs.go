package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// Config file could not be read.
	KindConfigRead
	// Config file is not valid YAML, has mistyped values, or is missing a required key.
	KindConfigParse
	// Connection-level failure while talking to the identity or API service.
	KindNetwork
	// Request did not complete within the configured timeout.
	KindTimeout
	// Server answered with a non-2xx status.
	KindStatus
	// Response body is not JSON.
	KindDecode
	// Token response has no usable `access_token`.
	KindMissingField
	// Artifact could not be written to the output directory.
	KindFileWrite
	// Artifact could not be uploaded to remote storage.
	KindMirror
)

func (k Kind) String() string {
	switch k {
	case KindConfigRead:
		return "config read error"
	case KindConfigParse:
		return "config parse error"
	case KindNetwork:
		return "network error"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "bad response status"
	case KindDecode:
		return "response decode error"
	case KindMissingField:
		return "missing field"
	case KindFileWrite:
		return "file write error"
	case KindMirror:
		return "mirror error"
	default:
		return "error"
	}
}

// Error is a failure attributed to one pipeline stage.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind with no stage attached yet.
func New(kind Kind, format string, vars ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, vars...)}
}

// Wrap attaches a kind to err. A nil err stays nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// WithStage sets the stage on err, keeping the kind of the innermost *Error.
// Errors without a kind become KindUnknown.
func WithStage(stage string, err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Stage == stage {
			return err
		}
		return &Error{Kind: e.Kind, Stage: stage, Err: e.Err}
	}

	return &Error{Kind: KindUnknown, Stage: stage, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
