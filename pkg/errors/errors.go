package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeParsing       ErrorType = "parsing"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeServerError   ErrorType = "server_error"
	ErrorTypeAsset         ErrorType = "asset"
	ErrorTypeStore         ErrorType = "store"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Stage names the ingestion step an error was raised in
type Stage string

const (
	StageConfig        Stage = "config"
	StageProjects      Stage = "projects"
	StageUser          Stage = "user"
	StageProjectDetail Stage = "project_detail"
	StageMirror        Stage = "mirror"
	StageBuild         Stage = "build"
	StageEmit          Stage = "emit"
)

// Error represents a pipeline error with type information
type Error struct {
	Type    ErrorType
	Stage   Stage
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Stage != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Stage)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error around a cause
func Wrap(err error, t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// WithStage tags err with the stage it failed in. Typed errors keep their
// type; anything else becomes ErrorTypeUnknown. An existing stage is kept.
func WithStage(err error, stage Stage) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		if e.Stage != "" {
			return err
		}
		tagged := *e
		tagged.Stage = stage
		return &tagged
	}
	return &Error{Type: ErrorTypeUnknown, Stage: stage, Message: "stage failed", Err: err}
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given type
func IsType(err error, t ErrorType) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Type == t
}

// StageOf returns the stage recorded on err, or "" if none
func StageOf(err error) Stage {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// TypeForStatus maps an HTTP status code to an error type
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 404:
		return ErrorTypeNotFound
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}
