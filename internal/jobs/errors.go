package jobs

import (
	"errors"
	"fmt"
	"slices"
)

// Common job errors
var (
	// ErrBusy indicates another mutating job holds the exclusive slot
	ErrBusy = errors.New("another operation is in progress")

	// ErrInvalidInput indicates a request failed validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoSelection indicates synthesis was requested without a session voice
	ErrNoSelection = errors.New("no voice selected")

	// ErrVoiceNotReady indicates a voice exists but cannot synthesize yet
	ErrVoiceNotReady = errors.New("voice is not ready")

	// ErrTimedOut indicates polling gave up before a terminal status
	ErrTimedOut = errors.New("timed out waiting for voice")

	// ErrRemoteFailed indicates the service reported a terminal failure
	ErrRemoteFailed = errors.New("remote reported failure")
)

// ErrorCode identifies specific error types
type ErrorCode string

const (
	CodeInvalidInput    ErrorCode = "INVALID_INPUT"
	CodeBusy            ErrorCode = "BUSY"
	CodeSubmission      ErrorCode = "SUBMISSION"
	CodeRemoteFailed    ErrorCode = "REMOTE_FAILED"
	CodeTimeout         ErrorCode = "TIMEOUT"
	CodeInvalidResponse ErrorCode = "INVALID_RESPONSE"
	CodePersist         ErrorCode = "PERSIST"
	CodeInternal        ErrorCode = "INTERNAL"
)

// sentinels maps codes onto the sentinel errors.Is should match.
var sentinels = map[ErrorCode]error{
	CodeInvalidInput: ErrInvalidInput,
	CodeBusy:         ErrBusy,
	CodeRemoteFailed: ErrRemoteFailed,
	CodeTimeout:      ErrTimedOut,
}

// Error represents a job failure with a code and additional context
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// NewError creates a new job error
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match the sentinel for the error's code.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// Reason is the human-readable failure text, without the code.
func (e *Error) Reason() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	e.Context[key] = value
	return e
}

// IsRetryable returns true if the same request may succeed later. A
// rejected submission is final.
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case CodeBusy, CodeTimeout:
		return true
	default:
		return false
	}
}

// Reason returns the text to show for err in a failure event.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var je *Error
	if errors.As(err, &je) {
		return je.Reason()
	}
	return err.Error()
}

// CodeOf returns the code of err, or CodeInternal for uncoded errors.
func CodeOf(err error) ErrorCode {
	var je *Error
	if errors.As(err, &je) {
		return je.Code
	}
	return CodeInternal
}

// IsRetryable reports whether err, or a job error it wraps, may succeed
// if tried again later.
func IsRetryable(err error) bool {
	var je *Error
	return errors.As(err, &je) && je.IsRetryable()
}

// Fields returns the code and context of a job error as key/value pairs
// for structured logging, keys sorted. Uncoded errors yield nil.
func Fields(err error) []any {
	var je *Error
	if !errors.As(err, &je) {
		return nil
	}
	fields := make([]any, 0, 2+2*len(je.Context))
	fields = append(fields, "code", je.Code)
	keys := make([]string, 0, len(je.Context))
	for k := range je.Context {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fields = append(fields, k, je.Context[k])
	}
	return fields
}
