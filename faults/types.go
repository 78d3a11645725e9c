package faults

import "errors"

type ErrorCategory string

const (
	// ValidationError covers malformed or disallowed edited text. Locally
	// recoverable; the edit buffer is preserved for retry.
	ValidationError ErrorCategory = "ValidationError"
	// NotFoundError covers ids absent from the current snapshot or remote
	// 404 responses. Recoverable; a re-fetch may resolve it.
	NotFoundError ErrorCategory = "NotFoundError"
	// ConflictError covers a patch computed against a snapshot version
	// that is no longer current. Recoverable; requires a user choice.
	ConflictError ErrorCategory = "ConflictError"
	// AuthError covers rejected or expired credentials. Fatal for the
	// session; never retried automatically.
	AuthError ErrorCategory = "AuthError"
	// RemoteError covers transport failures and remote 5xx responses.
	// Retryable with bounded backoff.
	RemoteError ErrorCategory = "RemoteError"
	// InternalError covers programmer errors and broken invariants.
	InternalError ErrorCategory = "InternalError"
)

type TypedError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Category)
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewTypedError(category ErrorCategory, message string, cause error) *TypedError {
	return &TypedError{
		Category: category,
		Message:  message,
		Cause:    cause,
	}
}

func Validation(message string, cause error) *TypedError {
	return NewTypedError(ValidationError, message, cause)
}

func NotFound(message string, cause error) *TypedError {
	return NewTypedError(NotFoundError, message, cause)
}

func Conflict(message string, cause error) *TypedError {
	return NewTypedError(ConflictError, message, cause)
}

func Auth(message string, cause error) *TypedError {
	return NewTypedError(AuthError, message, cause)
}

func Remote(message string, cause error) *TypedError {
	return NewTypedError(RemoteError, message, cause)
}

func Internal(message string, cause error) *TypedError {
	return NewTypedError(InternalError, message, cause)
}

func IsCategory(err error, category ErrorCategory) bool {
	if err == nil {
		return false
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return false
	}
	return typedErr.Category == category
}

// CategoryOf reports the category of err, or InternalError when err carries
// no category. Used by the CLI to decide how a failure is rendered.
func CategoryOf(err error) ErrorCategory {
	var typedErr *TypedError
	if errors.As(err, &typedErr) {
		return typedErr.Category
	}
	return InternalError
}

// Retryable reports whether err may be retried with bounded backoff.
// Only remote transport failures qualify; auth rejections never do.
func Retryable(err error) bool {
	return IsCategory(err, RemoteError)
}
