package domain

// ErrorType classifies an expected failure so transport layers can map it
// to a status without inspecting codes.
type ErrorType int

const (
	ErrorTypeNone ErrorType = iota
	ErrorTypeFailure
	ErrorTypeValidation
	ErrorTypeNotFound
	ErrorTypeConflict
	ErrorTypeInternalServerError
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeNone:
		return "none"
	case ErrorTypeFailure:
		return "failure"
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeConflict:
		return "conflict"
	case ErrorTypeInternalServerError:
		return "internal_server_error"
	default:
		return "unknown"
	}
}

// Error is a value describing an expected business failure. The zero value
// is ErrNone, the absence of error.
type Error struct {
	Code        string
	Description string
	Type        ErrorType
}

// ErrNone is the sentinel carried by every successful Result.
var ErrNone = Error{}

func (e Error) IsNone() bool { return e == ErrNone }

func NewError(code, description string, t ErrorType) Error {
	return Error{Code: code, Description: description, Type: t}
}

func ValidationError(code, description string) Error {
	return NewError(code, description, ErrorTypeValidation)
}

func NotFoundError(code, description string) Error {
	return NewError(code, description, ErrorTypeNotFound)
}

func ConflictError(code, description string) Error {
	return NewError(code, description, ErrorTypeConflict)
}

func FailureError(code, description string) Error {
	return NewError(code, description, ErrorTypeFailure)
}

func InternalError(code, description string) Error {
	return NewError(code, description, ErrorTypeInternalServerError)
}

// Result is the outcome of an operation that produces no value.
// Success carries ErrNone; failure carries exactly one catalog Error.
type Result struct {
	ok  bool
	err Error
}

func Success() Result {
	return Result{ok: true, err: ErrNone}
}

func Failure(err Error) Result {
	if err.IsNone() {
		panic("domain: failure result requires a non-none error")
	}
	return Result{ok: false, err: err}
}

func (r Result) IsSuccess() bool { return r.ok }
func (r Result) IsFailure() bool { return !r.ok }
func (r Result) Err() Error      { return r.err }

// ValueResult is the outcome of an operation that produces a value on
// success. The value of a failed result must not be read.
type ValueResult[T any] struct {
	Result
	value T
}

func Ok[T any](value T) ValueResult[T] {
	return ValueResult[T]{Result: Success(), value: value}
}

func Fail[T any](err Error) ValueResult[T] {
	return ValueResult[T]{Result: Failure(err)}
}

// Value returns the carried value. Calling it on a failed result is a
// programming error.
func (r ValueResult[T]) Value() T {
	if r.IsFailure() {
		panic("domain: value of a failed result")
	}
	return r.value
}
