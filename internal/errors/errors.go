package errors

import "errors"

// Category groups errors by how the HTTP layer reports them.
type Category string

const (
	CategoryInvalidInput  Category = "invalid_input"
	CategoryEngineFailure Category = "engine_failure"
	CategoryInternal      Category = "internal_failure"
)

type classifiedError struct {
	category Category
	code     string
	cause    error
}

func (e *classifiedError) Error() string {
	if e.cause == nil {
		return "unknown error"
	}
	return e.cause.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.cause
}

// Wrap attaches a category and a stable code to cause. A nil cause stays nil.
func Wrap(cause error, category Category, code string) error {
	if cause == nil {
		return nil
	}
	return &classifiedError{
		category: category,
		code:     code,
		cause:    cause,
	}
}

// InvalidInput builds a classified invalid-input error from a message.
func InvalidInput(code, msg string) error {
	return Wrap(errors.New(msg), CategoryInvalidInput, code)
}

// CategoryOf returns the category of the first classified error in err's
// chain, or "" when there is none.
func CategoryOf(err error) Category {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.category
	}
	return ""
}

// CodeOf returns the machine-readable code of err, or "".
func CodeOf(err error) string {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.code
	}
	return ""
}

// IsInvalidInput reports whether err is the caller's fault.
func IsInvalidInput(err error) bool {
	return CategoryOf(err) == CategoryInvalidInput
}
