package backoff

import "errors"

// ErrorCategory indicates how an engine should respond to a given error.
type ErrorCategory int

const (
	// CategoryIgnored indicates an error that is expected or benign in the
	// current context and should NOT trigger any retry or escalation.
	// Example: an observer reporting Unknown while a resource is mid-restart.
	CategoryIgnored ErrorCategory = iota

	// CategoryTransient indicates an error that is unexpected but recoverable.
	// The caller retries the operation (bounded) before giving up on the
	// single component, never on the whole run.
	CategoryTransient

	// CategoryPermanent indicates the operation will not succeed no matter
	// how often it is retried, e.g. a component without a resource mapping.
	// The caller logs it and excludes the component from the current round.
	CategoryPermanent
)

// CategorizedError is a wrapper that includes the underlying error plus a Category.
type CategorizedError struct {
	Err      error
	Category ErrorCategory
}

// Error returns the original error message.
func (ce *CategorizedError) Error() string {
	return ce.Err.Error()
}

// Unwrap returns the underlying wrapped error.
func (ce *CategorizedError) Unwrap() error {
	return ce.Err
}

// IsCategory checks if the CategorizedError has the specified category.
func (ce *CategorizedError) IsCategory(category ErrorCategory) bool {
	return ce.Category == category
}

// NewIgnoredError wraps err as CategoryIgnored.
func NewIgnoredError(err error) error {
	return &CategorizedError{Err: err, Category: CategoryIgnored}
}

// NewTransientError wraps err as CategoryTransient.
func NewTransientError(err error) error {
	return &CategorizedError{Err: err, Category: CategoryTransient}
}

// NewPermanentError wraps err as CategoryPermanent.
func NewPermanentError(err error) error {
	return &CategorizedError{Err: err, Category: CategoryPermanent}
}

// CategoryOf returns the category of err, defaulting to CategoryTransient
// for uncategorized errors so unknown failures stay retryable.
func CategoryOf(err error) ErrorCategory {
	var ce *CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryTransient
}

// IsPermanent reports whether err is categorized as permanent.
func IsPermanent(err error) bool {
	return CategoryOf(err) == CategoryPermanent
}
