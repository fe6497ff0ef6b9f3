package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification. Detailed errors wrap these so
// callers can use errors.Is.
var (
	// ErrInvalidParameter marks a non-positive population, a non-positive or
	// non-finite mean, a negative variance or an out-of-range percentile.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptyDataset marks statistics requested over zero records.
	ErrEmptyDataset  = errors.New("empty dataset")
	ErrNotFound      = errors.New("not found")
	ErrInvalidConfig = errors.New("invalid config")
)

// ErrorKind is a coarse-grained categorization for configuration errors.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindInvalidConfig ErrorKind = "invalid_config"
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string // Optional: relevant file path
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match an OpError against the sentinel of its kind.
func (e *OpError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindNotFound:
		return target == ErrNotFound
	case KindInvalidConfig:
		return target == ErrInvalidConfig
	}
	return false
}

// IsKind helps callers classify errors without depending on infra packages.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// InvalidParameter builds an error wrapping ErrInvalidParameter.
func InvalidParameter(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}
