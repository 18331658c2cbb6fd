package tracker

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrSemesterNotFound means no semester has the requested id.
	ErrSemesterNotFound = errors.New("semester not found")
	// ErrCourseNotFound means the semester has no course with the requested id.
	ErrCourseNotFound = errors.New("course not found")
	// ErrCurrentExists is returned when a second current semester would be created.
	ErrCurrentExists = errors.New("a current semester already exists; convert it to a past semester first")
	// ErrPastIsFinal is returned when a past semester would be turned back into a current one.
	ErrPastIsFinal = errors.New("a past semester cannot become current again")
	// ErrStorage wraps every failure of the underlying store.
	ErrStorage = errors.New("storage unavailable")
)

// ValidationError lists the input fields that failed validation,
// keyed by their JSON path.
type ValidationError struct {
	Fields map[string]string
	err    error
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return e.err }

func newValidationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate: %w", err)
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fieldPath(fe.Namespace())] = describe(fe)
	}
	return &ValidationError{Fields: fields, err: err}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
