package crm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lalith-99/minicrm/internal/repository"
)

var (
	// ErrUnauthorized means the request carried no user identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound covers both missing records and records owned by
	// someone else. Callers must not be able to tell the two apart.
	ErrNotFound = errors.New("not found or unauthorized")
)

// ValidationError names the input fields that were missing or outside
// their allowed domain.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "invalid " + strings.Join(e.Fields, ", ")
}

// OperationError is an unexpected persistence failure. Its message is
// safe to show; the cause is only for logs.
type OperationError struct {
	Op     string
	Entity string
	Err    error
}

func (e *OperationError) Error() string {
	if e.Entity == "tags" {
		return "failed to save tags"
	}
	return fmt.Sprintf("failed to %s %s. please try again", e.Op, e.Entity)
}

func (e *OperationError) Unwrap() error { return e.Err }

// storeErr classifies an error returned by a repository write.
func storeErr(op, entity string, err error) error {
	switch {
	case errors.Is(err, repository.ErrReference):
		return ErrNotFound
	case errors.Is(err, repository.ErrTags):
		return &OperationError{Op: "save", Entity: "tags", Err: err}
	}
	return &OperationError{Op: op, Entity: entity, Err: err}
}

// fieldErrors collects invalid fields in the order they were checked.
type fieldErrors struct {
	fields []string
}

func (v *fieldErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.fields = append(v.fields, field)
	}
}

func (v *fieldErrors) check(ok bool, field string) {
	if !ok {
		v.fields = append(v.fields, field)
	}
}

func (v *fieldErrors) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
