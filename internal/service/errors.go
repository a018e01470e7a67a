package service

import "fmt"

// ValidationError is returned when request data fails validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RejectedError is returned when a valid request cannot be carried out
// against the current machine state, e.g. an empty container.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

func rejectf(format string, args ...any) error {
	return &RejectedError{Message: fmt.Sprintf(format, args...)}
}
