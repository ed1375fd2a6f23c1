package impose

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInputNotFound         = errors.New("input document not found")
	ErrInvalidPageCount      = errors.New("invalid page count")
	ErrHeterogeneousGeometry = errors.New("pages of different sizes are not supported")
	ErrIndexOutOfRange       = errors.New("page index out of range")
	ErrPersistFailure        = errors.New("failed to persist output")
	ErrInvalidGeometry       = errors.New("invalid geometry")
	ErrInvalidProfile        = errors.New("invalid signature profile")
)

// StageError reports the pipeline stage that failed.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage.action(), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
