package errors

import (
	"context"
	"errors"
)

// MapContextError maps context cancellation and deadline errors to AppError instances.
// Any other error, including an existing AppError, is returned unchanged.
func MapContextError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Request was canceled.",
			Cause:   err,
		}
	}

	return err
}

// IsAppError reports whether err is an AppError carrying the given code.
func IsAppError(err error, code ErrorCode) bool {
	return isCode(err, code)
}
