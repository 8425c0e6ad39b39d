package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapContextError_NilError(t *testing.T) {
	if err := MapContextError(nil); err != nil {
		t.Errorf("MapContextError(nil) = %v, want nil", err)
	}
}

func TestMapContextError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			wantCode: ErrCodeTimeout,
		},
		{
			name:     "canceled",
			err:      context.Canceled,
			wantCode: ErrCodeCanceled,
		},
		{
			name:     "wrapped canceled",
			err:      fmt.Errorf("poll transcription job: %w", context.Canceled),
			wantCode: ErrCodeCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapContextError(tt.err)
			if !IsAppError(err, tt.wantCode) {
				t.Errorf("MapContextError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
			if !errors.Is(err, tt.err) && !errors.Is(err, errors.Unwrap(tt.err)) {
				t.Errorf("MapContextError() lost cause %v", tt.err)
			}
		})
	}
}

func TestMapContextError_PreservesAppError(t *testing.T) {
	orig := TranscriptionTimeout(10)
	if got := MapContextError(orig); got != error(orig) {
		t.Errorf("MapContextError() = %v, want original AppError", got)
	}
}

func TestMapContextError_PassesThroughOtherErrors(t *testing.T) {
	orig := errors.New("boom")
	if got := MapContextError(orig); !errors.Is(got, orig) || GetCode(got) != "" {
		t.Errorf("MapContextError() = %v, want untouched error", got)
	}
}
