package errors

import (
	"errors"
	"testing"
)

// TestMultiErrorIs tests the Is implementation for MultiError.
func TestMultiErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same error code matches",
			err:    ErrServiceNotFound("test-service"),
			target: ErrServiceNotFoundSentinel,
			want:   true,
		},
		{
			name:   "different error code does not match",
			err:    ErrServiceNotFound("test-service"),
			target: ErrServiceAlreadyExistsSentinel,
			want:   false,
		},
		{
			name:   "wrapped error matches",
			err:    ErrConfigError("invalid value", ErrMissingMulti("{provide: Value}")),
			target: ErrMissingMultiSentinel,
			want:   true,
		},
		{
			name:   "dependency not found shares the not found code",
			err:    ErrDependencyNotFound("AppModule", "Listener"),
			target: ErrServiceNotFoundSentinel,
			want:   true,
		},
		{
			name:   "nil target does not match",
			err:    ErrServiceNotFound("test"),
			target: nil,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.target); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestServiceErrorIs tests the Is implementation for ServiceError.
func TestServiceErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same service and operation matches",
			err:    NewServiceError("db", "resolve", errors.New("boom")),
			target: NewServiceError("db", "resolve", nil),
			want:   true,
		},
		{
			name:   "partial match with empty service",
			err:    NewServiceError("db", "resolve", errors.New("boom")),
			target: NewServiceError("", "resolve", nil),
			want:   true,
		},
		{
			name:   "different service does not match",
			err:    NewServiceError("db", "resolve", errors.New("boom")),
			target: NewServiceError("cache", "resolve", nil),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.target); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorAs(t *testing.T) {
	t.Run("extract MultiError through ServiceError", func(t *testing.T) {
		err := NewServiceError("values", "resolve", ErrNotFinalized("Value"))

		var multiErr *MultiError
		if !As(err, &multiErr) {
			t.Fatal("As() failed to extract MultiError")
		}

		if multiErr.Code != CodeNotFinalized {
			t.Errorf("extracted error code = %s, want %s", multiErr.Code, CodeNotFinalized)
		}
		if multiErr.Context["token"] != "Value" {
			t.Errorf("context token = %v, want Value", multiErr.Context["token"])
		}
	})
}

func TestMultiErrorMessage(t *testing.T) {
	err := ErrMissingMulti("{provide: Value, useValue: 4}")
	if got, want := err.Error(), "multi-provider {provide: Value, useValue: 4} missing multi"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := ErrInvalidConfig("log.level", errors.New("unknown level"))
	if got, want := wrapped.Error(), "invalid configuration for key 'log.level': unknown level"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestHelperFunctions(t *testing.T) {
	checks := []struct {
		name string
		fn   func(error) bool
		err  error
	}{
		{"IsMissingMulti", IsMissingMulti, ErrMissingMulti("x")},
		{"IsInvalidProvider", IsInvalidProvider, ErrInvalidProvider("x", nil)},
		{"IsCompositionState", IsCompositionState, ErrCompositionState("declare", "finalized")},
		{"IsNotFinalized", IsNotFinalized, ErrNotFinalized("x")},
		{"IsServiceNotFound", IsServiceNotFound, ErrServiceNotFound("x")},
		{"IsServiceAlreadyExists", IsServiceAlreadyExists, ErrServiceAlreadyExists("x")},
		{"IsCircularDependency", IsCircularDependency, ErrCircularDependency([]string{"a", "b", "a"})},
		{"IsValidationError", IsValidationError, ErrValidationError("field", nil)},
	}

	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if !c.fn(c.err) {
				t.Errorf("%s() = false, want true", c.name)
			}
			if c.fn(errors.New("plain")) {
				t.Errorf("%s() matched a plain error", c.name)
			}
		})
	}
}
