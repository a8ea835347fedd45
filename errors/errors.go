package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/go-utils/errs"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Error code constants for structured errors.
const (
	CodeConfigError          = "CONFIG_ERROR"
	CodeValidationError      = "VALIDATION_ERROR"
	CodeMissingMulti         = "MISSING_MULTI"
	CodeInvalidProvider      = "INVALID_PROVIDER"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeInvalidExport        = "INVALID_EXPORT"
	CodeCompositionState     = "COMPOSITION_STATE"
	CodeNotFinalized         = "NOT_FINALIZED"
	CodeServiceNotFound      = "SERVICE_NOT_FOUND"
	CodeServiceAlreadyExists = "SERVICE_ALREADY_EXISTS"
	CodeCircularDependency   = "CIRCULAR_DEPENDENCY"
	CodeInvalidConfig        = "INVALID_CONFIG"
)

// =============================================================================
// DI/SERVICE ERRORS
// =============================================================================

// Standard DI/service errors.
var (
	ErrInvalidFactory  = errs.New("factory must be a function")
	ErrTypeMismatch    = errs.New("service type mismatch")
	ErrNotCompiled     = errs.New("container not compiled")
	ErrAlreadyCompiled = errs.New("container already compiled")
)

// ServiceError wraps service-specific errors.
type ServiceError struct {
	Service   string
	Operation string
	Err       error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s: %s: %v", e.Service, e.Operation, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface for ServiceError.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}

	return (e.Service == "" || t.Service == "" || e.Service == t.Service) &&
		(e.Operation == "" || t.Operation == "" || e.Operation == t.Operation)
}

// NewServiceError creates a new service error.
func NewServiceError(service, operation string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Err:       err,
	}
}

// =============================================================================
// MULTI ERROR (STRUCTURED ERROR)
// =============================================================================

// MultiError represents a structured error with context.
type MultiError struct {
	Code      string
	Message   string
	Cause     error
	Timestamp time.Time
	Context   map[string]any
}

func (e *MultiError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}

	return e.Message
}

func (e *MultiError) Unwrap() error {
	return e.Cause
}

// Is matches by error code, allowing comparisons against the sentinels below.
func (e *MultiError) Is(target error) bool {
	t, ok := target.(*MultiError)
	if !ok {
		return false
	}

	return e.Code != "" && e.Code == t.Code
}

// WithContext adds context to the error.
func (e *MultiError) WithContext(key string, value any) *MultiError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value

	return e
}

func newError(code, message string, cause error, ctx map[string]any) *MultiError {
	if ctx == nil {
		ctx = make(map[string]any)
	}

	return &MultiError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   ctx,
	}
}

// ErrConfigError creates a config error.
func ErrConfigError(message string, cause error) *MultiError {
	return newError(CodeConfigError, message, cause, nil)
}

// ErrValidationError creates a validation error.
func ErrValidationError(field string, cause error) *MultiError {
	return newError(CodeValidationError, fmt.Sprintf("validation error for field '%s'", field), cause,
		map[string]any{"field": field})
}

// ErrMissingMulti reports a provider that reuses a multi-contribution token
// without carrying the multi marker itself.
func ErrMissingMulti(provider string) *MultiError {
	return newError(CodeMissingMulti, "multi-provider "+provider+" missing multi", nil,
		map[string]any{"provider": provider})
}

func ErrInvalidProvider(provider string, cause error) *MultiError {
	return newError(CodeInvalidProvider, "invalid provider "+provider, cause,
		map[string]any{"provider": provider})
}

func ErrInvalidToken(token string) *MultiError {
	return newError(CodeInvalidToken, "token "+token+" is not comparable", nil,
		map[string]any{"token": token})
}

func ErrInvalidExport(module, token string) *MultiError {
	return newError(CodeInvalidExport,
		"module '"+module+"' cannot export "+token+" because it neither provides nor imports it", nil,
		map[string]any{"module": module, "token": token})
}

// ErrCompositionState reports an operation attempted in the wrong phase.
func ErrCompositionState(operation, state string) *MultiError {
	return newError(CodeCompositionState, operation+" not allowed while composition is "+state, nil,
		map[string]any{"operation": operation, "state": state})
}

func ErrNotFinalized(token string) *MultiError {
	return newError(CodeNotFinalized, "collection for "+token+" requested before the composition was finalized", nil,
		map[string]any{"token": token})
}

func ErrServiceNotFound(serviceName string) *MultiError {
	return newError(CodeServiceNotFound, "service '"+serviceName+"' not found", nil,
		map[string]any{"service_name": serviceName})
}

func ErrDependencyNotFound(module string, deps ...string) *MultiError {
	return newError(CodeServiceNotFound,
		"dependency not found in module '"+module+"': "+strings.Join(deps, ", "), nil,
		map[string]any{"module": module, "dependencies": deps})
}

func ErrServiceAlreadyExists(serviceName string) *MultiError {
	return newError(CodeServiceAlreadyExists, "service '"+serviceName+"' already exists", nil,
		map[string]any{"service_name": serviceName})
}

func ErrCircularDependency(services []string) *MultiError {
	return newError(CodeCircularDependency, "circular dependency detected: "+strings.Join(services, " -> "), nil,
		map[string]any{"services": services})
}

func ErrInvalidConfig(configKey string, cause error) *MultiError {
	return newError(CodeInvalidConfig, "invalid configuration for key '"+configKey+"'", cause,
		map[string]any{"config_key": configKey})
}

// =============================================================================
// STANDARD ERRORS PACKAGE INTEGRATION
// =============================================================================

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is from the standard library.
//
// Example:
//
//	err := ErrServiceNotFound("auth")
//	if Is(err, &MultiError{Code: "SERVICE_NOT_FOUND"}) {
//	    // handle service not found
//	}
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As from the standard library.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap is a convenience wrapper around errors.Unwrap from the standard library.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Join returns an error that wraps the given errors.
// Any nil error values are discarded.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// =============================================================================
// SENTINEL ERRORS (for use with Is)
// =============================================================================

// Sentinel errors that can be used with errors.Is comparisons.
var (
	ErrMissingMultiSentinel         = &MultiError{Code: CodeMissingMulti}
	ErrInvalidProviderSentinel      = &MultiError{Code: CodeInvalidProvider}
	ErrInvalidTokenSentinel         = &MultiError{Code: CodeInvalidToken}
	ErrInvalidExportSentinel        = &MultiError{Code: CodeInvalidExport}
	ErrCompositionStateSentinel     = &MultiError{Code: CodeCompositionState}
	ErrNotFinalizedSentinel         = &MultiError{Code: CodeNotFinalized}
	ErrServiceNotFoundSentinel      = &MultiError{Code: CodeServiceNotFound}
	ErrServiceAlreadyExistsSentinel = &MultiError{Code: CodeServiceAlreadyExists}
	ErrCircularDependencySentinel   = &MultiError{Code: CodeCircularDependency}
	ErrInvalidConfigSentinel        = &MultiError{Code: CodeInvalidConfig}
	ErrValidationErrorSentinel      = &MultiError{Code: CodeValidationError}
	ErrConfigErrorSentinel          = &MultiError{Code: CodeConfigError}
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsMissingMulti checks if the error is a missing multi marker error.
func IsMissingMulti(err error) bool {
	return Is(err, ErrMissingMultiSentinel)
}

// IsInvalidProvider checks if the error is an invalid provider error.
func IsInvalidProvider(err error) bool {
	return Is(err, ErrInvalidProviderSentinel)
}

// IsCompositionState checks if the error is a phase violation.
func IsCompositionState(err error) bool {
	return Is(err, ErrCompositionStateSentinel)
}

// IsNotFinalized checks if the error is a premature collection access.
func IsNotFinalized(err error) bool {
	return Is(err, ErrNotFinalizedSentinel)
}

// IsServiceNotFound checks if the error is a service not found error.
func IsServiceNotFound(err error) bool {
	return Is(err, ErrServiceNotFoundSentinel)
}

// IsServiceAlreadyExists checks if the error is a service already exists error.
func IsServiceAlreadyExists(err error) bool {
	return Is(err, ErrServiceAlreadyExistsSentinel)
}

// IsCircularDependency checks if the error is a circular dependency error.
func IsCircularDependency(err error) bool {
	return Is(err, ErrCircularDependencySentinel)
}

// IsValidationError checks if the error is a validation error.
func IsValidationError(err error) bool {
	return Is(err, ErrValidationErrorSentinel)
}
