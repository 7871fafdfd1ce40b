package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "ORDP1001"
	ErrCodeConnectionTimeout    ErrorCode = "ORDP1002"
	ErrCodeAuthenticationFailed ErrorCode = "ORDP1003"
	ErrCodeNetworkUnavailable   ErrorCode = "ORDP1004"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "ORDP2001"
	ErrCodeConfigInvalid  ErrorCode = "ORDP2002"
	ErrCodeConfigMissing  ErrorCode = "ORDP2003"

	// Cleaning errors (3xxx)
	ErrCodeDateParse        ErrorCode = "ORDP3001"
	ErrCodeDurationParse    ErrorCode = "ORDP3002"
	ErrCodeTimeParse        ErrorCode = "ORDP3003"
	ErrCodeDuplicateOrderID ErrorCode = "ORDP3004"
	ErrCodeDataQuality      ErrorCode = "ORDP3005"

	// SQL execution errors (4xxx)
	ErrCodeSQLExecution      ErrorCode = "ORDP4001"
	ErrCodeSQLTransaction    ErrorCode = "ORDP4002"
	ErrCodeSQLTimeout        ErrorCode = "ORDP4003"
	ErrCodeSQLObjectNotFound ErrorCode = "ORDP4004"
	ErrCodeNoResults         ErrorCode = "ORDP4005"

	// Reporting errors (5xxx)
	ErrCodeUnknownReport ErrorCode = "ORDP5001"
	ErrCodeExportFailed  ErrorCode = "ORDP5002"

	// Validation errors (6xxx)
	ErrCodeValidationFailed ErrorCode = "ORDP6001"
	ErrCodeInvalidInput     ErrorCode = "ORDP6002"
	ErrCodeRequiredField    ErrorCode = "ORDP6003"

	// Security errors (7xxx)
	ErrCodeCredentialStorage ErrorCode = "ORDP7001"
	ErrCodeEncryptionFailed  ErrorCode = "ORDP7002"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "ORDP9001"
	ErrCodeTimeout            ErrorCode = "ORDP9002"
	ErrCodeResourceExhausted  ErrorCode = "ORDP9003"
	ErrCodeServiceUnavailable ErrorCode = "ORDP9004"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // System failure, requires immediate attention
	SeverityError    ErrorSeverity = "ERROR"    // Operation failed, but system continues
	SeverityWarning  ErrorSeverity = "WARNING"  // Operation succeeded with issues
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		Severity:    SeverityError,
		Context:     make(map[string]interface{}),
		Stack:       captureStack(),
		Timestamp:   time.Now(),
		Recoverable: false,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit some properties
	if ae, ok := err.(*AppError); ok {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a connection-related error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSeverity(SeverityError).
		WithSuggestions(
			"Check your network connection",
			"Verify the Snowflake endpoint is accessible",
			"Check firewall settings",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'orderpulse setup' to reconfigure",
		)
}

// SQLError creates an SQL execution error
func SQLError(message string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeSQLExecution, message).
		WithContext("query", truncateString(query, 200))

	if strings.Contains(message, "timeout") {
		err.Code = ErrCodeSQLTimeout
		_ = err.WithSuggestions(
			"Increase the warehouse timeout setting",
			"Check the Snowflake warehouse size",
		)
	}

	return err
}

// ParseFailure creates an error for a raw field that did not match its
// expected textual pattern. The offending order and value travel in the
// context so the data-quality report can surface them.
func ParseFailure(code ErrorCode, orderID, field, raw, reason string) *AppError {
	return New(code, fmt.Sprintf("Failed to parse %s for order %s: %s", field, orderID, reason)).
		WithContext("order_id", orderID).
		WithContext("field", field).
		WithContext("raw_value", raw).
		WithSeverity(SeverityWarning).
		AsRecoverable()
}

// ConstraintError creates a uniqueness-violation error. The pipeline refuses
// to run over a dataset with duplicate order ids.
func ConstraintError(duplicates []string) *AppError {
	return New(ErrCodeDuplicateOrderID, fmt.Sprintf("Dataset contains %d duplicate order ids", len(duplicates))).
		WithContext("duplicate_ids", truncateString(strings.Join(duplicates, ", "), 200)).
		WithSeverity(SeverityCritical).
		WithSuggestions(
			"Fix the ingestion step so order_id is unique",
			"Re-run the pipeline after deduplicating the source table",
		)
}

// ValidationError creates a validation error
func ValidationError(field string, value interface{}, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity(SeverityWarning).
		AsRecoverable()
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
