package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory groups error codes by the stage of the pipeline that raised them
type ErrorCategory string

const (
	CategoryInput         ErrorCategory = "input"
	CategoryParse         ErrorCategory = "parse"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode identifies a specific failure within a category
type ErrorCode string

const (
	// Input errors
	CodeMissingInput      ErrorCode = "missing_input"
	CodeInputUnreadable   ErrorCode = "input_unreadable"
	CodeWorkbookCorrupted ErrorCode = "workbook_corrupted"
	CodeSheetNotFound     ErrorCode = "sheet_not_found"

	// Data quality (recorded as diagnostics, never returned)
	CodeMissingColumn     ErrorCode = "missing_column"
	CodeUnparseableValue  ErrorCode = "unparseable_value"
	CodeEmptyFilterResult ErrorCode = "empty_filter_result"
	CodeAmbiguousClient   ErrorCode = "ambiguous_client"

	// Configuration errors
	CodeInvalidConfig    ErrorCode = "invalid_config"
	CodeInvalidDateRange ErrorCode = "invalid_date_range"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// DashboardError is the base error type for all application errors
type DashboardError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

func (e *DashboardError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

func (e *DashboardError) Unwrap() error {
	return e.Cause
}

// GetExitCode maps the error category to a process exit code
func (e *DashboardError) GetExitCode() int {
	switch e.Category {
	case CategoryInput:
		return 2
	case CategoryParse:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryInternal:
		return 5
	default:
		return 1
	}
}

// IsFatal reports whether the error must stop the current render cycle.
// Only whole-input failures are fatal; per-cell problems degrade to nulls.
func (e *DashboardError) IsFatal() bool {
	switch e.Code {
	case CodeMissingColumn, CodeUnparseableValue, CodeEmptyFilterResult, CodeAmbiguousClient:
		return false
	default:
		return true
	}
}

// WithContext adds context information to the error
func (e *DashboardError) WithContext(key string, value interface{}) *DashboardError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a hint for fixing the error
func (e *DashboardError) WithSuggestion(suggestion string) *DashboardError {
	e.Suggestion = suggestion
	return e
}

// New creates a new DashboardError with a captured stack
func New(category ErrorCategory, code ErrorCode, message string) *DashboardError {
	return &DashboardError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with DashboardError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *DashboardError {
	if err == nil {
		return nil
	}

	return &DashboardError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func build(category ErrorCategory, code ErrorCode, message string, err error) *DashboardError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// InputError creates an error for an absent or unreadable workbook
func InputError(code ErrorCode, source string, err error) *DashboardError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingInput:
		message = fmt.Sprintf("required input is missing: %s", source)
		suggestion = "provide both workbooks (set RA_DATA_PATH and FORECAST_PATH or pass --revenue-file and --forecast-file)"
	case CodeInputUnreadable:
		message = fmt.Sprintf("input cannot be read: %s", source)
		suggestion = "check that the file exists, is not a directory and is readable"
	case CodeWorkbookCorrupted:
		message = fmt.Sprintf("input is not a readable workbook: %s", source)
		suggestion = "save the file as .xlsx (or .csv) and try again"
	case CodeSheetNotFound:
		message = fmt.Sprintf("no usable sheet found in: %s", source)
		suggestion = "the workbook must contain at least one sheet"
	default:
		message = fmt.Sprintf("input error: %s", source)
		suggestion = "check the input files and try again"
	}

	return build(CategoryInput, code, message, err).
		WithSuggestion(suggestion).
		WithContext("source", source)
}

// ParseError creates an error for a table that could not be decoded
func ParseError(code ErrorCode, source, sheet string, err error) *DashboardError {
	var message string

	switch code {
	case CodeWorkbookCorrupted:
		message = fmt.Sprintf("failed to read sheet %q of %s", sheet, source)
	default:
		message = fmt.Sprintf("parse error in sheet %q of %s", sheet, source)
	}

	return build(CategoryParse, code, message, err).
		WithSuggestion("verify the sheet is a plain table with a header row").
		WithContext("source", source).
		WithContext("sheet", sheet)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *DashboardError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration file and flags for valid values"
	case CodeInvalidDateRange:
		message = fmt.Sprintf("invalid date range: %v", value)
		suggestion = "use YYYY-MM-DD dates with start on or before end"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return build(CategoryConfiguration, code, message, err).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *DashboardError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	return build(CategoryInternal, code, message, err).
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// IsDashboardError checks if an error is a DashboardError
func IsDashboardError(err error) bool {
	_, ok := err.(*DashboardError)
	return ok
}

// AsDashboardError extracts a DashboardError from an error chain
func AsDashboardError(err error) (*DashboardError, bool) {
	var dashErr *DashboardError
	if errors.As(err, &dashErr) {
		return dashErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a DashboardError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *DashboardError {
	if err == nil {
		return nil
	}

	if dashErr, ok := AsDashboardError(err); ok {
		return dashErr
	}

	return Wrap(err, category, code, message)
}

// IsCode reports whether err carries the given code anywhere in its chain
func IsCode(err error, code ErrorCode) bool {
	dashErr, ok := AsDashboardError(err)
	return ok && dashErr.Code == code
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
