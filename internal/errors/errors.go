package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"centerout/domain/core"
)

// AppError carries a stable code alongside the message so transports can map
// failures without string matching.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap adds context, keeping the code of an inner AppError. Domain sentinel
// errors are classified; anything else is INTERNAL_ERROR.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Code: codeOf(err), Message: message, Cause: err}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode replaces the code of err.
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{Code: code, Message: appErr.Message, Cause: appErr.Cause}
	}
	return &AppError{Code: code, Message: err.Error(), Cause: err}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError, or classifies a bare
// domain error. Unknown errors are "UNKNOWN".
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	if err != nil {
		if c := domainCode(err); c != "" {
			return c
		}
	}
	return "UNKNOWN"
}

func codeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	if c := domainCode(err); c != "" {
		return c
	}
	return CodeInternalError
}

func domainCode(err error) string {
	switch {
	case core.IsConfigError(err):
		return CodeConfigInvalid
	case core.IsSequenceError(err):
		return CodeInvalidInput
	}
	return ""
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeLedgerError     = "LEDGER_ERROR"
	CodeExportError     = "EXPORT_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// HTTPStatus maps an error code to a response status.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeConfigInvalid, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func LedgerError(message string, cause error) *AppError {
	return &AppError{Code: CodeLedgerError, Message: message, Cause: cause}
}

func ExportError(message string, cause error) *AppError {
	return &AppError{Code: CodeExportError, Message: message, Cause: cause}
}

func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}
