package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode identifies an error class across the service.
type ErrorCode string

const (
	ErrorCode_INTERNAL          ErrorCode = "INTERNAL"
	ErrorCode_INVALID_ARGUMENT  ErrorCode = "INVALID_ARGUMENT"
	ErrorCode_NOT_FOUND         ErrorCode = "NOT_FOUND"
	ErrorCode_INVALID_PAYLOAD   ErrorCode = "INVALID_PAYLOAD"
	ErrorCode_GENERATION_FAILED ErrorCode = "GENERATION_FAILED"
	ErrorCode_INGESTION_FAILED  ErrorCode = "INGESTION_FAILED"
	ErrorCode_PIPELINE_FAILED   ErrorCode = "PIPELINE_FAILED"
	ErrorCode_QUEUE_FAILED      ErrorCode = "QUEUE_FAILED"
	ErrorCode_STORAGE_FAILED    ErrorCode = "STORAGE_FAILED"
	ErrorCode_NARROWS_FAILED    ErrorCode = "NARROWS_FAILED"
	ErrorCode_DB_QUERY_FAILED   ErrorCode = "DB_QUERY_FAILED"
)

// String returns the code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// AppError is the custom error type for the application.
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause.
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Pipeline Errors

// ErrGenerationFailed marks a generation-service call that failed or
// returned unusable output. Pipeline stages resolve these to fallbacks and
// never let them escape; the code exists for logging and job records.
func ErrGenerationFailed(stage string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_GENERATION_FAILED,
		Message:  fmt.Sprintf("Generation service failed during %s", stage),
	}
}

func ErrIngestionFailed(segmentID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_INGESTION_FAILED,
		Message:  "Knowledge graph ingestion failed",
	}.WithDetail("segment_id", segmentID)
}

func ErrPipelineFailed(episodeID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_PIPELINE_FAILED,
		Message:  "Episode pipeline failed",
	}.WithDetail("episode_id", episodeID)
}

// Integration Errors
func ErrQueueFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_QUEUE_FAILED,
		Message:  fmt.Sprintf("Queue operation failed: %s", operation),
	}
}

func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_STORAGE_FAILED,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}

func ErrNarrowsFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_NARROWS_FAILED,
		Message:  fmt.Sprintf("Narrows API call failed: %s", operation),
	}
}

// Database Errors
func ErrDBQueryFailed(query string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_QUERY_FAILED,
		Message:  "Database query failed",
	}.WithDetail("query", query)
}
