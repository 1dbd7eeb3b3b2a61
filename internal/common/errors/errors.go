// Package errors provides the structured error type shared by the router, its capability
// backends and the workflow job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode is a stable, machine-readable error identifier.
type ErrorCode string

const (
	ErrCodeCapabilityUnavailable     ErrorCode = "CAPABILITY_UNAVAILABLE"
	ErrCodeCapabilityTimeout         ErrorCode = "CAPABILITY_TIMEOUT"
	ErrCodeClassificationParseFailed ErrorCode = "CLASSIFICATION_PARSE_FAILED"
	ErrCodeRewriteFailed             ErrorCode = "REWRITE_FAILED"

	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeKnowledgeBaseLoadFailed ErrorCode = "KNOWLEDGE_BASE_LOAD_FAILED"
	ErrCodeOrderRecordsLoadFailed  ErrorCode = "ORDER_RECORDS_LOAD_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInvalidRouteInput ErrorCode = "INVALID_ROUTE_INPUT"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// StandardError is a structured application error. Cause keeps the wrapped error reachable
// through errors.Is and errors.As.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// WithMetadata returns e after attaching key/value.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError is the shape thrown back to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the job variables attached to a failed or thrown job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewCapabilityUnavailableError marks a backend that could not be reached or answered with an error.
func NewCapabilityUnavailableError(backend string, err error) *StandardError {
	return newError(ErrCodeCapabilityUnavailable, "Text-generation backend unavailable", err, true).
		WithMetadata("backend", backend)
}

// NewCapabilityTimeoutError marks a backend call that ran out of time.
func NewCapabilityTimeoutError(backend string, err error) *StandardError {
	return newError(ErrCodeCapabilityTimeout, "Text-generation backend timed out", err, true).
		WithMetadata("backend", backend)
}

// NewClassificationParseFailedError marks classifier output that does not fit the expected shape.
func NewClassificationParseFailedError(err error) *StandardError {
	return newError(ErrCodeClassificationParseFailed, "Classification output could not be parsed", err, false)
}

func NewRewriteFailedError(err error) *StandardError {
	return newError(ErrCodeRewriteFailed, "Conversational rewrite failed", err, false)
}

func NewSessionStoreFailedError(sessionID string, err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store operation failed", err, true).
		WithMetadata("sessionId", sessionID)
}

func NewKnowledgeBaseLoadFailedError(source string, err error) *StandardError {
	return newError(ErrCodeKnowledgeBaseLoadFailed, "Knowledge base could not be loaded", err, false).
		WithMetadata("source", source)
}

func NewOrderRecordsLoadFailedError(source string, err error) *StandardError {
	return newError(ErrCodeOrderRecordsLoadFailed, "Order records could not be loaded", err, false).
		WithMetadata("source", source)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Escalation notification failed", err, true).
		WithMetadata("channel", channel)
}

func NewInvalidRouteInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRouteInput,
		Message:   "Invalid route input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns how many times the workflow engine should retry a job failing with code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCapabilityUnavailable,
		ErrCodeSessionStoreFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeCapabilityTimeout:
		return 2

	default:
		return 0
	}
}

// Normalize returns err as a StandardError, wrapping unknown errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for dashboards and log fields.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CAPABILITY"),
		strings.HasPrefix(codeStr, "CLASSIFICATION"),
		strings.HasPrefix(codeStr, "REWRITE"):
		return "AI"
	case strings.HasPrefix(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "LOAD"):
		return "DATA"
	case strings.HasPrefix(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.HasPrefix(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
