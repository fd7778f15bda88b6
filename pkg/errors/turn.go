package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a classified turn-pipeline error.
type ErrorCode string

const (
	ErrTimeout             ErrorCode = "timeout"
	ErrRateLimit           ErrorCode = "rate_limit"
	ErrServiceUnavailable  ErrorCode = "service_unavailable"
	ErrContextCancelled    ErrorCode = "context_cancelled"
	ErrTranscriptionFailed ErrorCode = "transcription_failed"
	ErrSynthesisFailed     ErrorCode = "synthesis_failed"
	ErrStorageFailed       ErrorCode = "storage_failed"
	ErrProcessingError     ErrorCode = "processing_error"
)

// Pipeline stage names used in TurnError and in the turn audit trail.
const (
	StageTranscribe  = "transcribe"
	StagePersistUser = "persist_user_turn"
	StageGenerate    = "generate"
	StagePersistAI   = "persist_ai_turn"
	StageSynthesize  = "synthesize"
)

// TurnError is a structured error for turn-pipeline failures. It records
// which pipeline stage failed so callers can distinguish, for example, a
// synthesis failure (both turns already persisted) from a storage failure.
type TurnError struct {
	Code     ErrorCode
	Stage    string
	Message  string
	Duration time.Duration
	Cause    error
}

func (e *TurnError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TurnError) Unwrap() error {
	return e.Cause
}

// NewTurnError builds a TurnError for the given stage and code.
func NewTurnError(code ErrorCode, stage, message string, cause error) *TurnError {
	return &TurnError{Code: code, Stage: stage, Message: message, Cause: cause}
}

// Classify inspects a collaborator or storage error and returns a *TurnError
// with the appropriate code. Unrecognized errors classify as ErrProcessingError.
func Classify(err error, stage string) *TurnError {
	if err == nil {
		return nil
	}

	te := &TurnError{
		Stage: stage,
		Cause: err,
	}

	if errors.Is(err, context.DeadlineExceeded) {
		te.Code = ErrTimeout
		te.Message = "operation timed out"
		return te
	}

	if errors.Is(err, context.Canceled) {
		te.Code = ErrContextCancelled
		te.Message = "operation cancelled"
		return te
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	if strings.Contains(lower, "rate limit") || strings.Contains(lower, "429") || strings.Contains(lower, "too many requests") || strings.Contains(lower, "quota exceeded") {
		te.Code = ErrRateLimit
		te.Message = msg
		return te
	}

	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "unavailable") || strings.Contains(lower, "503") || strings.Contains(lower, "no such host") {
		te.Code = ErrServiceUnavailable
		te.Message = msg
		return te
	}

	te.Code = ErrProcessingError
	te.Message = msg
	return te
}

// IsTimeout returns true if the error is a timeout TurnError.
func IsTimeout(err error) bool {
	var te *TurnError
	if errors.As(err, &te) {
		return te.Code == ErrTimeout
	}
	return false
}

// CodeOf returns the error code of a TurnError in err's chain, or
// ErrProcessingError if the chain contains no TurnError.
func CodeOf(err error) ErrorCode {
	var te *TurnError
	if errors.As(err, &te) {
		return te.Code
	}
	return ErrProcessingError
}

// retryableCodes marks codes that represent transient collaborator failures.
var retryableCodes = map[ErrorCode]bool{
	ErrTimeout:            true,
	ErrRateLimit:          true,
	ErrServiceUnavailable: true,
}

// IsRetryable returns true if the error code represents a transient failure.
func IsRetryable(code ErrorCode) bool {
	return retryableCodes[code]
}
