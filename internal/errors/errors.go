package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrMalformedResponse marks analysis output that failed schema or syntax checks.
	ErrMalformedResponse = stderrors.New("malformed analysis response")
	// ErrAnalysisFailure marks an analysis that exhausted retries or hit a transport error.
	ErrAnalysisFailure = stderrors.New("analysis failed")
	// ErrCorrectionFailure marks a correction that could not be produced.
	ErrCorrectionFailure = stderrors.New("correction failed")
	// ErrSyncFailure marks any failed call to the account backend during push or pull.
	ErrSyncFailure = stderrors.New("sync failed")
	// ErrAuthFailure marks a rejected login or registration.
	ErrAuthFailure = stderrors.New("authentication failed")
	// ErrNotFound is returned when a meal id is unknown to the local store.
	ErrNotFound = stderrors.New("meal not found")
	// ErrNotAuthenticated is returned by operations that need a session token.
	ErrNotAuthenticated = stderrors.New("not logged in")
	// ErrKeyNotFound is returned by storage providers for an absent key.
	ErrKeyNotFound = stderrors.New("key not found")
	// ErrNotInitialized is returned when local storage has not been created yet.
	ErrNotInitialized = stderrors.New("storage not initialized, run 'nutriscan init' first")
)

// MalformedResponseError describes why raw analysis text was rejected.
type MalformedResponseError struct {
	Detail string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMalformedResponse, e.Detail)
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

func Malformed(format string, args ...interface{}) *MalformedResponseError {
	return &MalformedResponseError{Detail: fmt.Sprintf(format, args...)}
}

type FailureReason string

const (
	ReasonTransport        FailureReason = "transport"
	ReasonParse            FailureReason = "parse"
	ReasonImageUnavailable FailureReason = "image_unavailable"
	ReasonEmptyCorrection  FailureReason = "empty_correction"
	ReasonAnalysis         FailureReason = "analysis"
)

// AnalysisError is returned by the vision client. Err holds the transport
// error or, for parse failures, the last MalformedResponseError.
type AnalysisError struct {
	Attempts int
	Reason   FailureReason
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%v after %d attempt(s) (%s): %v", ErrAnalysisFailure, e.Attempts, e.Reason, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func (e *AnalysisError) Is(target error) bool { return target == ErrAnalysisFailure }

// CorrectionError is returned by the correction engine.
type CorrectionError struct {
	Reason FailureReason
	Err    error
}

func (e *CorrectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", ErrCorrectionFailure, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %v", ErrCorrectionFailure, e.Reason, e.Err)
}

func (e *CorrectionError) Unwrap() error { return e.Err }

func (e *CorrectionError) Is(target error) bool { return target == ErrCorrectionFailure }

// SyncError wraps a failed account backend call.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrSyncFailure, e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func (e *SyncError) Is(target error) bool { return target == ErrSyncFailure }

// AuthError is a login or registration rejected by the backend.
type AuthError struct {
	Status int
	Detail string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%v (%d): %s", ErrAuthFailure, e.Status, e.Detail)
}

func (e *AuthError) Is(target error) bool { return target == ErrAuthFailure }

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Hint returns a short, actionable suggestion for a user-facing error, or
// an empty string when there is nothing useful to add.
func Hint(err error) string {
	var ce *CorrectionError
	switch {
	case stderrors.As(err, &ce) && ce.Reason == ReasonImageUnavailable:
		return "The original photo is gone. Run `nutriscan analyze` again with the image."
	case stderrors.Is(err, ErrAnalysisFailure), stderrors.Is(err, ErrCorrectionFailure):
		return "Try again, or retake the photo with better lighting."
	case stderrors.Is(err, ErrAuthFailure):
		return "Check your username and password. Your diary stays available offline."
	case stderrors.Is(err, ErrNotAuthenticated):
		return "Run `nutriscan login` first."
	case stderrors.Is(err, ErrNotInitialized):
		return "Run `nutriscan init` to create local storage."
	case stderrors.Is(err, ErrNotFound):
		return "Run `nutriscan meals list` to see meal ids."
	}
	return ""
}
