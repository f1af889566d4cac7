package ytstudio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredential indicates the SAPISID cookie (or session token) was
// absent at construction. Fatal; nothing can be signed without it.
var ErrMissingCredential = errors.New("missing SAPISID credential")

// ErrLoginRequired indicates an endpoint call was attempted before Login
// populated the session context.
var ErrLoginRequired = errors.New("session context not initialized, call Login first")

// =============================================================================
// Extraction Errors
// =============================================================================

// ExtractionError indicates the Studio landing page script could not be found
// or did not expose the expected configuration fields. The upstream page format
// is undocumented and changes without notice; this error is confined to login.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "ytcfg extraction failed: " + e.Reason
}

// =============================================================================
// Response Shape Errors
// =============================================================================

// ResponseShapeError indicates an endpoint response was missing expected keys
// or values. The API returns 200 with embedded result codes, so this is the
// only failure signal for most calls. Body carries the raw response for
// diagnosis and is never discarded.
type ResponseShapeError struct {
	Endpoint string
	Missing  []string
	Body     []byte
}

func (e *ResponseShapeError) Error() string {
	preview := string(e.Body)
	if len(preview) > 500 {
		preview = preview[:500]
	}
	return fmt.Sprintf("unexpected response shape from %s (missing %s): %s",
		e.Endpoint, strings.Join(e.Missing, ", "), preview)
}

// IsResponseShapeError checks whether err is (or wraps) a ResponseShapeError.
func IsResponseShapeError(err error) bool {
	var se *ResponseShapeError
	return errors.As(err, &se)
}

// =============================================================================
// Upload Errors
// =============================================================================

// UploadPhase names the upload state machine step that failed.
type UploadPhase string

const (
	UploadPhaseInit     UploadPhase = "init"
	UploadPhaseTransfer UploadPhase = "transfer"
	UploadPhaseRegister UploadPhase = "register"
)

// UploadError wraps a failure in one distinct phase of the upload state
// machine. Each phase is fatal to the upload attempt; only rate-limit waits
// are retried internally.
type UploadError struct {
	Phase UploadPhase
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed: %v", e.Phase, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// IsUploadPhase reports whether err is an UploadError for the given phase.
func IsUploadPhase(err error, phase UploadPhase) bool {
	var ue *UploadError
	return errors.As(err, &ue) && ue.Phase == phase
}
