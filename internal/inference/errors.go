package inference

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredential aborts classification before any network call when no
// probed source supplies an API key. The message names the manual override so
// the user knows how to fix it.
var ErrMissingCredential = errors.New(
	"no Gemini API key found; set GEMINI_API_KEY or save a key via the settings override")

// UpstreamError wraps a transport- or service-level failure of the inference
// call. There is no automatic retry.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "inference: upstream call failed: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// CredentialHint reports whether the failure text looks like a key or
// authorization problem, so callers can surface an actionable hint alongside
// the verbatim error.
func (e *UpstreamError) CredentialHint() bool {
	msg := strings.ToLower(e.Err.Error())
	for _, marker := range []string{"api key", "api_key", "credential", "unauthorized", "permission_denied", "401", "403"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// MalformedResponseError reports a reply that could not be parsed into the
// expected draft shape or that omits a required field.
type MalformedResponseError struct {
	Reason string
	Raw    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("inference: malformed model response: %s", e.Reason)
}
