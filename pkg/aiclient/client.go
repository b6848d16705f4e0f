// Package aiclient talks to vision model backends. Each call sends one image
// plus a prompt and a JSON schema the response must conform to; the decoded
// result and the name of the producing model come back together.
package aiclient

import (
	"context"
	"encoding/json"
	"fmt"
)

// VisionClient is the external AI collaborator. Invoke decodes the model's
// structured response into out and returns the model name for the
// provenance badge. Quota, network, and parse problems come back as
// *UnavailableError or *MalformedError.
type VisionClient interface {
	Invoke(ctx context.Context, imagePath, prompt string, schema json.RawMessage, out any) (model string, err error)
}

// UnavailableError reports that the backend could not serve the request:
// network failure, auth problem, or quota exhaustion. The message is
// surfaced to the user verbatim.
type UnavailableError struct {
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string { return e.Reason }
func (e *UnavailableError) Unwrap() error { return e.Err }

// MalformedError reports a response that could not be coerced to the
// requested schema. Excerpt carries up to excerptLimit chars of the raw
// response for diagnosis.
type MalformedError struct {
	Excerpt string
	Err     error
}

const excerptLimit = 2000

func (e *MalformedError) Error() string {
	return fmt.Sprintf("AI returned a response that could not be parsed: %v (raw: %s)", e.Err, e.Excerpt)
}

func (e *MalformedError) Unwrap() error { return e.Err }

func newMalformedError(raw string, err error) *MalformedError {
	excerpt := raw
	if len(excerpt) > excerptLimit {
		excerpt = excerpt[:excerptLimit]
	}
	if excerpt == "" {
		excerpt = "(empty)"
	}
	return &MalformedError{Excerpt: excerpt, Err: err}
}
