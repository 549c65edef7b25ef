package pipeline

import "fmt"

// ValidationError marks a malformed or out-of-range request. It is raised
// before any external AI call is made, so a rejected request costs nothing.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// UpstreamError marks a failed external AI call outside the generation
// phase. It aborts the whole request; the coordinator does not retry
// (retries belong to the collaborator clients, not the orchestration
// layer).
type UpstreamError struct {
	Phase string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
