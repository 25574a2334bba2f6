package domain

// Result is the uniform envelope returned by every report service call.
// IsSuccess=false implies Data=nil; Errors accumulate rather than
// interrupt wherever row-level recovery is possible.
type Result struct {
	IsSuccess bool          `json:"is_success"`
	Data      *FileArtifact `json:"data"`
	Errors    []string      `json:"errors"`
}

// Succeed returns a successful Result carrying the produced artifact.
func Succeed(artifact FileArtifact) Result {
	return Result{IsSuccess: true, Data: &artifact, Errors: []string{}}
}

// SucceedWith returns a successful Result that still carries non-fatal
// problems, such as skipped inputs or a capped row-warning list.
func SucceedWith(artifact FileArtifact, errors []string) Result {
	if errors == nil {
		errors = []string{}
	}
	return Result{IsSuccess: true, Data: &artifact, Errors: errors}
}

// Fail returns a failed Result carrying every collected error.
func Fail(errors []string) Result {
	if errors == nil {
		errors = []string{}
	}
	return Result{IsSuccess: false, Data: nil, Errors: errors}
}

// Failf is a convenience for a single-message failure.
func Failf(message string) Result {
	return Fail([]string{message})
}
