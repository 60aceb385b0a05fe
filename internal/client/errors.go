// internal/client/errors.go
package client

import (
	"errors"
	"fmt"
)

var errEmptyURL = errors.New("HCM URL is required")

// JobFailedError carries the error message the processor attached to a failed
// job.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analysis job %s failed", e.JobID)
	}
	return fmt.Sprintf("analysis job %s failed: %s", e.JobID, e.Message)
}
