package jobs

import "context"

var (
	ErrNotFound          = errNotFound{}
	ErrInvalidTransition = errInvalidTransition{}
)

type errNotFound struct{}

func (errNotFound) Error() string { return "job not found" }

type errInvalidTransition struct{}

func (errInvalidTransition) Error() string { return "invalid status transition" }

// Repo defines persistence operations for processing jobs.
type Repo interface {
	Create(ctx context.Context, job Job) error
	GetByID(ctx context.Context, jobID string) (Job, error)
	// GetLatestByDocument returns the most recently created job for a document.
	GetLatestByDocument(ctx context.Context, userID, documentID string) (Job, error)
	// UpdateStatus applies a forward status transition. Transitions out of a
	// terminal state, or backward, fail with ErrInvalidTransition.
	UpdateStatus(ctx context.Context, jobID string, status Status, errMsg string) error
}
