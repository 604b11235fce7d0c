package users

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

type Repo interface {
	EnsureExists(ctx context.Context, userID string) error
	GetByID(ctx context.Context, userID string) (User, error)
	SetDocumentCount(ctx context.Context, userID string, count int) error
	ListIDs(ctx context.Context) ([]string, error)
}
