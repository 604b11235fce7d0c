package documents

import "context"

var (
	ErrNotFound     = errNotFound{}
	ErrInvalidInput = errInvalidInput{}
)

type errNotFound struct{}

func (errNotFound) Error() string { return "document not found" }

type errInvalidInput struct{}

func (errInvalidInput) Error() string { return "invalid input" }

// Repo defines persistence operations for documents. All reads and writes
// are scoped to the owning user.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	ListIDsByUser(ctx context.Context, userID string) ([]string, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	UpdateExtractedText(ctx context.Context, userID, documentID, text string) error
	UpdateAnalysis(ctx context.Context, userID, documentID string, analysis Analysis) error
	Delete(ctx context.Context, userID, documentID string) error
}
