package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving and retrieving uploaded files.
// The returned path is readable by the extraction pipeline on the local
// filesystem; remote backends would need to stage files before processing.
type ObjectStore interface {
	Save(ctx context.Context, userID string, fileName string, r io.Reader) (filePath string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, filePath string) (io.ReadCloser, error)
	Remove(ctx context.Context, filePath string) error
}
