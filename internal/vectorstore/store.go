package vectorstore

import "context"

// Chunk is one embedded slice of a document.
type Chunk struct {
	ChunkID     string    `json:"chunkId"`
	DocumentID  string    `json:"documentId"`
	UserID      string    `json:"userId"`
	ChunkIndex  int       `json:"chunkIndex"`
	TotalChunks int       `json:"totalChunks"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"embedding"`
}

// Match is a chunk returned from a similarity search, scored in [0, 1]
// where higher is more similar.
type Match struct {
	Chunk
	Score float64 `json:"score"`
}

// Store persists embedded chunks scoped by user. Implementations must keep
// users isolated: no read or delete may cross a user boundary.
type Store interface {
	// AddChunks inserts a document's chunks. Callers delete existing chunks
	// for the document first, so re-indexing replaces rather than appends.
	AddChunks(ctx context.Context, chunks []Chunk) error
	// DeleteDocument removes every chunk of a document owned by the user.
	// Deleting an absent document is not an error.
	DeleteDocument(ctx context.Context, documentID, userID string) error
	// Search returns the k nearest chunks owned by the user.
	Search(ctx context.Context, userID string, embedding []float32, k int) ([]Match, error)
	// ListDocumentIDs returns the distinct document IDs indexed for a user.
	ListDocumentIDs(ctx context.Context, userID string) ([]string, error)
}
