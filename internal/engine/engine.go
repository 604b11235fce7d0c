package engine

import "context"

// ErrUnavailable indicates an engine cannot serve requests, usually because
// required credentials or backing services are missing.
var ErrUnavailable = errUnavailable{}

type errUnavailable struct{}

func (errUnavailable) Error() string { return "engine unavailable" }

// ClassificationResult is the outcome of classifying a document's text.
type ClassificationResult struct {
	DocumentType   string         `json:"documentType"`
	Confidence     float64        `json:"confidence"`
	KeyInformation map[string]any `json:"keyInformation,omitempty"`
	AnalysisMethod string         `json:"analysisMethod"`
	ModelUsed      string         `json:"modelUsed,omitempty"`
	EngineUsed     string         `json:"engineUsed,omitempty"`
	FallbackReason string         `json:"fallbackReason,omitempty"`
}

// SearchHit is a single chunk returned from a vector search.
type SearchHit struct {
	DocumentID string         `json:"documentId"`
	ChunkID    string         `json:"chunkId"`
	Content    string         `json:"content"`
	Score      float64        `json:"score"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// AnswerResult is a question answered from the user's indexed documents.
type AnswerResult struct {
	Answer     string      `json:"answer"`
	Sources    []SearchHit `json:"sources,omitempty"`
	EngineUsed string      `json:"engineUsed"`
	ModelUsed  string      `json:"modelUsed,omitempty"`
}

// Info describes an engine for diagnostics and the engines endpoint.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Model       string `json:"model,omitempty"`
	Available   bool   `json:"available"`
}

// IndexRequest carries a document's text into an engine's vector store.
type IndexRequest struct {
	DocumentID   string
	UserID       string
	Text         string
	FileName     string
	DocumentType string
}

// Engine is a pluggable document intelligence backend. Implementations own
// their vector store, so indexed documents do not transfer across engines.
type Engine interface {
	Name() string
	Available() bool
	Initialize(ctx context.Context) error
	Classify(ctx context.Context, text string) (ClassificationResult, error)
	AddDocument(ctx context.Context, req IndexRequest) error
	RemoveDocument(ctx context.Context, documentID, userID string) error
	ListDocuments(ctx context.Context, userID string) ([]string, error)
	Search(ctx context.Context, query, userID string, k int) ([]SearchHit, error)
	Answer(ctx context.Context, question, userID string) (AnswerResult, error)
	Info() Info
}
