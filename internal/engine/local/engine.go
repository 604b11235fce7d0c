// Package local implements a document engine with no external dependencies:
// keyword classification, feature-hashed embeddings, and extractive answers.
// It is always available, so it serves as the fallback when remote engines
// are unconfigured or failing.
package local

import (
	"context"
	"fmt"

	"docproc-backend/internal/engine"
	"docproc-backend/internal/vectorstore"
)

const searchK = 4

// Engine is the credential-free local engine.
type Engine struct {
	store vectorstore.Store
}

// NewEngine constructs the engine over a vector store.
func NewEngine(store vectorstore.Store) *Engine {
	return &Engine{store: store}
}

func (e *Engine) Name() string    { return "local" }
func (e *Engine) Available() bool { return true }

func (e *Engine) Initialize(ctx context.Context) error {
	if e.store == nil {
		return fmt.Errorf("local engine missing store")
	}
	return nil
}

func (e *Engine) Classify(ctx context.Context, text string) (engine.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return engine.ClassificationResult{}, err
	}
	return classify(text), nil
}

// AddDocument chunks and embeds the text, replacing any chunks already
// stored for the document.
func (e *Engine) AddDocument(ctx context.Context, req engine.IndexRequest) error {
	chunks := vectorstore.BuildChunks(req.DocumentID, req.UserID, req.Text)
	if len(chunks) == 0 {
		return nil
	}
	for i := range chunks {
		chunks[i].Embedding = embed(chunks[i].Content)
	}

	if err := e.store.DeleteDocument(ctx, req.DocumentID, req.UserID); err != nil {
		return fmt.Errorf("clear previous chunks: %w", err)
	}
	return e.store.AddChunks(ctx, chunks)
}

func (e *Engine) RemoveDocument(ctx context.Context, documentID, userID string) error {
	return e.store.DeleteDocument(ctx, documentID, userID)
}

func (e *Engine) ListDocuments(ctx context.Context, userID string) ([]string, error) {
	return e.store.ListDocumentIDs(ctx, userID)
}

func (e *Engine) Search(ctx context.Context, query, userID string, k int) ([]engine.SearchHit, error) {
	if k <= 0 {
		k = searchK
	}
	matches, err := e.store.Search(ctx, userID, embed(query), k)
	if err != nil {
		return nil, err
	}

	hits := make([]engine.SearchHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, engine.SearchHit{
			DocumentID: m.DocumentID,
			ChunkID:    m.ChunkID,
			Content:    m.Content,
			Score:      m.Score,
			Metadata: map[string]any{
				"chunk_index":  m.ChunkIndex,
				"total_chunks": m.TotalChunks,
				"user_id":      m.UserID,
			},
		})
	}
	return hits, nil
}

func (e *Engine) Answer(ctx context.Context, question, userID string) (engine.AnswerResult, error) {
	hits, err := e.Search(ctx, question, userID, searchK)
	if err != nil {
		return engine.AnswerResult{}, err
	}
	if len(hits) == 0 {
		return engine.AnswerResult{
			Answer:     "No documents are indexed for this user yet.",
			EngineUsed: e.Name(),
		}, nil
	}

	excerpts := make([]string, 0, len(hits))
	for _, hit := range hits {
		excerpts = append(excerpts, hit.Content)
	}

	return engine.AnswerResult{
		Answer:     answerFromExcerpts(question, excerpts, 3),
		Sources:    hits,
		EngineUsed: e.Name(),
	}, nil
}

func (e *Engine) Info() engine.Info {
	return engine.Info{
		Name:        e.Name(),
		Description: "keyword classification with hashed bag-of-words retrieval, no external services",
		Available:   true,
	}
}

var _ engine.Engine = (*Engine)(nil)
