package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"docproc-backend/internal/engine"
	"docproc-backend/internal/vectorstore"
)

// maxClassifyChars bounds how much document text goes into the
// classification prompt.
const maxClassifyChars = 8000

// searchK is the number of chunks retrieved for search and answering.
const searchK = 4

const classifySystemPrompt = `You are a document classification assistant.
Classify the document into exactly one of these categories: invoice, receipt, contract, resume, report, letter, form, email, memo, unknown.
Extract key information relevant to the category (for an invoice: vendor, total, due date; for a resume: name, role; and so on).
Respond with a JSON object: {"document_type": "<category>", "confidence": <0.0-1.0>, "key_information": {<field>: <value>}}.`

const answerSystemPrompt = `You are a document assistant. Answer the question using only the provided document excerpts.
If the excerpts do not contain the answer, say so plainly. Keep answers short and factual.`

// Engine is the OpenAI-backed document intelligence engine. Classification
// and answering go through chat completions; the vector store holds
// embeddings from the embeddings API.
type Engine struct {
	client *Client
	store  vectorstore.Store
	apiKey string
	model  string
}

// NewEngine constructs the engine. The store decides where embeddings live
// (Postgres with pgvector, or local disk).
func NewEngine(client *Client, store vectorstore.Store, apiKey, model string) *Engine {
	return &Engine{client: client, store: store, apiKey: apiKey, model: model}
}

func (e *Engine) Name() string { return "openai" }

// Available requires a plausible API key. Requests still fail fast if the
// key is revoked; this only gates obviously unconfigured deployments.
func (e *Engine) Available() bool {
	return strings.HasPrefix(strings.TrimSpace(e.apiKey), "sk-")
}

func (e *Engine) Initialize(ctx context.Context) error {
	if e.client == nil || e.store == nil {
		return fmt.Errorf("openai engine missing client or store")
	}
	if !e.Available() {
		return fmt.Errorf("openai engine: %w", engine.ErrUnavailable)
	}
	return nil
}

type classifyPayload struct {
	DocumentType   string         `json:"document_type"`
	Confidence     float64        `json:"confidence"`
	KeyInformation map[string]any `json:"key_information"`
}

func (e *Engine) Classify(ctx context.Context, text string) (engine.ClassificationResult, error) {
	if !e.Available() {
		return engine.ClassificationResult{}, engine.ErrUnavailable
	}

	truncated := truncateBytes(text, maxClassifyChars)

	content, err := e.client.Chat(ctx, classifySystemPrompt, truncated, true)
	if err != nil {
		return engine.ClassificationResult{}, err
	}

	var payload classifyPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return engine.ClassificationResult{}, fmt.Errorf("parse classification: %w", err)
	}

	return engine.ClassificationResult{
		DocumentType:   string(engine.NormalizeDocumentType(payload.DocumentType)),
		Confidence:     engine.ClampConfidence(payload.Confidence),
		KeyInformation: payload.KeyInformation,
		AnalysisMethod: "llm",
		ModelUsed:      e.model,
	}, nil
}

// AddDocument chunks and embeds the text, replacing any chunks already
// stored for the document.
func (e *Engine) AddDocument(ctx context.Context, req engine.IndexRequest) error {
	if !e.Available() {
		return engine.ErrUnavailable
	}

	chunks := vectorstore.BuildChunks(req.DocumentID, req.UserID, req.Text)
	if len(chunks) == 0 {
		return nil
	}

	inputs := make([]string, len(chunks))
	for i := range chunks {
		inputs[i] = chunks[i].Content
	}
	vectors, err := e.client.Embed(ctx, inputs)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
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
	if !e.Available() {
		return nil, engine.ErrUnavailable
	}
	if k <= 0 {
		k = searchK
	}

	vectors, err := e.client.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := e.store.Search(ctx, userID, vectors[0], k)
	if err != nil {
		return nil, err
	}
	return toHits(matches), nil
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
			ModelUsed:  e.model,
		}, nil
	}

	var sb strings.Builder
	for i, hit := range hits {
		fmt.Fprintf(&sb, "Excerpt %d (document %s):\n%s\n\n", i+1, hit.DocumentID, hit.Content)
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)

	answer, err := e.client.Chat(ctx, answerSystemPrompt, sb.String(), false)
	if err != nil {
		return engine.AnswerResult{}, err
	}

	return engine.AnswerResult{
		Answer:     answer,
		Sources:    hits,
		EngineUsed: e.Name(),
		ModelUsed:  e.model,
	}, nil
}

func (e *Engine) Info() engine.Info {
	return engine.Info{
		Name:        e.Name(),
		Description: "OpenAI chat completions for classification and answers, embeddings for retrieval",
		Model:       e.model,
		Available:   e.Available(),
	}
}

// truncateBytes caps s at n bytes, backing up so a multi-byte rune is never
// split mid-sequence.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func toHits(matches []vectorstore.Match) []engine.SearchHit {
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
	return hits
}

var _ engine.Engine = (*Engine)(nil)
