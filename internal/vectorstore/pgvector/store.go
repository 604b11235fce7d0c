// Package pgvector stores document chunks in Postgres with the pgvector
// extension. Similarity search runs in the database over the user's rows.
package pgvector

import (
	"context"
	"database/sql"
	"time"

	"github.com/pgvector/pgvector-go"

	"docproc-backend/internal/vectorstore"
)

// Store implements vectorstore.Store on Postgres.
type Store struct {
	DB *sql.DB
}

// New constructs a Store.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// AddChunks inserts chunks inside a transaction so a document is either
// fully indexed or not at all.
func (s *Store) AddChunks(ctx context.Context, chunks []vectorstore.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO document_chunks
    (chunk_id, document_id, user_id, chunk_index, total_chunks, content, embedding, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := stmt.ExecContext(ctx,
			ch.ChunkID, ch.DocumentID, ch.UserID, ch.ChunkIndex, ch.TotalChunks, ch.Content, vec, now,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// DeleteDocument removes a document's chunks for a user.
func (s *Store) DeleteDocument(ctx context.Context, documentID, userID string) error {
	const query = `DELETE FROM document_chunks WHERE document_id = $1 AND user_id = $2`
	_, err := s.DB.ExecContext(ctx, query, documentID, userID)
	return err
}

// Search returns the user's k nearest chunks by cosine distance.
func (s *Store) Search(ctx context.Context, userID string, embedding []float32, k int) ([]vectorstore.Match, error) {
	if k <= 0 {
		k = 4
	}
	const query = `
SELECT chunk_id, document_id, user_id, chunk_index, total_chunks, content, embedding,
       1 - (embedding <=> $2) AS score
FROM document_chunks
WHERE user_id = $1
ORDER BY embedding <=> $2
LIMIT $3`

	vec := pgvector.NewVector(embedding)
	rows, err := s.DB.QueryContext(ctx, query, userID, vec, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []vectorstore.Match
	for rows.Next() {
		var m vectorstore.Match
		var emb pgvector.Vector
		if err := rows.Scan(
			&m.ChunkID, &m.DocumentID, &m.UserID, &m.ChunkIndex, &m.TotalChunks, &m.Content, &emb, &m.Score,
		); err != nil {
			return nil, err
		}
		m.Embedding = emb.Slice()
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListDocumentIDs returns the distinct document IDs indexed for a user.
func (s *Store) ListDocumentIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT DISTINCT document_id FROM document_chunks WHERE user_id = $1 ORDER BY document_id`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

var _ vectorstore.Store = (*Store)(nil)
