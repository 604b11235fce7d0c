// Package localdisk keeps document chunks in memory backed by a JSON file,
// so the index survives restarts without any external service.
package localdisk

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"docproc-backend/internal/vectorstore"
)

// Store implements vectorstore.Store with an on-disk JSON snapshot. The
// snapshot is rewritten after every mutation.
type Store struct {
	mu   sync.RWMutex
	path string
	data map[string][]vectorstore.Chunk // userID -> chunks
}

// New loads or creates a store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vector dir: %w", err)
	}
	s := &Store{
		path: filepath.Join(dir, "chunks.json"),
		data: make(map[string][]vectorstore.Chunk),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read vector snapshot: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return fmt.Errorf("parse vector snapshot: %w", err)
	}
	return nil
}

// persist writes the snapshot via a temp file rename so a crash mid-write
// cannot corrupt the index. Caller must hold the write lock.
func (s *Store) persist() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) AddChunks(ctx context.Context, chunks []vectorstore.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range chunks {
		s.data[ch.UserID] = append(s.data[ch.UserID], ch)
	}
	return s.persist()
}

func (s *Store) DeleteDocument(ctx context.Context, documentID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := s.data[userID]
	kept := chunks[:0]
	removed := false
	for _, ch := range chunks {
		if ch.DocumentID == documentID {
			removed = true
			continue
		}
		kept = append(kept, ch)
	}
	if !removed {
		return nil
	}
	if len(kept) == 0 {
		delete(s.data, userID)
	} else {
		s.data[userID] = kept
	}
	return s.persist()
}

func (s *Store) Search(ctx context.Context, userID string, embedding []float32, k int) ([]vectorstore.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 4
	}

	s.mu.RLock()
	chunks := s.data[userID]
	matches := make([]vectorstore.Match, 0, len(chunks))
	for _, ch := range chunks {
		matches = append(matches, vectorstore.Match{
			Chunk: ch,
			Score: vectorstore.CosineSimilarity(embedding, ch.Embedding),
		})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *Store) ListDocumentIDs(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, ch := range s.data[userID] {
		if !seen[ch.DocumentID] {
			seen[ch.DocumentID] = true
			out = append(out, ch.DocumentID)
		}
	}
	sort.Strings(out)
	return out, nil
}

var _ vectorstore.Store = (*Store)(nil)
