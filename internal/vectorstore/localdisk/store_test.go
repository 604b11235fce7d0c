package localdisk

import (
	"context"
	"testing"

	"docproc-backend/internal/vectorstore"
)

func chunk(docID, userID string, idx int, embedding []float32) vectorstore.Chunk {
	return vectorstore.Chunk{
		ChunkID:     docID + "_" + string(rune('0'+idx)),
		DocumentID:  docID,
		UserID:      userID,
		ChunkIndex:  idx,
		TotalChunks: 1,
		Content:     "content of " + docID,
		Embedding:   embedding,
	}
}

func TestStoreUserIsolation(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.AddChunks(ctx, []vectorstore.Chunk{
		chunk("doc-a", "alice", 0, []float32{1, 0}),
		chunk("doc-b", "bob", 0, []float32{1, 0}),
	}); err != nil {
		t.Fatalf("add chunks: %v", err)
	}

	matches, err := store.Search(ctx, "alice", []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("alice sees %d chunks, want 1", len(matches))
	}
	if matches[0].DocumentID != "doc-a" {
		t.Fatalf("alice sees %s, want doc-a", matches[0].DocumentID)
	}

	ids, err := store.ListDocumentIDs(ctx, "bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != "doc-b" {
		t.Fatalf("bob document IDs = %v, want [doc-b]", ids)
	}
}

func TestStoreDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.AddChunks(ctx, []vectorstore.Chunk{
		chunk("doc-a", "alice", 0, []float32{1, 0}),
	}); err != nil {
		t.Fatalf("add chunks: %v", err)
	}

	if err := store.DeleteDocument(ctx, "doc-a", "alice"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.DeleteDocument(ctx, "doc-a", "alice"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if err := store.DeleteDocument(ctx, "never-existed", "alice"); err != nil {
		t.Fatalf("delete absent document: %v", err)
	}

	ids, err := store.ListDocumentIDs(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("document IDs after delete = %v, want empty", ids)
	}
}

func TestStoreDeleteRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.AddChunks(ctx, []vectorstore.Chunk{
		chunk("doc-a", "alice", 0, []float32{1, 0}),
	}); err != nil {
		t.Fatalf("add chunks: %v", err)
	}

	// Bob deleting Alice's document is a no-op.
	if err := store.DeleteDocument(ctx, "doc-a", "bob"); err != nil {
		t.Fatalf("cross-user delete: %v", err)
	}

	ids, err := store.ListDocumentIDs(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("alice lost her document: %v", ids)
	}
}

func TestStoreSurvivesReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := New(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.AddChunks(ctx, []vectorstore.Chunk{
		chunk("doc-a", "alice", 0, []float32{0.5, 0.5}),
	}); err != nil {
		t.Fatalf("add chunks: %v", err)
	}

	reloaded, err := New(dir)
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	matches, err := reloaded.Search(ctx, "alice", []float32{0.5, 0.5}, 4)
	if err != nil {
		t.Fatalf("search after reload: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches after reload = %d, want 1", len(matches))
	}
	if matches[0].Content != "content of doc-a" {
		t.Fatalf("content = %q", matches[0].Content)
	}
}

func TestStoreSearchRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.AddChunks(ctx, []vectorstore.Chunk{
		chunk("doc-close", "alice", 0, []float32{1, 0.1}),
		chunk("doc-far", "alice", 0, []float32{0, 1}),
	}); err != nil {
		t.Fatalf("add chunks: %v", err)
	}

	matches, err := store.Search(ctx, "alice", []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].DocumentID != "doc-close" {
		t.Fatalf("top match = %s, want doc-close", matches[0].DocumentID)
	}
}
