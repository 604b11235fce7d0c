package jobs

import (
	"context"
	"testing"
	"time"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to processing", StatusPending, StatusProcessing, true},
		{"pending to completed", StatusPending, StatusCompleted, true},
		{"pending to failed", StatusPending, StatusFailed, true},
		{"processing to completed", StatusProcessing, StatusCompleted, true},
		{"processing to failed", StatusProcessing, StatusFailed, true},
		{"processing to pending", StatusProcessing, StatusPending, false},
		{"completed to processing", StatusCompleted, StatusProcessing, false},
		{"completed to failed", StatusCompleted, StatusFailed, false},
		{"failed to processing", StatusFailed, StatusProcessing, false},
		{"failed to completed", StatusFailed, StatusCompleted, false},
		{"pending to pending", StatusPending, StatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
				t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestMemoryRepoStatusGuard(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	job := Job{
		ID:         "job-1",
		UserID:     "user-1",
		DocumentID: "doc-1",
		CreatedAt:  time.Now().UTC(),
	}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.UpdateStatus(ctx, "job-1", StatusProcessing, ""); err != nil {
		t.Fatalf("pending->processing: %v", err)
	}
	if err := repo.UpdateStatus(ctx, "job-1", StatusFailed, "boom"); err != nil {
		t.Fatalf("processing->failed: %v", err)
	}

	if err := repo.UpdateStatus(ctx, "job-1", StatusProcessing, ""); err != ErrInvalidTransition {
		t.Fatalf("failed->processing: got %v, want ErrInvalidTransition", err)
	}

	got, err := repo.GetByID(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.Error != "boom" {
		t.Fatalf("error = %q, want boom", got.Error)
	}
	if got.StartedAt == nil || got.CompletedAt == nil {
		t.Fatal("expected started_at and completed_at to be set")
	}
}

func TestMemoryRepoLatestByDocument(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	base := time.Now().UTC()
	for i, id := range []string{"job-a", "job-b", "job-c"} {
		job := Job{
			ID:         id,
			UserID:     "user-1",
			DocumentID: "doc-1",
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(ctx, job); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	got, err := repo.GetLatestByDocument(ctx, "user-1", "doc-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ID != "job-c" {
		t.Fatalf("latest job = %s, want job-c", got.ID)
	}

	if _, err := repo.GetLatestByDocument(ctx, "user-2", "doc-1"); err != ErrNotFound {
		t.Fatalf("other user: got %v, want ErrNotFound", err)
	}
}
