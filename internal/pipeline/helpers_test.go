package pipeline

import (
	"context"
	"testing"

	"docproc-backend/internal/users"
)

func newUserRepoWith(t *testing.T, userIDs ...string) users.Repo {
	t.Helper()
	repo := users.NewMemoryRepo()
	for _, id := range userIDs {
		if err := repo.EnsureExists(context.Background(), id); err != nil {
			t.Fatalf("ensure user %s: %v", id, err)
		}
	}
	return repo
}
