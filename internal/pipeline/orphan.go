package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"docproc-backend/internal/engine"
	"docproc-backend/internal/shared/telemetry"
	"docproc-backend/internal/users"
)

// orphanWorkers bounds concurrent per-user sweeps.
const orphanWorkers = 4

// OrphanReport summarizes a cleanup run.
type OrphanReport struct {
	UsersScanned   int      `json:"usersScanned"`
	OrphansRemoved int      `json:"orphansRemoved"`
	RemovedIDs     []string `json:"removedIds,omitempty"`
}

// CleanupOrphans removes vector index entries whose document row no longer
// exists, across every available engine's store. Documents can orphan when
// a delete succeeds in the database but the vector removal fails, or when
// the active engine changed between indexing and deletion.
func (c *Coordinator) CleanupOrphans(ctx context.Context, userRepo users.Repo) (OrphanReport, error) {
	userIDs, err := userRepo.ListIDs(ctx)
	if err != nil {
		return OrphanReport{}, err
	}

	engines := c.Router.AvailableEngines(ctx)
	if len(engines) == 0 {
		return OrphanReport{}, engine.ErrUnavailable
	}

	var mu sync.Mutex
	report := OrphanReport{UsersScanned: len(userIDs)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(orphanWorkers)
	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			known, err := c.Docs.ListIDsByUser(gctx, userID)
			if err != nil {
				return err
			}
			knownSet := make(map[string]bool, len(known))
			for _, id := range known {
				knownSet[id] = true
			}

			for _, eng := range engines {
				indexed, err := eng.ListDocuments(gctx, userID)
				if err != nil {
					return err
				}

				for _, docID := range indexed {
					if knownSet[docID] {
						continue
					}
					if err := eng.RemoveDocument(gctx, docID, userID); err != nil {
						telemetry.Warn("orphan.remove_failed", map[string]any{
							"document_id": docID,
							"user_id":     userID,
							"engine":      eng.Name(),
							"error":       err.Error(),
						})
						continue
					}
					mu.Lock()
					report.OrphansRemoved++
					report.RemovedIDs = append(report.RemovedIDs, docID)
					mu.Unlock()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	telemetry.Info("orphan.cleanup_complete", map[string]any{
		"users_scanned":   report.UsersScanned,
		"orphans_removed": report.OrphansRemoved,
	})
	return report, nil
}
