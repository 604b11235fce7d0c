package documents

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"docproc-backend/internal/jobs"
	"docproc-backend/internal/queue"
	"docproc-backend/internal/shared/storage/object"
	"docproc-backend/internal/shared/telemetry"
	"docproc-backend/internal/users"
)

// Processor runs the processing pipeline for a stored document. It is used
// as an inline fallback when no queue is configured.
type Processor interface {
	Process(ctx context.Context, documentID, userID string) error
}

// VectorRemover removes a document's chunks from every engine's vector
// store.
type VectorRemover interface {
	RemoveDocument(ctx context.Context, documentID, userID string) error
}

// Service contains business logic for documents.
type Service struct {
	Store     object.ObjectStore
	Repo      Repo
	Jobs      jobs.Repo
	Users     *users.Service
	Queue     queue.Client
	Processor Processor
	Vectors   VectorRemover
}

// Upload saves the file, records the document, and schedules processing.
func (s *Service) Upload(ctx context.Context, userID, fileName string, r io.Reader) (Document, jobs.Job, error) {
	if fileName == "" {
		return Document{}, jobs.Job{}, ErrInvalidInput
	}

	if s.Users != nil {
		if err := s.Users.Touch(ctx, userID); err != nil {
			return Document{}, jobs.Job{}, err
		}
	}

	filePath, size, _, err := s.Store.Save(ctx, userID, fileName, r)
	if err != nil {
		return Document{}, jobs.Job{}, err
	}

	now := time.Now().UTC()
	doc := Document{
		ID:        uuid.NewString(),
		UserID:    userID,
		FileName:  fileName,
		FileSize:  size,
		FilePath:  filePath,
		FileType:  FileTypeFromName(fileName),
		CreatedAt: now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, jobs.Job{}, err
	}

	job := jobs.Job{
		ID:         uuid.NewString(),
		UserID:     userID,
		DocumentID: doc.ID,
		Status:     jobs.StatusPending,
		CreatedAt:  now,
	}
	if err := s.Jobs.Create(ctx, job); err != nil {
		return Document{}, jobs.Job{}, err
	}

	s.syncDocumentCount(ctx, userID)
	s.dispatch(ctx, doc.ID, userID)

	return doc, job, nil
}

// dispatch hands the document to the queue, or processes inline when no
// queue is configured.
func (s *Service) dispatch(ctx context.Context, documentID, userID string) {
	if s.Queue != nil {
		msg := queue.Message{
			DocumentID: documentID,
			UserID:     userID,
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			telemetry.Error("queue.send_failed", map[string]any{
				"document_id": documentID,
				"user_id":     userID,
				"error":       err.Error(),
			})
		}
		return
	}

	if s.Processor != nil {
		go func() {
			procCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if err := s.Processor.Process(procCtx, documentID, userID); err != nil {
				telemetry.Error("inline.process_failed", map[string]any{
					"document_id": documentID,
					"user_id":     userID,
					"error":       err.Error(),
				})
			}
		}()
	}
}

// Get returns a document owned by a user.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if userID == "" || documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// List returns the user's documents, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Status returns the latest processing job for a document.
func (s *Service) Status(ctx context.Context, userID, documentID string) (jobs.Job, error) {
	if userID == "" || documentID == "" {
		return jobs.Job{}, ErrInvalidInput
	}
	if _, err := s.Repo.GetByID(ctx, userID, documentID); err != nil {
		return jobs.Job{}, err
	}
	return s.Jobs.GetLatestByDocument(ctx, userID, documentID)
}

// Delete removes a document's vectors, stored file, and database row.
// Vector and file removal failures are logged but do not block deletion.
func (s *Service) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return err
	}

	if s.Vectors != nil {
		if err := s.Vectors.RemoveDocument(ctx, documentID, userID); err != nil {
			telemetry.Warn("documents.vector_remove_failed", map[string]any{
				"document_id": documentID,
				"user_id":     userID,
				"error":       err.Error(),
			})
		}
	}

	if doc.FilePath != "" {
		if err := s.Store.Remove(ctx, doc.FilePath); err != nil {
			telemetry.Warn("documents.file_remove_failed", map[string]any{
				"document_id": documentID,
				"file_path":   doc.FilePath,
				"error":       err.Error(),
			})
		}
	}

	if err := s.Repo.Delete(ctx, userID, documentID); err != nil {
		return err
	}

	s.syncDocumentCount(ctx, userID)
	return nil
}

func (s *Service) syncDocumentCount(ctx context.Context, userID string) {
	if s.Users == nil {
		return
	}
	count, err := s.Repo.CountByUser(ctx, userID)
	if err != nil {
		telemetry.Warn("documents.count_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}
	if err := s.Users.SyncDocumentCount(ctx, userID, count); err != nil {
		telemetry.Warn("users.count_sync_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}
