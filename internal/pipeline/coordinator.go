// Package pipeline coordinates document processing: extraction,
// classification, and vector indexing, tracked through a processing job.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docproc-backend/internal/documents"
	"docproc-backend/internal/engine"
	"docproc-backend/internal/extract"
	"docproc-backend/internal/jobs"
	"docproc-backend/internal/shared/metrics"
	"docproc-backend/internal/shared/telemetry"
	"docproc-backend/internal/users"
)

// minClassifyChars is the extracted text length that must be exceeded
// before classifying or indexing. Shorter text is recorded as-is and left
// out of the index.
const minClassifyChars = 5

// Coordinator runs the processing pipeline for uploaded documents.
type Coordinator struct {
	Docs      documents.Repo
	Jobs      jobs.Repo
	Users     *users.Service
	Extractor *extract.Extractor
	Router    *engine.Router
}

// Process runs the full pipeline for one document. It is the unit of work a
// queue consumer executes, so it returns an error only for retryable
// infrastructure failures; domain-level failures land in the job record.
func (c *Coordinator) Process(ctx context.Context, documentID, userID string) (err error) {
	start := time.Now()
	metrics.IncDocumentStarted()

	// Document lookup happens before any job mutation so a message for a
	// deleted or unknown document leaves the job record untouched.
	doc, getErr := c.Docs.GetByID(ctx, userID, documentID)
	if getErr != nil {
		metrics.IncDocumentFailed()
		return fmt.Errorf("load document %s: %w", documentID, getErr)
	}

	job, jobErr := c.claimJob(ctx, documentID, userID)
	if jobErr != nil {
		metrics.IncDocumentFailed()
		return jobErr
	}

	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("pipeline.panic", map[string]any{
				"document_id": documentID,
				"user_id":     userID,
				"job_id":      job.ID,
				"panic":       fmt.Sprint(rec),
			})
			c.failJob(ctx, job.ID, fmt.Errorf("panic: %v", rec))
			metrics.IncDocumentFailed()
			err = nil
		}
	}()

	result := c.Extractor.Extract(ctx, doc.FilePath, doc.FileType)
	if updErr := c.Docs.UpdateExtractedText(ctx, userID, documentID, result.Text); updErr != nil {
		c.failJob(ctx, job.ID, fmt.Errorf("store extracted text: %w", updErr))
		metrics.IncDocumentFailed()
		return nil
	}

	analysis := c.analyze(ctx, doc, result)
	if updErr := c.Docs.UpdateAnalysis(ctx, userID, documentID, analysis); updErr != nil {
		c.failJob(ctx, job.ID, fmt.Errorf("store analysis: %w", updErr))
		metrics.IncDocumentFailed()
		return nil
	}

	// Recomputed as a count rather than incremented so a missed or
	// replayed message cannot drift the counter.
	c.syncDocumentCount(ctx, userID)

	if trErr := c.Jobs.UpdateStatus(ctx, job.ID, jobs.StatusCompleted, ""); trErr != nil {
		telemetry.Error("pipeline.complete_transition_failed", map[string]any{
			"job_id": job.ID,
			"error":  trErr.Error(),
		})
	}

	elapsed := time.Since(start)
	metrics.IncDocumentCompleted()
	metrics.ObserveProcessingDurationMs(float64(elapsed.Microseconds()) / 1000.0)
	telemetry.Info("pipeline.completed", map[string]any{
		"document_id":    documentID,
		"user_id":        userID,
		"job_id":         job.ID,
		"document_type":  analysis.DocumentType,
		"extract_method": result.Method,
		"extract_ok":     result.Ok,
		"duration_ms":    float64(elapsed.Microseconds()) / 1000.0,
	})
	return nil
}

// claimJob moves the document's latest job to processing, creating one if
// the upload path did not.
func (c *Coordinator) claimJob(ctx context.Context, documentID, userID string) (jobs.Job, error) {
	job, err := c.Jobs.GetLatestByDocument(ctx, userID, documentID)
	if err != nil {
		if err != jobs.ErrNotFound {
			return jobs.Job{}, fmt.Errorf("load job: %w", err)
		}
		job = jobs.Job{
			ID:         uuid.NewString(),
			UserID:     userID,
			DocumentID: documentID,
			Status:     jobs.StatusPending,
			CreatedAt:  time.Now().UTC(),
		}
		if err := c.Jobs.Create(ctx, job); err != nil {
			return jobs.Job{}, fmt.Errorf("create job: %w", err)
		}
	}

	if err := c.Jobs.UpdateStatus(ctx, job.ID, jobs.StatusProcessing, ""); err != nil {
		return jobs.Job{}, fmt.Errorf("claim job %s: %w", job.ID, err)
	}
	return job, nil
}

// analyze classifies the extracted text and indexes it into the active
// engine's vector store. Indexing outcome is recorded in key information so
// the document shows whether it is searchable.
func (c *Coordinator) analyze(ctx context.Context, doc documents.Document, result extract.Result) documents.Analysis {
	trimmed := strings.TrimSpace(result.Text)
	if !result.Ok || len(trimmed) <= minClassifyChars {
		return documents.Analysis{
			DocumentType:   string(engine.TypeUnknown),
			Confidence:     0,
			AnalysisMethod: "insufficient_text",
			KeyInformation: map[string]any{
				"vector_stored":  false,
				"extract_method": result.Method,
			},
		}
	}

	classification := c.Router.Classify(ctx, trimmed)

	keyInfo := classification.KeyInformation
	if keyInfo == nil {
		keyInfo = make(map[string]any)
	}
	keyInfo["vector_stored"] = false
	keyInfo["extract_method"] = result.Method
	if classification.FallbackReason != "" {
		keyInfo["fallback_reason"] = classification.FallbackReason
	}

	if eng, err := c.Router.Active(ctx); err == nil {
		indexErr := eng.AddDocument(ctx, engine.IndexRequest{
			DocumentID:   doc.ID,
			UserID:       doc.UserID,
			Text:         trimmed,
			FileName:     doc.FileName,
			DocumentType: classification.DocumentType,
		})
		if indexErr != nil {
			telemetry.Warn("pipeline.index_failed", map[string]any{
				"document_id": doc.ID,
				"user_id":     doc.UserID,
				"engine":      eng.Name(),
				"error":       indexErr.Error(),
			})
		} else {
			keyInfo["vector_stored"] = true
			keyInfo["vector_engine"] = eng.Name()
		}
	}

	return documents.Analysis{
		DocumentType:   classification.DocumentType,
		Confidence:     classification.Confidence,
		KeyInformation: keyInfo,
		AnalysisMethod: classification.AnalysisMethod,
		ModelUsed:      classification.ModelUsed,
	}
}

func (c *Coordinator) syncDocumentCount(ctx context.Context, userID string) {
	if c.Users == nil {
		return
	}
	count, err := c.Docs.CountByUser(ctx, userID)
	if err != nil {
		telemetry.Warn("pipeline.count_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}
	if err := c.Users.SyncDocumentCount(ctx, userID, count); err != nil {
		telemetry.Warn("pipeline.count_sync_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func (c *Coordinator) failJob(ctx context.Context, jobID string, cause error) {
	msg := sanitizeError(cause)
	if err := c.Jobs.UpdateStatus(ctx, jobID, jobs.StatusFailed, msg); err != nil {
		telemetry.Error("pipeline.fail_transition_failed", map[string]any{
			"job_id": jobID,
			"cause":  msg,
			"error":  err.Error(),
		})
	}
	telemetry.Error("pipeline.failed", map[string]any{
		"job_id": jobID,
		"error":  msg,
	})
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
