package documents

import (
	"time"

	"docproc-backend/internal/jobs"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID     string         `json:"documentId"`
	FileName       string         `json:"fileName"`
	FileType       string         `json:"fileType"`
	SizeBytes      int64          `json:"sizeBytes"`
	DocumentType   string         `json:"documentType,omitempty"`
	Confidence     *float64       `json:"confidence,omitempty"`
	KeyInformation map[string]any `json:"keyInformation,omitempty"`
	AnalysisMethod string         `json:"analysisMethod,omitempty"`
	ModelUsed      string         `json:"modelUsed,omitempty"`
	UploadedAt     time.Time      `json:"uploadedAt"`
}

// StatusResponse reports the latest processing job for a document.
type StatusResponse struct {
	JobID       string     `json:"jobId"`
	DocumentID  string     `json:"documentId"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:     doc.ID,
		FileName:       doc.FileName,
		FileType:       string(doc.FileType),
		SizeBytes:      doc.FileSize,
		DocumentType:   doc.DocumentType,
		Confidence:     doc.Confidence,
		KeyInformation: doc.KeyInformation,
		AnalysisMethod: doc.AnalysisMethod,
		ModelUsed:      doc.ModelUsed,
		UploadedAt:     doc.CreatedAt,
	}
}

func toStatusResponse(job jobs.Job) StatusResponse {
	return StatusResponse{
		JobID:       job.ID,
		DocumentID:  job.DocumentID,
		Status:      string(job.Status),
		Error:       job.Error,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		CreatedAt:   job.CreatedAt,
	}
}
