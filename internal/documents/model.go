package documents

import "time"

// Document represents an uploaded document owned by a user, together with
// the extraction and classification results attached during processing.
type Document struct {
	ID             string
	UserID         string
	FileName       string
	FileSize       int64
	FilePath       string
	FileType       FileType
	ExtractedText  string
	DocumentType   string
	Confidence     *float64
	KeyInformation map[string]any
	AnalysisMethod string
	ModelUsed      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Analysis carries the classification outcome written back to a document.
type Analysis struct {
	DocumentType   string
	Confidence     float64
	KeyInformation map[string]any
	AnalysisMethod string
	ModelUsed      string
}
