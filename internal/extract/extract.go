package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"docproc-backend/internal/documents"
	"docproc-backend/internal/shared/metrics"
	"docproc-backend/internal/shared/telemetry"
)

// minTextLen is the minimum number of non-space characters an attempt must
// produce to count as a successful extraction.
const minTextLen = 5

// Method is a single extraction strategy tried against a file on disk.
type Method struct {
	Name string
	Run  func(ctx context.Context, filePath string) (string, error)
}

// Result reports the outcome of running an extraction chain. Text always
// holds something to store: extracted content on success, a placeholder
// describing the failure otherwise.
type Result struct {
	Text   string
	Method string
	Ok     bool
}

// Extractor extracts text from uploaded files. Method chains are ordered
// and injectable so callers can substitute strategies in tests.
type Extractor struct {
	PDFMethods   []Method
	ImageMethods []Method
}

// New returns an Extractor with the default method chains.
func New() *Extractor {
	return &Extractor{
		PDFMethods: []Method{
			{Name: "pdf_ocr", Run: pdfOCR},
			{Name: "pdf_text", Run: pdfTextLayer},
			{Name: "pdf_convert", Run: pdfConvert},
		},
		ImageMethods: []Method{
			{Name: "ocr", Run: imageOCR},
		},
	}
}

// Extract pulls text from a file according to its type. It never returns an
// error: failures produce a Result with Ok=false and a placeholder message,
// which the pipeline stores and classifies like any other text.
func (e *Extractor) Extract(ctx context.Context, filePath string, fileType documents.FileType) Result {
	switch {
	case fileType == documents.FileTypePDF:
		return e.runChain(ctx, filePath, e.PDFMethods, "Error processing PDF")
	case fileType.IsImage():
		return e.runChain(ctx, filePath, e.ImageMethods, "OCR failed to extract text")
	case fileType == documents.FileTypeTXT:
		return extractPlainText(filePath)
	default:
		return Result{
			Text:   fmt.Sprintf("Unsupported file type: %s", fileType),
			Method: "unsupported",
		}
	}
}

// runChain tries each method in order and returns the first acceptable
// result. When every method fails, the placeholder text carries each
// attempt's error so the failure survives in the stored document.
func (e *Extractor) runChain(ctx context.Context, filePath string, methods []Method, failurePrefix string) Result {
	var attemptErrs []string
	for i, m := range methods {
		if err := ctx.Err(); err != nil {
			attemptErrs = append(attemptErrs, fmt.Sprintf("%s: %v", m.Name, err))
			break
		}

		text, err := m.Run(ctx, filePath)
		if err == nil && acceptable(text) {
			return Result{Text: strings.TrimSpace(text), Method: m.Name, Ok: true}
		}

		if err == nil {
			err = fmt.Errorf("extracted text too short (%d chars)", len(strings.TrimSpace(text)))
		}
		attemptErrs = append(attemptErrs, fmt.Sprintf("%s: %v", m.Name, err))

		if i < len(methods)-1 {
			metrics.IncExtractionFallback()
			telemetry.Warn("extract.fallback", map[string]any{
				"file_path": filePath,
				"method":    m.Name,
				"error":     err.Error(),
			})
		}
	}

	return Result{
		Text:   fmt.Sprintf("%s: %s", failurePrefix, strings.Join(attemptErrs, "; ")),
		Method: "failed",
	}
}

func extractPlainText(filePath string) Result {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Result{
			Text:   fmt.Sprintf("Error reading text file: %v", err),
			Method: "failed",
		}
	}
	text := strings.TrimSpace(string(data))
	if !acceptable(text) {
		return Result{
			Text:   fmt.Sprintf("Error reading text file: extracted text too short (%d chars)", len(text)),
			Method: "failed",
		}
	}
	return Result{Text: text, Method: "plain_text", Ok: true}
}

func acceptable(text string) bool {
	return len(strings.TrimSpace(text)) >= minTextLen
}
