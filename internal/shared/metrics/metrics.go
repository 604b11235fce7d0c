package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	jobsReceivedTotal   atomic.Uint64
	jobsCompletedTotal  atomic.Uint64
	jobsFailedTotal     atomic.Uint64
	jobsDeletedTotal    atomic.Uint64
	documentsStarted    atomic.Uint64
	documentsCompleted  atomic.Uint64
	documentsFailed     atomic.Uint64
	extractionFallbacks atomic.Uint64
	engineFallbacks     atomic.Uint64

	processingDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncJobsReceived increments the queue messages received counter.
func IncJobsReceived() {
	jobsReceivedTotal.Add(1)
}

// IncJobsCompleted increments the counter of messages fully processed.
func IncJobsCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncJobsFailed increments the counter of messages whose processing failed.
func IncJobsFailed() {
	jobsFailedTotal.Add(1)
}

// IncJobsDeletedUnrecoverable counts malformed messages dropped from the queue.
func IncJobsDeletedUnrecoverable() {
	jobsDeletedTotal.Add(1)
}

// IncDocumentStarted increments the started counter.
func IncDocumentStarted() {
	documentsStarted.Add(1)
}

// IncDocumentCompleted increments the completed counter.
func IncDocumentCompleted() {
	documentsCompleted.Add(1)
}

// IncDocumentFailed increments the failed counter.
func IncDocumentFailed() {
	documentsFailed.Add(1)
}

// IncExtractionFallback counts uses of a non-primary extraction method.
func IncExtractionFallback() {
	extractionFallbacks.Add(1)
}

// IncEngineFallback counts classification calls served by a non-active engine.
func IncEngineFallback() {
	engineFallbacks.Add(1)
}

// ObserveProcessingDurationMs records a pipeline duration in milliseconds.
func ObserveProcessingDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	processingDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "processing_jobs_received_total", "Total queue messages received", jobsReceivedTotal.Load())
	writeCounter(&buf, "processing_jobs_completed_total", "Total queue messages processed successfully", jobsCompletedTotal.Load())
	writeCounter(&buf, "processing_jobs_failed_total", "Total queue messages whose processing failed", jobsFailedTotal.Load())
	writeCounter(&buf, "processing_jobs_deleted_unrecoverable_total", "Total malformed queue messages dropped", jobsDeletedTotal.Load())
	writeCounter(&buf, "documents_processing_started_total", "Total document processing runs started", documentsStarted.Load())
	writeCounter(&buf, "documents_processing_completed_total", "Total document processing runs completed", documentsCompleted.Load())
	writeCounter(&buf, "documents_processing_failed_total", "Total document processing runs failed", documentsFailed.Load())
	writeCounter(&buf, "extraction_fallbacks_total", "Total extractions served by a fallback method", extractionFallbacks.Load())
	writeCounter(&buf, "engine_fallbacks_total", "Total classifications served by a fallback engine", engineFallbacks.Load())
	writeHistogram(&buf, "document_processing_duration_ms", "Document processing duration in milliseconds", processingDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
