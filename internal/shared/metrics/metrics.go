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
	pipelineStartedTotal   atomic.Uint64
	pipelineCompletedTotal atomic.Uint64
	pipelineFailedTotal    atomic.Uint64
	titleFallbackTotal     atomic.Uint64
	questionsAnsweredTotal atomic.Uint64
	audioDeletedTotal      atomic.Uint64
	sweepRunsTotal         atomic.Uint64
	sweepFailedTotal       atomic.Uint64
	recordingJobsReceived  atomic.Uint64
	recordingJobsDeleted   atomic.Uint64

	pipelineDuration = newHistogram([]float64{1000, 2500, 5000, 10000, 20000, 30000, 60000, 120000, 300000})
)

// IncPipelineStarted increments the started counter.
func IncPipelineStarted() {
	pipelineStartedTotal.Add(1)
}

// IncPipelineCompleted increments the completed counter.
func IncPipelineCompleted() {
	pipelineCompletedTotal.Add(1)
}

// IncPipelineFailed increments the failed counter.
func IncPipelineFailed() {
	pipelineFailedTotal.Add(1)
}

// IncTitleFallback counts titles that degraded to the fallback string.
func IncTitleFallback() {
	titleFallbackTotal.Add(1)
}

// IncQuestionsAnswered counts persisted Q&A pairs.
func IncQuestionsAnswered() {
	questionsAnsweredTotal.Add(1)
}

// AddAudioDeleted counts audio blobs removed from object storage.
func AddAudioDeleted(n int) {
	if n <= 0 {
		return
	}
	audioDeletedTotal.Add(uint64(n))
}

// IncSweepRun counts retention sweep cycles.
func IncSweepRun() {
	sweepRunsTotal.Add(1)
}

// IncSweepFailed counts retention sweep cycles that were skipped on error.
func IncSweepFailed() {
	sweepFailedTotal.Add(1)
}

// IncRecordingJobsReceived counts queue messages picked up by the worker.
func IncRecordingJobsReceived() {
	recordingJobsReceived.Add(1)
}

// IncRecordingJobsDeletedUnrecoverable counts queue messages dropped as unprocessable.
func IncRecordingJobsDeletedUnrecoverable() {
	recordingJobsDeleted.Add(1)
}

// ObservePipelineDurationMs records a pipeline duration in milliseconds.
func ObservePipelineDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	pipelineDuration.Observe(value)
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
	writeCounter(&buf, "pipeline_started_total", "Total recording pipelines started", pipelineStartedTotal.Load())
	writeCounter(&buf, "pipeline_completed_total", "Total recording pipelines persisted", pipelineCompletedTotal.Load())
	writeCounter(&buf, "pipeline_failed_total", "Total recording pipelines failed", pipelineFailedTotal.Load())
	writeCounter(&buf, "title_fallback_total", "Titles replaced by the fallback string", titleFallbackTotal.Load())
	writeCounter(&buf, "questions_answered_total", "Q&A pairs persisted", questionsAnsweredTotal.Load())
	writeCounter(&buf, "audio_deleted_total", "Audio blobs removed from object storage", audioDeletedTotal.Load())
	writeCounter(&buf, "retention_sweep_runs_total", "Retention sweep cycles", sweepRunsTotal.Load())
	writeCounter(&buf, "retention_sweep_failed_total", "Retention sweep cycles skipped on error", sweepFailedTotal.Load())
	writeCounter(&buf, "recording_jobs_received_total", "Recording jobs received by the worker", recordingJobsReceived.Load())
	writeCounter(&buf, "recording_jobs_deleted_unrecoverable_total", "Recording jobs dropped as unprocessable", recordingJobsDeleted.Load())
	writeHistogram(&buf, "pipeline_duration_ms", "Recording pipeline duration in milliseconds", pipelineDuration.Snapshot())
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
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
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
