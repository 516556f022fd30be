package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncMetrics provides observability for sync manager operations.
//
// This interface is optional - if not provided, a no-op implementation is
// used with zero overhead.
type SyncMetrics interface {
	// RecordPull records a completed per-file download with its outcome.
	// found is false when the server had nothing for the file.
	RecordPull(filename string, duration time.Duration, found bool, err error)

	// RecordUpload records a completed multipart upload of fileCount files.
	RecordUpload(fileCount int, duration time.Duration, err error)

	// RecordPermissionPrompt records a permission request shown to the user
	// and whether it was granted.
	RecordPermissionPrompt(granted bool)

	// SetSyncState updates the current manager state gauge.
	SetSyncState(state string)

	// RecordFilesWritten increments the counter of files written to local
	// storage via the active strategy.
	RecordFilesWritten(strategy string, count int)
}

// syncMetrics is the Prometheus implementation of SyncMetrics.
type syncMetrics struct {
	pullsTotal        *prometheus.CounterVec
	pullDuration      prometheus.Histogram
	uploadsTotal      *prometheus.CounterVec
	uploadDuration    prometheus.Histogram
	uploadFiles       prometheus.Histogram
	permissionPrompts *prometheus.CounterVec
	syncState         *prometheus.GaugeVec
	filesWritten      *prometheus.CounterVec
}

// NewSyncMetrics creates a new Prometheus-backed SyncMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewSyncMetrics() SyncMetrics {
	if !IsEnabled() {
		return NewNoopSyncMetrics()
	}

	reg := GetRegistry()

	return &syncMetrics{
		pullsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "studysync_pulls_total",
				Help: "Total number of per-file downloads by filename and outcome",
			},
			[]string{"filename", "outcome"},
		),
		pullDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "studysync_pull_duration_milliseconds",
				Help: "Duration of per-file downloads in milliseconds",
				Buckets: []float64{
					10,    // 10ms
					100,   // 100ms
					1000,  // 1s
					10000, // 10s
				},
			},
		),
		uploadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "studysync_uploads_total",
				Help: "Total number of multipart uploads by status",
			},
			[]string{"status"},
		),
		uploadDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "studysync_upload_duration_milliseconds",
				Help: "Duration of multipart uploads in milliseconds",
				Buckets: []float64{
					10,    // 10ms
					100,   // 100ms
					1000,  // 1s
					10000, // 10s
				},
			},
		),
		uploadFiles: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "studysync_upload_files",
				Help:    "Number of files per multipart upload",
				Buckets: []float64{0, 1, 2, 3, 5, 10},
			},
		),
		permissionPrompts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "studysync_permission_prompts_total",
				Help: "Total number of permission prompts shown by outcome",
			},
			[]string{"outcome"},
		),
		syncState: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "studysync_manager_state",
				Help: "Current sync manager state (1 for the active state, 0 otherwise)",
			},
			[]string{"state"},
		),
		filesWritten: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "studysync_files_written_total",
				Help: "Total number of files written to local storage by strategy",
			},
			[]string{"strategy"},
		),
	}
}

func (m *syncMetrics) RecordPull(filename string, duration time.Duration, found bool, err error) {
	outcome := "found"
	switch {
	case err != nil:
		outcome = "error"
	case !found:
		outcome = "absent"
	}
	m.pullsTotal.WithLabelValues(filename, outcome).Inc()
	m.pullDuration.Observe(float64(duration.Milliseconds()))
}

func (m *syncMetrics) RecordUpload(fileCount int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.uploadsTotal.WithLabelValues(status).Inc()
	m.uploadDuration.Observe(float64(duration.Milliseconds()))
	m.uploadFiles.Observe(float64(fileCount))
}

func (m *syncMetrics) RecordPermissionPrompt(granted bool) {
	outcome := "denied"
	if granted {
		outcome = "granted"
	}
	m.permissionPrompts.WithLabelValues(outcome).Inc()
}

func (m *syncMetrics) SetSyncState(state string) {
	for _, s := range []string{"uninitialized", "disconnected", "permission_needed", "online"} {
		value := 0.0
		if s == state {
			value = 1.0
		}
		m.syncState.WithLabelValues(s).Set(value)
	}
}

func (m *syncMetrics) RecordFilesWritten(strategy string, count int) {
	m.filesWritten.WithLabelValues(strategy).Add(float64(count))
}

// noopSyncMetrics is a SyncMetrics implementation that does nothing.
type noopSyncMetrics struct{}

// NewNoopSyncMetrics creates a SyncMetrics instance that discards all
// observations. Used when metrics collection is disabled.
func NewNoopSyncMetrics() SyncMetrics {
	return noopSyncMetrics{}
}

func (noopSyncMetrics) RecordPull(string, time.Duration, bool, error) {}
func (noopSyncMetrics) RecordUpload(int, time.Duration, error)        {}
func (noopSyncMetrics) RecordPermissionPrompt(bool)                   {}
func (noopSyncMetrics) SetSyncState(string)                           {}
func (noopSyncMetrics) RecordFilesWritten(string, int)                {}
