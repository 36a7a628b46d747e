package server

import (
	"encoding/json"
	"net/http"
	"sync"
)

// Metrics holds in-process counters for the relay. Enough for a single
// instance behind curl; anything heavier belongs in the proxy in front.
type Metrics struct {
	mu sync.RWMutex

	uploadsTotal      int64
	uploadBytesTotal  int64
	uploadErrorsTotal int64

	downloadsTotal      int64
	downloadBytesTotal  int64
	downloadErrorsTotal int64

	sweepsTotal       int64
	sweepDeletedTotal int64

	requestsTotal    int64
	requestErrors4xx int64
	requestErrors5xx int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the global metrics instance.
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordUpload records a successful upload.
func (m *Metrics) RecordUpload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsTotal++
	m.uploadBytesTotal += bytes
}

// RecordUploadError records an upload failure.
func (m *Metrics) RecordUploadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErrorsTotal++
}

// RecordDownload records a successful download.
func (m *Metrics) RecordDownload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadsTotal++
	m.downloadBytesTotal += bytes
}

// RecordDownloadError records a download failure.
func (m *Metrics) RecordDownloadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadErrorsTotal++
}

// RecordSweep records one sweeper pass and how many records it removed.
func (m *Metrics) RecordSweep(deleted int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepsTotal++
	m.sweepDeletedTotal += int64(deleted)
}

// RecordRequest records an HTTP request by response class.
func (m *Metrics) RecordRequest(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++
	switch {
	case status >= 500:
		m.requestErrors5xx++
	case status >= 400:
		m.requestErrors4xx++
	}
}

// Snapshot returns a copy of all counters for serving.
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]int64{
		"uploads_total":         m.uploadsTotal,
		"upload_bytes_total":    m.uploadBytesTotal,
		"upload_errors_total":   m.uploadErrorsTotal,
		"downloads_total":       m.downloadsTotal,
		"download_bytes_total":  m.downloadBytesTotal,
		"download_errors_total": m.downloadErrorsTotal,
		"sweeps_total":          m.sweepsTotal,
		"sweep_deleted_total":   m.sweepDeletedTotal,
		"requests_total":        m.requestsTotal,
		"request_errors_4xx":    m.requestErrors4xx,
		"request_errors_5xx":    m.requestErrors5xx,
	}
}

// metricsHandler serves the counters as JSON at GET /metrics.
func metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(GetMetrics().Snapshot())
	}
}
