// Package observability exposes run counters in Prometheus text format.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational metrics for an extraction run.
type Metrics struct {
	// Page metrics
	PagesTotal    atomic.Int64
	PagesFailed   atomic.Int64
	PagesRetried  atomic.Int64
	BytesRead     atomic.Int64

	// Record metrics
	RecordsAssembled atomic.Int64
	RecordsDropped   atomic.Int64
	RecordsStored    atomic.Int64
	RecordsKept      atomic.Int64
	RecordsDiscarded atomic.Int64

	// Translation metrics
	Translations       atomic.Int64
	TranslationsFailed atomic.Int64

	// Worker metrics
	ActiveWorkers atomic.Int32

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"mercascan_pages_total", "Total pages processed", m.PagesTotal.Load()},
		{"mercascan_pages_failed_total", "Total pages that failed", m.PagesFailed.Load()},
		{"mercascan_pages_retried_total", "Total page retries", m.PagesRetried.Load()},
		{"mercascan_bytes_read_total", "Total markup bytes read", m.BytesRead.Load()},
		{"mercascan_records_assembled_total", "Total records assembled", m.RecordsAssembled.Load()},
		{"mercascan_records_dropped_total", "Total records dropped in the pipeline", m.RecordsDropped.Load()},
		{"mercascan_records_stored_total", "Total records stored", m.RecordsStored.Load()},
		{"mercascan_records_kept_total", "Total records judged keep", m.RecordsKept.Load()},
		{"mercascan_records_discarded_total", "Total records judged discard", m.RecordsDiscarded.Load()},
		{"mercascan_translations_total", "Total field translations", m.Translations.Load()},
		{"mercascan_translations_failed_total", "Total failed translations", m.TranslationsFailed.Load()},
		{"mercascan_active_workers", "Currently active workers", int64(m.ActiveWorkers.Load())},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_total":       m.PagesTotal.Load(),
		"pages_failed":      m.PagesFailed.Load(),
		"bytes_read":        m.BytesRead.Load(),
		"records_assembled": m.RecordsAssembled.Load(),
		"records_dropped":   m.RecordsDropped.Load(),
		"records_stored":    m.RecordsStored.Load(),
		"records_kept":      m.RecordsKept.Load(),
		"records_discarded": m.RecordsDiscarded.Load(),
		"translations":      m.Translations.Load(),
		"active_workers":    int64(m.ActiveWorkers.Load()),
	}
}
