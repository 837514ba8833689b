package logger

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// MetricsHandler exposes the default logger's health as either
// Prometheus text exposition format (the default) or JSON, selected by the
// request's Accept header. cmd/server mounts it on its admin port.
func MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if defaultLogger == nil {
			http.Error(w, "logger not initialized", http.StatusInternalServerError)
			return
		}

		snap := defaultLogger.metrics.snapshot()

		if r.Header.Get("Accept") == "application/json" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(snap)
			return
		}

		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeCounter := func(name, help string, value uint64) {
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, help, name, name, value)
		}
		writeGauge := func(name, help string, value int64) {
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n", name, help, name, name, value)
		}

		writeCounter("docindex_log_info_total", "Total INFO log lines", snap.InfoCount)
		writeCounter("docindex_log_warn_total", "Total WARN log lines", snap.WarnCount)
		writeCounter("docindex_log_error_total", "Total ERROR log lines", snap.ErrorCount)
		writeCounter("docindex_log_total", "Total log lines processed", snap.TotalLogs)
		writeCounter("docindex_log_dropped_total", "Total log lines dropped due to a full queue", snap.DroppedLogs)
		writeGauge("docindex_log_queue_length", "Current depth of the async log queue", snap.QueueLength)
		writeGauge("docindex_log_last_flush_latency_microseconds", "Latency of the most recent batch flush", snap.LastFlushLatency)
		writeGauge("docindex_log_avg_flush_latency_microseconds", "Moving average batch flush latency", snap.AvgFlushLatency)
		writeCounter("docindex_log_batch_total", "Total batches flushed", snap.BatchCount)
		writeGauge("docindex_log_avg_batch_size", "Moving average batch size", snap.AvgBatchSize)
	}
}
