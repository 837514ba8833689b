package logger

import "sync/atomic"

// metrics tracks the batching logger's own health so the admin metrics
// endpoint can tell an operator whether the logger is keeping up or
// quietly dropping lines under load.
type metrics struct {
	infoCount  atomic.Uint64
	warnCount  atomic.Uint64
	errorCount atomic.Uint64
	totalLogs  atomic.Uint64

	queueLength atomic.Int64
	droppedLogs atomic.Uint64

	lastFlushLatency atomic.Int64 // microseconds
	avgFlushLatency  atomic.Int64 // microseconds, exponential moving average

	batchCount   atomic.Uint64
	avgBatchSize atomic.Int64
}

func (m *metrics) incrementLevel(level Level) {
	switch level {
	case INFO:
		m.infoCount.Add(1)
	case WARN:
		m.warnCount.Add(1)
	case ERROR:
		m.errorCount.Add(1)
	}
	m.totalLogs.Add(1)
}

func (m *metrics) incrementDropped() {
	m.droppedLogs.Add(1)
}

func (m *metrics) updateQueueLength(n int) {
	m.queueLength.Store(int64(n))
}

func (m *metrics) recordFlush(microseconds int64, batchSize int) {
	m.lastFlushLatency.Store(microseconds)

	oldAvg := m.avgFlushLatency.Load()
	m.avgFlushLatency.Store((oldAvg*9 + microseconds) / 10)

	m.batchCount.Add(1)
	oldBatchAvg := m.avgBatchSize.Load()
	m.avgBatchSize.Store((oldBatchAvg*9 + int64(batchSize)) / 10)
}

// snapshot is the point-in-time view MetricsHandler serves.
type snapshot struct {
	InfoCount        uint64
	WarnCount        uint64
	ErrorCount       uint64
	TotalLogs        uint64
	DroppedLogs      uint64
	QueueLength      int64
	LastFlushLatency int64
	AvgFlushLatency  int64
	BatchCount       uint64
	AvgBatchSize     int64
}

func (m *metrics) snapshot() snapshot {
	return snapshot{
		InfoCount:        m.infoCount.Load(),
		WarnCount:        m.warnCount.Load(),
		ErrorCount:       m.errorCount.Load(),
		TotalLogs:        m.totalLogs.Load(),
		DroppedLogs:      m.droppedLogs.Load(),
		QueueLength:      m.queueLength.Load(),
		LastFlushLatency: m.lastFlushLatency.Load(),
		AvgFlushLatency:  m.avgFlushLatency.Load(),
		BatchCount:       m.batchCount.Load(),
		AvgBatchSize:     m.avgBatchSize.Load(),
	}
}
