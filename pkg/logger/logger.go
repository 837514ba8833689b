package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Logger is a leveled, asynchronous, batching log sink. A single
// processLogs goroutine drains a bounded channel, accumulates entries into
// batches, and flushes each batch to the rotating file (and, optionally,
// to Kafka) so that neither a slow disk nor a slow broker ever blocks the
// dispatcher or worker goroutine that produced the log line.
type Logger struct {
	cfg atomic.Value // Config

	queue chan logEntry
	file  *rotatingFile
	kafka *kafkaSink

	consoleOut io.Writer
	metrics    metrics

	batch   []logEntry
	batchMu sync.Mutex

	flushTicker *time.Ticker
	done        chan struct{}
	closed      atomic.Bool
	wg          sync.WaitGroup
}

var (
	defaultLogger *Logger
	initOnce      sync.Once
)

// New builds a Logger from cfg, applying defaults for any zero-valued
// tuning knob, and starts its background batching and flush goroutines.
func New(cfg Config) (*Logger, error) {
	if cfg.AsyncBufferSize <= 0 {
		cfg.AsyncBufferSize = 1000
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 100 * 1024 * 1024
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 15
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 100
	}

	file, err := newRotatingFile(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	l := &Logger{
		queue:       make(chan logEntry, cfg.AsyncBufferSize),
		file:        file,
		kafka:       newKafkaSink(cfg),
		consoleOut:  os.Stdout,
		batch:       make([]logEntry, 0, cfg.BatchSize),
		flushTicker: time.NewTicker(time.Duration(cfg.FlushInterval) * time.Millisecond),
		done:        make(chan struct{}),
	}
	l.cfg.Store(cfg)

	l.wg.Add(2)
	go l.processLogs()
	go l.periodicFlush()

	return l, nil
}

// GetDefault returns the process-wide Logger set up by Initialize.
func GetDefault() *Logger {
	return defaultLogger
}

// Initialize builds the process-wide default Logger exactly once; later
// calls are no-ops. cmd/server, cmd/client and cmd/benchmark all call this
// during startup.
func Initialize(cfg Config) error {
	var err error
	initOnce.Do(func() {
		defaultLogger, err = New(cfg)
	})
	return err
}

func (l *Logger) periodicFlush() {
	defer l.wg.Done()
	for {
		select {
		case <-l.flushTicker.C:
			l.flush()
		case <-l.done:
			return
		}
	}
}

func (l *Logger) processLogs() {
	defer l.wg.Done()
	for e := range l.queue {
		l.metrics.incrementLevel(e.level)
		l.addToBatch(e)
	}
	l.flush()
}

func (l *Logger) addToBatch(e logEntry) {
	l.batchMu.Lock()
	defer l.batchMu.Unlock()

	l.batch = append(l.batch, e)
	if len(l.batch) >= l.cfg.Load().(Config).BatchSize {
		l.flushLocked()
	}
}

func (l *Logger) flush() {
	l.batchMu.Lock()
	defer l.batchMu.Unlock()
	l.flushLocked()
}

func (l *Logger) flushLocked() {
	if len(l.batch) == 0 {
		return
	}

	start := time.Now()
	size := len(l.batch)
	for _, e := range l.batch {
		l.writeEntry(e)
	}
	l.batch = l.batch[:0]

	l.metrics.recordFlush(time.Since(start).Microseconds(), size)
}

func (l *Logger) writeEntry(e logEntry) {
	cfg := l.cfg.Load().(Config)

	msg := formatEntry(e, false)
	l.file.Write([]byte(msg))

	if cfg.ConsoleOutput {
		if cfg.ConsoleColor {
			fmt.Fprint(l.consoleOut, formatEntry(e, true))
		} else {
			fmt.Fprint(l.consoleOut, msg)
		}
	}

	if l.kafka != nil {
		go l.kafka.write(e)
	}
}

func formatEntry(e logEntry, color bool) string {
	timestamp := e.time.Format("2006-01-02 15:04:05.000")

	var msg string
	if color {
		msg = fmt.Sprintf("%s %s[%s]%s [%d]", timestamp, e.level.Color(), e.level, ColorReset, e.goroutine)
	} else {
		msg = fmt.Sprintf("%s [%s] [%d]", timestamp, e.level, e.goroutine)
	}

	if e.traceID != "" {
		if color {
			msg += fmt.Sprintf(" [\033[1m%s\033[0m]", e.traceID)
		} else {
			msg += fmt.Sprintf(" [%s]", e.traceID)
		}
	}

	msg += fmt.Sprintf(" [%s.%s:%d] - %s", e.sourceFile, e.sourceFunc, e.line, e.message)

	if len(e.fields) > 0 {
		if color {
			msg += fmt.Sprintf(" \033[90m%v\033[0m", e.fields)
		} else {
			msg += fmt.Sprintf(" %v", e.fields)
		}
	}

	return msg + "\n"
}

// logWithContext builds a logEntry and enqueues it, dropping the entry
// (and counting it in metrics) if the async queue is saturated rather than
// blocking the caller.
func (l *Logger) logWithContext(ctx context.Context, level Level, msg string, fields map[string]interface{}) {
	if l.closed.Load() {
		return
	}

	cfg := l.cfg.Load().(Config)
	if level < cfg.Level {
		return
	}

	file, fn, line := callerInfo(4)

	e := logEntry{
		time:       time.Now(),
		level:      level,
		goroutine:  goroutineID(),
		traceID:    GetTraceID(ctx),
		sourceFile: file,
		sourceFunc: fn,
		line:       line,
		message:    msg,
		fields:     fields,
	}

	select {
	case l.queue <- e:
		l.metrics.updateQueueLength(len(l.queue))
	default:
		l.metrics.incrementDropped()
		fmt.Fprintf(os.Stderr, "[logger] queue full, dropping %s: %s\n", level, msg)
	}
}

// Public API

func (l *Logger) Info(format string, args ...interface{}) {
	l.logWithContext(context.Background(), INFO, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.logWithContext(context.Background(), WARN, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.logWithContext(context.Background(), ERROR, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) InfoWithFields(ctx context.Context, fields map[string]interface{}, format string, args ...interface{}) {
	l.logWithContext(ctx, INFO, fmt.Sprintf(format, args...), fields)
}

func (l *Logger) WarnWithFields(ctx context.Context, fields map[string]interface{}, format string, args ...interface{}) {
	l.logWithContext(ctx, WARN, fmt.Sprintf(format, args...), fields)
}

func (l *Logger) ErrorWithFields(ctx context.Context, fields map[string]interface{}, format string, args ...interface{}) {
	l.logWithContext(ctx, ERROR, fmt.Sprintf(format, args...), fields)
}

// GetMetrics returns a point-in-time snapshot of this logger's own health.
func (l *Logger) GetMetrics() snapshot {
	return l.metrics.snapshot()
}

// Close drains and flushes any pending entries, then shuts down the file
// and Kafka sinks. Safe to call more than once.
func (l *Logger) Close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}

	l.flushTicker.Stop()
	close(l.done)
	close(l.queue)
	l.wg.Wait()

	l.file.Close()
	l.kafka.Close()
}

// Global helpers bound to the process-wide default logger.

func Info(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Info(format, args...)
	}
}

func Warn(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Warn(format, args...)
	}
}

func Error(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Error(format, args...)
	}
}

func InfoWithFields(ctx context.Context, fields map[string]interface{}, format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.InfoWithFields(ctx, fields, format, args...)
	}
}

func WarnWithFields(ctx context.Context, fields map[string]interface{}, format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.WarnWithFields(ctx, fields, format, args...)
	}
}

func ErrorWithFields(ctx context.Context, fields map[string]interface{}, format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.ErrorWithFields(ctx, fields, format, args...)
	}
}
