package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

// kafkaSink mirrors log entries onto a Kafka topic. It exists for
// deployments where the index server's logs feed a central aggregator
// instead of (or alongside) the local rotating file; a nil *kafkaSink is
// always safe to use, so callers don't need a separate enabled check.
type kafkaSink struct {
	writer *kafka.Writer
	topic  string
}

func newKafkaSink(cfg Config) *kafkaSink {
	if !cfg.KafkaEnabled || len(cfg.KafkaBrokers) == 0 {
		return nil
	}

	topic := cfg.KafkaTopic
	if topic == "" {
		topic = "docindex-logs"
	}

	return &kafkaSink{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			Async:        true,
			RequiredAcks: kafka.RequireOne,
			Compression:  kafka.Snappy,
			MaxAttempts:  3,
		},
	}
}

// write ships one entry to Kafka with the trace id as the message key. The
// writer's LeastBytes balancer ignores keys, so lines from one connection
// are not pinned to a single partition. Called from its own
// goroutine by the Logger so a slow broker never stalls the batch flush.
func (k *kafkaSink) write(e logEntry) error {
	if k == nil {
		return nil
	}

	data, err := json.Marshal(map[string]interface{}{
		"timestamp": e.time.Format(time.RFC3339Nano),
		"level":     e.level.String(),
		"trace_id":  e.traceID,
		"file":      e.sourceFile,
		"function":  e.sourceFunc,
		"line":      e.line,
		"message":   e.message,
		"fields":    e.fields,
		"goroutine": e.goroutine,
	})
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.traceID),
		Value: data,
		Time:  e.time,
	})
}

func (k *kafkaSink) Close() error {
	if k == nil {
		return nil
	}
	return k.writer.Close()
}
