package client

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mstor/docindex/pkg/logger"
	"github.com/mstor/docindex/pkg/tokenizer"
	"github.com/mstor/docindex/pkg/wire"
)

// IndexResult summarizes one IndexFolder run.
type IndexResult struct {
	TotalBytesRead int64
	ExecutionTime  time.Duration
}

// DefaultWorkerCount is the number of ingestion worker goroutines started
// by IndexFolder when the caller does not override it.
const DefaultWorkerCount = 6

// DefaultQueueSize bounds the in-flight file queue when the caller does not
// override it.
const DefaultQueueSize = 256

// IndexFolder walks root, tokenizes every regular file it finds, and ships
// each one to the server as an INDEX request across a fixed pool of worker
// goroutines, all sharing this Client's single connection. queueSize bounds
// how many walked paths may be buffered ahead of the workers; the walk
// never drops a path, but logs a warning when the queue is full and the
// producer must block.
func (c *Client) IndexFolder(clientID, root string, workerCount, queueSize int) (IndexResult, error) {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	start := time.Now()

	paths, err := walkFiles(root)
	if err != nil {
		return IndexResult{}, fmt.Errorf("walking %s: %w", root, err)
	}

	jobs := make(chan string, queueSize)
	var totalBytes int64
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.ingestWorker(clientID, jobs, &totalBytes)
		}()
	}

	go func() {
		for _, p := range paths {
			enqueue(jobs, p)
		}
		close(jobs)
	}()

	wg.Wait()

	return IndexResult{
		TotalBytesRead: atomic.LoadInt64(&totalBytes),
		ExecutionTime:  time.Since(start),
	}, nil
}

// enqueue tries a non-blocking send first and logs a warning before
// falling back to a blocking send, so a full queue slows the walk down
// rather than dropping a file.
func enqueue(jobs chan<- string, path string) {
	select {
	case jobs <- path:
		return
	default:
	}
	logger.WarnWithFields(context.Background(), map[string]interface{}{
		"path": path, "queue_size": cap(jobs),
	}, "ingestion queue full, blocking until a worker drains it")
	jobs <- path
}

func (c *Client) ingestWorker(clientID string, jobs <-chan string, totalBytes *int64) {
	for path := range jobs {
		data, err := os.ReadFile(path)
		if err != nil {
			fsErr := &FileSystemError{Op: "read", Path: path, Err: err}
			logger.WarnWithFields(context.Background(), map[string]interface{}{
				"path": path, "error": fsErr.Error(),
			}, "skipping unreadable file")
			continue
		}

		freqs := tokenizer.Tokenize(data)
		wordFreqs := make(map[string]int32, len(freqs))
		for term, n := range freqs {
			wordFreqs[term] = int32(n)
		}

		req := wire.IndexRequest{
			ClientID:        clientID,
			DocumentPath:    path,
			WordFrequencies: wordFreqs,
		}
		encoded, err := wire.EncodeIndexRequest(req)
		if err != nil {
			logger.WarnWithFields(context.Background(), map[string]interface{}{
				"path": path, "error": err.Error(),
			}, "failed to encode index request")
			continue
		}

		if _, err := c.exchange(encoded); err != nil {
			logger.WarnWithFields(context.Background(), map[string]interface{}{
				"path": path, "error": err.Error(),
			}, "index request failed, skipping file")
			continue
		}

		atomic.AddInt64(totalBytes, int64(len(data)))
	}
}
