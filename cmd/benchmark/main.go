// Command benchmark drives a running server with N parallel clients, each
// indexing its own dataset, then issues a fixed sequence of probe queries
// against the first client's connection and reports timings.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mstor/docindex/pkg/bench"
	"github.com/mstor/docindex/pkg/client"
	"github.com/mstor/docindex/pkg/config"
	"github.com/mstor/docindex/pkg/logger"
)

// probeQueries is the fixed sequence of probe searches issued after
// indexing completes. A query containing " AND " is split client-side into
// multiple conjunctive terms before being sent.
var probeQueries = []string{
	"the",
	"document",
	"index AND search",
}

func main() {
	record := flag.Bool("record", false, "persist this run's summary to the benchmark history store")
	dbPath := flag.String("db", "benchmark_history.db", "path to the benchmark history SQLite database, used with -record")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-record] [-db path] <server_ip> <server_port> <num_clients> <dataset1> [<dataset2> ...]\n", os.Args[0])
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 4 {
		flag.Usage()
		os.Exit(1)
	}

	serverIP := args[0]
	serverPort := args[1]
	numClients, err := strconv.Atoi(args[2])
	if err != nil || numClients <= 0 {
		fmt.Fprintf(os.Stderr, "invalid num_clients %q\n", args[2])
		os.Exit(1)
	}

	datasets := args[3:]
	if len(datasets) != numClients {
		fmt.Fprintln(os.Stderr, "error: number of client datasets does not match the number of clients")
		os.Exit(1)
	}

	cfg := config.Get()
	if err := logger.Initialize(cfg.GetLoggingConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.GetDefault().Close()

	addr := serverIP + ":" + serverPort

	clients := make([]*client.Client, numClients)
	connErrs := make([]error, numClients)
	var connWG sync.WaitGroup
	for i := range clients {
		connWG.Add(1)
		go func(i int) {
			defer connWG.Done()
			clients[i], connErrs[i] = client.Connect(addr)
		}(i)
	}
	connWG.Wait()
	for i, err := range connErrs {
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to connect client %d to the server: %v\n", i+1, err)
			os.Exit(1)
		}
	}

	start := time.Now()

	bytesIndexed := make([]int64, numClients)
	var wg sync.WaitGroup
	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clientID := fmt.Sprintf("bench_client_%d", i+1)
			clientCfg := cfg.GetClientConfig()
			result, err := clients[i].IndexFolder(clientID, datasets[i], clientCfg.WorkerCount, clientCfg.QueueSize)
			if err != nil {
				logger.Warn("client %d: indexing %s failed: %v", i+1, datasets[i], err)
				return
			}
			bytesIndexed[i] = result.TotalBytesRead
		}(i)
	}
	wg.Wait()

	elapsed := time.Since(start)

	var totalBytes int64
	for _, b := range bytesIndexed {
		totalBytes += b
	}

	fmt.Printf("\nCompleted indexing %d bytes of data\n", totalBytes)
	fmt.Printf("Completed indexing in %.3f seconds", elapsed.Seconds())

	latencies := make([]time.Duration, 0, len(probeQueries))
	for _, q := range probeQueries {
		latencies = append(latencies, performSearch(clients[0], q))
	}

	for _, c := range clients {
		_ = c.Quit()
	}

	if *record {
		if err := bench.GetInstance().Init(*dbPath); err != nil {
			logger.Warn("benchmark history: %v", err)
			return
		}
		defer bench.GetInstance().Close()

		repo := bench.NewRepository(bench.GetInstance())
		summary := bench.Summary{
			StartedAt:      start,
			ServerAddr:     addr,
			DatasetPaths:   datasets,
			TotalBytesRead: totalBytes,
			Elapsed:        elapsed,
			ProbeQueries:   probeQueries,
			ProbeLatencies: latencies,
		}
		if err := repo.RecordRun(summary); err != nil {
			logger.Warn("failed to record benchmark run: %v", err)
		}
	}
}

// performSearch splits query on " AND " into conjunctive terms, issues the
// search against c, prints the top results, and returns the round-trip
// latency.
func performSearch(c *client.Client, query string) time.Duration {
	fmt.Printf("\nSearching %s\n", query)

	var terms []string
	if strings.Contains(query, " AND ") {
		terms = strings.Split(query, " AND ")
	} else {
		terms = []string{query}
	}

	start := time.Now()
	reply, err := c.Search(terms)
	elapsed := time.Since(start)

	fmt.Printf("Search completed in %.6f seconds\n", elapsed.Seconds())

	if err != nil {
		fmt.Printf("search failed: %v\n", err)
		return elapsed
	}

	resultCount := len(reply.Documents)
	fmt.Printf("Search results (top %d out of %d):\n", resultCount, resultCount)
	for _, doc := range reply.Documents {
		fmt.Printf("* %s: %s:%d\n", doc.ClientID, doc.DocumentPath, doc.Frequency)
	}

	return elapsed
}
