// Command client is the interactive command-line front end to the
// document-indexing service: connect, index, search, quit.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mstor/docindex/pkg/client"
	"github.com/mstor/docindex/pkg/config"
	"github.com/mstor/docindex/pkg/logger"
)

func main() {
	cfg := config.Get()
	if err := logger.Initialize(cfg.GetLoggingConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.GetDefault().Close()

	var conn *client.Client
	clientID := "client"

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "connect":
			if len(fields) != 3 {
				fmt.Println("usage: connect <server_ip> <server_port>")
				continue
			}
			addr := fields[1] + ":" + fields[2]
			c, err := client.Connect(addr)
			if err != nil {
				fmt.Printf("failed to connect to %s: %v\n", addr, err)
				continue
			}
			conn = c
			clientID = addr
			fmt.Printf("Connected to %s\n", addr)

		case "index":
			if conn == nil {
				fmt.Println("not connected")
				continue
			}
			if len(fields) != 2 {
				fmt.Println("usage: index <folder>")
				continue
			}
			clientCfg := cfg.GetClientConfig()
			result, err := conn.IndexFolder(clientID, fields[1], clientCfg.WorkerCount, clientCfg.QueueSize)
			if err != nil {
				fmt.Printf("indexing failed: %v\n", err)
				continue
			}
			fmt.Printf("Completed indexing %d bytes of data\n", result.TotalBytesRead)
			fmt.Printf("Completed indexing in %.3f seconds\n", result.ExecutionTime.Seconds())

		case "search":
			if conn == nil {
				fmt.Println("not connected")
				continue
			}
			terms := fields[1:]
			if len(terms) == 0 {
				fmt.Println("usage: search <term1> <term2> ...")
				continue
			}
			start := time.Now()
			reply, err := conn.Search(terms)
			elapsed := time.Since(start)
			if err != nil {
				fmt.Printf("search failed: %v\n", err)
				continue
			}
			fmt.Printf("Search completed in %.3f seconds.\n", elapsed.Seconds())
			if len(reply.Documents) == 0 {
				fmt.Println("No results found")
				continue
			}
			for _, doc := range reply.Documents {
				fmt.Printf("%s: %s (Frequency: %d)\n", doc.ClientID, doc.DocumentPath, doc.Frequency)
			}

		case "quit":
			if conn != nil {
				_ = conn.Quit()
			}
			return

		default:
			fmt.Println("unrecognized command, expected: connect, index, search, quit")
		}
	}
}
