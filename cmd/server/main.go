// Command server runs the document-indexing service: it listens for client
// connections, maintains the shared inverted index, and answers searches.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/mstor/docindex/pkg/config"
	"github.com/mstor/docindex/pkg/logger"
	"github.com/mstor/docindex/pkg/registry"
	"github.com/mstor/docindex/pkg/server"
	"github.com/mstor/docindex/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON configuration file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-config path] <port>\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	port, err := strconv.Atoi(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid port %q: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	cfg := config.Get()
	if *configPath != "" {
		if err := cfg.LoadFromFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
			os.Exit(1)
		}
	}

	if err := logger.Initialize(cfg.GetLoggingConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.GetDefault().Close()

	serverCfg := cfg.GetServerConfig()
	serverCfg.Port = port
	cfg.SetServerConfig(serverCfg)

	idx := store.New()
	reg := registry.New()

	dispatcher, err := server.NewDispatcher(
		fmt.Sprintf(":%d", serverCfg.Port),
		idx, reg,
		serverCfg.AcceptDeadline(),
		serverCfg.ArtificialDelay(),
	)
	if err != nil {
		logger.Error("failed to bind listener: %v", err)
		os.Exit(1)
	}
	dispatcher.Start()
	logger.Info("server listening on %s", dispatcher.Addr().String())

	if serverCfg.AdminPort > 0 {
		startAdminServer(serverCfg.AdminPort)
	}

	runCommandLoop(dispatcher, reg)
}

// startAdminServer mounts the logger's Prometheus/JSON metrics endpoint on
// its own HTTP server, separate from the index's raw TCP protocol.
func startAdminServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", logger.MetricsHandler())

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin metrics server stopped: %v", err)
		}
	}()
	logger.Info("admin metrics endpoint listening on %s/metrics", addr)
}

func runCommandLoop(dispatcher *server.Dispatcher, reg *registry.Registry) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "list":
			clients := reg.List()
			if len(clients) == 0 {
				fmt.Println("No clients connected.")
				continue
			}
			for _, c := range clients {
				fmt.Println(c.String())
			}
		case "quit":
			dispatcher.Shutdown()
			return
		case "":
			// ignore blank lines
		default:
			fmt.Println("unrecognized command, expected: list, quit")
		}
	}
}
