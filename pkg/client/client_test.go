package client

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mstor/docindex/pkg/registry"
	"github.com/mstor/docindex/pkg/store"
	"github.com/mstor/docindex/pkg/wire"
)

// fakeServer accepts exactly one connection and serves it with a minimal
// loop good enough to exercise Client against a real socket.
func fakeServer(t *testing.T, idx *store.IndexStore) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	reg := registry.New()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		name := reg.Add("127.0.0.1", 0)
		for {
			payload, err := wire.ReadFrame(conn)
			if err != nil {
				return
			}
			tag, body := wire.Classify(payload)
			switch tag {
			case wire.TagIndex:
				req, _ := wire.DecodeIndexRequest(body)
				id := idx.PutDocument(req.DocumentPath, name)
				freqs := make(map[string]int64, len(req.WordFrequencies))
				for k, v := range req.WordFrequencies {
					freqs[k] = int64(v)
				}
				idx.UpdateIndex(id, freqs)
				_ = wire.WriteFrame(conn, wire.IndexAckPayload())
			case wire.TagSearch:
				_ = wire.WriteFrame(conn, nil)
			case wire.TagQuit:
				return
			}
		}
	}()

	return ln.Addr().String(), func() { ln.Close() }
}

func TestIndexFolderSendsAllFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("foo foo bar"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("baz qux"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	idx := store.New()
	addr, stop := fakeServer(t, idx)
	defer stop()

	c, err := Connect(addr)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	result, err := c.IndexFolder("client_1", dir, 3, 8)
	if err != nil {
		t.Fatalf("IndexFolder: %v", err)
	}
	if result.TotalBytesRead != int64(len("foo foo bar")+len("baz qux")) {
		t.Fatalf("TotalBytesRead = %d", result.TotalBytesRead)
	}
	if idx.DocumentCount() != 2 {
		t.Fatalf("DocumentCount = %d, want 2", idx.DocumentCount())
	}
}

func TestQuitClosesConnection(t *testing.T) {
	idx := store.New()
	addr, stop := fakeServer(t, idx)
	defer stop()

	c, err := Connect(addr)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Quit(); err != nil {
		t.Fatalf("Quit: %v", err)
	}
	if c.Connected() {
		t.Fatalf("expected Connected() == false after Quit")
	}
	time.Sleep(10 * time.Millisecond)
}
