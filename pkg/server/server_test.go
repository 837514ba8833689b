package server

import (
	"net"
	"testing"
	"time"

	"github.com/mstor/docindex/pkg/registry"
	"github.com/mstor/docindex/pkg/store"
	"github.com/mstor/docindex/pkg/wire"
)

func startTestDispatcher(t *testing.T) (*Dispatcher, *store.IndexStore, *registry.Registry) {
	t.Helper()
	idx := store.New()
	reg := registry.New()
	d, err := NewDispatcher("127.0.0.1:0", idx, reg, 50*time.Millisecond, 0)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	d.Start()
	t.Cleanup(d.Shutdown)
	return d, idx, reg
}

func dial(t *testing.T, d *Dispatcher) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", d.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendIndex(t *testing.T, conn net.Conn, path string, freqs map[string]int32) {
	t.Helper()
	payload, err := wire.EncodeIndexRequest(wire.IndexRequest{DocumentPath: path, WordFrequencies: freqs})
	if err != nil {
		t.Fatalf("EncodeIndexRequest: %v", err)
	}
	if err := wire.WriteFrame(conn, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	ack, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame ack: %v", err)
	}
	if len(ack) == 0 {
		t.Fatalf("expected non-empty INDEX acknowledgement")
	}
}

func search(t *testing.T, conn net.Conn, terms ...string) wire.SearchReply {
	t.Helper()
	payload, err := wire.EncodeSearchRequest(wire.SearchRequest{Terms: terms})
	if err != nil {
		t.Fatalf("EncodeSearchRequest: %v", err)
	}
	if err := wire.WriteFrame(conn, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	raw, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame reply: %v", err)
	}
	reply, err := wire.DecodeSearchReply(raw)
	if err != nil {
		t.Fatalf("DecodeSearchReply: %v", err)
	}
	return reply
}

// TestIndexThenSearchSingleTerm covers scenarios S2 and S3: one client
// indexes a file with "foo foo bar", then searches single terms.
func TestIndexThenSearchSingleTerm(t *testing.T) {
	d, idx, _ := startTestDispatcher(t)
	conn := dial(t, d)

	sendIndex(t, conn, "/docs/a.txt", map[string]int32{"foo": 2, "bar": 1})

	if idx.DocumentCount() != 1 {
		t.Fatalf("DocumentCount = %d, want 1", idx.DocumentCount())
	}
	doc := idx.GetDocument(1)
	if doc.Path != "/docs/a.txt" || doc.Origin != "client_1" {
		t.Fatalf("GetDocument(1) = %+v", doc)
	}

	reply := search(t, conn, "foo")
	if len(reply.Documents) != 1 || reply.Documents[0].Frequency != 2 || reply.Documents[0].ClientID != "client_1" {
		t.Fatalf("search foo = %+v", reply)
	}

	empty := search(t, conn, "xyz")
	if len(empty.Documents) != 0 {
		t.Fatalf("search xyz = %+v, want no results", empty)
	}
}

// TestConjunctiveSearch covers scenario S4: two files indexed by the same
// connection, AND semantics across terms.
func TestConjunctiveSearch(t *testing.T) {
	d, _, _ := startTestDispatcher(t)
	conn := dial(t, d)

	sendIndex(t, conn, "/f1", map[string]int32{"alpha": 1, "beta": 2})
	sendIndex(t, conn, "/f2", map[string]int32{"alpha": 1, "gamma": 1})

	r1 := search(t, conn, "alpha", "beta")
	if len(r1.Documents) != 1 || r1.Documents[0].DocumentPath != "/f1" || r1.Documents[0].Frequency != 3 {
		t.Fatalf("search alpha beta = %+v", r1)
	}

	r2 := search(t, conn, "alpha", "gamma")
	if len(r2.Documents) != 1 || r2.Documents[0].DocumentPath != "/f2" || r2.Documents[0].Frequency != 2 {
		t.Fatalf("search alpha gamma = %+v", r2)
	}
}

// TestSearchRankingAndTruncation covers scenario S5: 15 documents with
// increasing frequency, only the top 10 highest survive in descending
// order.
func TestSearchRankingAndTruncation(t *testing.T) {
	d, _, _ := startTestDispatcher(t)
	conn := dial(t, d)

	for i := 1; i <= 15; i++ {
		sendIndex(t, conn, "/doc", map[string]int32{"t": int32(i)})
	}

	reply := search(t, conn, "t")
	if len(reply.Documents) != 10 {
		t.Fatalf("len(Documents) = %d, want 10", len(reply.Documents))
	}
	for i, doc := range reply.Documents {
		want := int64(15 - i)
		if doc.Frequency != want {
			t.Fatalf("Documents[%d].Frequency = %d, want %d", i, doc.Frequency, want)
		}
	}
}

// TestTwoClientsSamePathGetDistinctDocuments covers scenario S6: two
// separate connections indexing the same path get distinct ids and
// origins, and a matching search returns both.
func TestTwoClientsSamePathGetDistinctDocuments(t *testing.T) {
	d, idx, _ := startTestDispatcher(t)
	connA := dial(t, d)
	connB := dial(t, d)

	sendIndex(t, connA, "/p", map[string]int32{"shared": 3})
	sendIndex(t, connB, "/p", map[string]int32{"shared": 5})

	if idx.DocumentCount() != 2 {
		t.Fatalf("DocumentCount = %d, want 2", idx.DocumentCount())
	}
	docA := idx.GetDocument(1)
	docB := idx.GetDocument(2)
	if docA.Path != "/p" || docB.Path != "/p" {
		t.Fatalf("expected both documents at /p: %+v %+v", docA, docB)
	}
	if docA.Origin == docB.Origin {
		t.Fatalf("expected distinct origins, got %q twice", docA.Origin)
	}

	reply := search(t, connA, "shared")
	if len(reply.Documents) != 2 {
		t.Fatalf("search shared = %+v, want 2 documents", reply)
	}
}

// TestQuitRemovesRegistryEntry exercises the client registry lifecycle:
// QUIT removes the connection's entry.
func TestQuitRemovesRegistryEntry(t *testing.T) {
	d, _, reg := startTestDispatcher(t)
	conn := dial(t, d)

	sendIndex(t, conn, "/p", map[string]int32{"term": 1})
	if len(reg.List()) != 1 {
		t.Fatalf("expected one registered client before QUIT")
	}

	if err := wire.WriteFrame(conn, wire.QuitFrame()); err != nil {
		t.Fatalf("WriteFrame QUIT: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(reg.List()) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("registry entry not removed after QUIT")
}

// TestShutdownRespondsPromptly covers scenario S7: shutdown completes
// within roughly one accept-deadline interval even with a live connection.
func TestShutdownRespondsPromptly(t *testing.T) {
	idx := store.New()
	reg := registry.New()
	d, err := NewDispatcher("127.0.0.1:0", idx, reg, 100*time.Millisecond, 0)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	d.Start()

	conn, err := net.Dial("tcp", d.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	start := time.Now()
	d.Shutdown()
	if elapsed := time.Since(start); elapsed > 1200*time.Millisecond {
		t.Fatalf("Shutdown took %v, want <= ~1.2s", elapsed)
	}
}
