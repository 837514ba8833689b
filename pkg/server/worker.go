package server

import (
	"context"
	"net"
	"sort"
	"time"

	"github.com/mstor/docindex/pkg/logger"
	"github.com/mstor/docindex/pkg/registry"
	"github.com/mstor/docindex/pkg/store"
	"github.com/mstor/docindex/pkg/wire"
)

// maxSearchResults is the number of ranked results returned per search.
const maxSearchResults = 10

// worker owns one accepted connection for its entire lifetime: it runs the
// receive-classify-dispatch-reply loop described in the design notes.
type worker struct {
	store           *store.IndexStore
	registry        *registry.Registry
	artificialDelay time.Duration
}

func newWorker(idx *store.IndexStore, reg *registry.Registry, artificialDelay time.Duration) *worker {
	return &worker{store: idx, registry: reg, artificialDelay: artificialDelay}
}

func (w *worker) handleConnection(conn net.Conn) {
	defer conn.Close()

	// Every line logged for this connection's lifetime carries the same
	// trace id, so an operator can grep one connection's history out of
	// the shared log file regardless of how many other clients are
	// talking to the server concurrently.
	ctx := logger.WithTraceID(context.Background(), logger.NewTraceID())

	ip, port := peerAddr(conn)
	clientName := w.registry.Add(ip, port)
	logger.InfoWithFields(ctx, map[string]interface{}{
		"client": clientName, "ip": ip, "port": port,
	}, "client connected")

	defer w.registry.Remove(clientName)

	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			logger.WarnWithFields(ctx, map[string]interface{}{
				"client": clientName, "error": err.Error(),
			}, "connection closed")
			return
		}

		if w.artificialDelay > 0 {
			time.Sleep(w.artificialDelay)
		}

		tag, body := wire.Classify(payload)
		switch tag {
		case wire.TagIndex:
			w.handleIndex(ctx, conn, clientName, body)
		case wire.TagSearch:
			w.handleSearch(ctx, conn, body)
		case wire.TagQuit:
			logger.InfoWithFields(ctx, map[string]interface{}{
				"client": clientName,
			}, "client sent QUIT")
			return
		default:
			logger.WarnWithFields(ctx, map[string]interface{}{
				"client": clientName,
			}, "unrecognized frame tag, discarding")
		}
	}
}

func (w *worker) handleIndex(ctx context.Context, conn net.Conn, clientName string, body []byte) {
	req, err := wire.DecodeIndexRequest(body)
	if err != nil {
		logger.WarnWithFields(ctx, map[string]interface{}{
			"client": clientName, "error": err.Error(),
		}, "malformed IndexRequest, discarding frame")
		return
	}

	id := w.store.PutDocument(req.DocumentPath, clientName)

	widened := make(map[string]int64, len(req.WordFrequencies))
	for term, freq := range req.WordFrequencies {
		widened[term] = int64(freq)
	}
	w.store.UpdateIndex(id, widened)

	if err := wire.WriteFrame(conn, wire.IndexAckPayload()); err != nil {
		logger.WarnWithFields(ctx, map[string]interface{}{
			"client": clientName, "error": err.Error(),
		}, "failed to send INDEX acknowledgement")
	}
}

func (w *worker) handleSearch(ctx context.Context, conn net.Conn, body []byte) {
	req, err := wire.DecodeSearchRequest(body)
	if err != nil {
		logger.WarnWithFields(ctx, map[string]interface{}{"error": err.Error()}, "malformed SearchRequest, discarding frame")
		return
	}

	combined := w.conjunctiveSearch(req.Terms)

	if len(combined) == 0 {
		_ = wire.WriteFrame(conn, nil)
		return
	}

	reply := wire.SearchReply{ExecutionTime: 0.0}
	type scored struct {
		id  int64
		sum int64
	}
	ranked := make([]scored, 0, len(combined))
	for id, sum := range combined {
		ranked = append(ranked, scored{id: id, sum: sum})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].sum != ranked[j].sum {
			return ranked[i].sum > ranked[j].sum
		}
		return ranked[i].id < ranked[j].id
	})
	if len(ranked) > maxSearchResults {
		ranked = ranked[:maxSearchResults]
	}

	for _, r := range ranked {
		doc := w.store.GetDocument(r.id)
		reply.Documents = append(reply.Documents, wire.Document{
			DocumentPath: doc.Path,
			Frequency:    r.sum,
			ClientID:     doc.Origin,
		})
	}
	reply.TotalResults = int32(len(reply.Documents))

	encoded, err := wire.EncodeSearchReply(reply)
	if err != nil {
		logger.ErrorWithFields(ctx, nil, "failed to encode SearchReply: %v", err)
		return
	}
	if err := wire.WriteFrame(conn, encoded); err != nil {
		logger.WarnWithFields(ctx, nil, "failed to send SearchReply: %v", err)
	}
}

// conjunctiveSearch implements the AND search algorithm: a document
// survives only if every non-empty term has a posting for it, and its
// score is the sum of the per-term frequencies.
func (w *worker) conjunctiveSearch(terms []string) map[int64]int64 {
	var combined map[int64]int64

	for _, term := range terms {
		if term == "" {
			continue
		}
		postings := w.store.LookupIndex(term)
		if len(postings) == 0 {
			continue
		}

		if combined == nil {
			combined = make(map[int64]int64, len(postings))
			for _, p := range postings {
				combined[p.DocumentID] = p.Frequency
			}
			continue
		}

		next := make(map[int64]int64)
		for _, p := range postings {
			if sum, ok := combined[p.DocumentID]; ok {
				next[p.DocumentID] = sum + p.Frequency
			}
		}
		combined = next
	}

	return combined
}

func peerAddr(conn net.Conn) (string, int) {
	addr, ok := conn.RemoteAddr().(*net.TCPAddr)
	if !ok {
		return conn.RemoteAddr().String(), 0
	}
	return addr.IP.String(), addr.Port
}
