// Package server implements the listening dispatcher and per-connection
// worker that together form the indexing service's TCP front end.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/mstor/docindex/pkg/logger"
	"github.com/mstor/docindex/pkg/registry"
	"github.com/mstor/docindex/pkg/store"
)

// Dispatcher runs the accept loop: it binds a TCP listener and hands every
// accepted connection to a worker goroutine. Shutdown is observed within
// one accept-deadline interval of being requested.
type Dispatcher struct {
	listener *net.TCPListener
	store    *store.IndexStore
	registry *registry.Registry

	acceptDeadline  time.Duration
	artificialDelay time.Duration

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
}

// NewDispatcher binds addr (host:port) and returns a Dispatcher ready to
// Start. acceptDeadline bounds how long Accept blocks before the loop
// rechecks for shutdown; artificialDelay is the per-request worker delay
// described in the design notes.
func NewDispatcher(addr string, idx *store.IndexStore, reg *registry.Registry, acceptDeadline, artificialDelay time.Duration) (*Dispatcher, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		listener:        ln,
		store:           idx,
		registry:        reg,
		acceptDeadline:  acceptDeadline,
		artificialDelay: artificialDelay,
		done:            make(chan struct{}),
		conns:           make(map[net.Conn]struct{}),
	}, nil
}

// Addr returns the dispatcher's bound address.
func (d *Dispatcher) Addr() net.Addr {
	return d.listener.Addr()
}

// Start spawns the accept loop on its own goroutine and returns
// immediately.
func (d *Dispatcher) Start() {
	go d.acceptLoop()
}

// acceptLoop is the running->draining state machine described in the
// design notes: it polls Accept with a bounded deadline so shutdown is
// observed within acceptDeadline of being requested.
func (d *Dispatcher) acceptLoop() {
	logger.InfoWithFields(context.Background(), map[string]interface{}{
		"addr": d.listener.Addr().String(),
	}, "dispatcher listening")

	for {
		select {
		case <-d.done:
			return
		default:
		}

		_ = d.listener.SetDeadline(time.Now().Add(d.acceptDeadline))
		conn, err := d.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			select {
			case <-d.done:
				return
			default:
				continue
			}
		}

		d.trackConn(conn)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer d.untrackConn(conn)
			newWorker(d.store, d.registry, d.artificialDelay).handleConnection(conn)
		}()
	}
}

func (d *Dispatcher) trackConn(conn net.Conn) {
	d.connsMu.Lock()
	d.conns[conn] = struct{}{}
	d.connsMu.Unlock()
}

func (d *Dispatcher) untrackConn(conn net.Conn) {
	d.connsMu.Lock()
	delete(d.conns, conn)
	d.connsMu.Unlock()
}

// Shutdown transitions the dispatcher to draining: it stops accepting,
// forcibly closes any live connections (unblocking workers parked in Read,
// resolving the reference implementation's known forcible-interruption
// limitation), and waits for all worker goroutines to finish.
func (d *Dispatcher) Shutdown() {
	d.once.Do(func() {
		close(d.done)
	})
	_ = d.listener.Close()

	d.connsMu.Lock()
	for conn := range d.conns {
		_ = conn.Close()
	}
	d.connsMu.Unlock()

	d.wg.Wait()
	logger.Info("dispatcher shut down")
}
