// Package registry tracks the connected clients a server worker has
// accepted, for the server's "list" surface.
package registry

import (
	"fmt"
	"sync"
)

// Client records one connected client's assigned name and socket address.
type Client struct {
	Name string
	IP   string
	Port int
}

// String renders a Client the way the "list" surface displays it.
func (c Client) String() string {
	return fmt.Sprintf("%s: %s %d", c.Name, c.IP, c.Port)
}

// Registry is a mutex-guarded set of connected clients, keyed by name.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
	order   []string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Add assigns a new client_N name (N = current size + 1), records the
// client under it, and returns the assigned name.
func (r *Registry) Add(ip string, port int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := fmt.Sprintf("client_%d", len(r.clients)+1)
	r.clients[name] = Client{Name: name, IP: ip, Port: port}
	r.order = append(r.order, name)
	return name
}

// Remove deletes the entry for name, if present.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// List returns a snapshot of the currently connected clients, in the order
// they were added.
func (r *Registry) List() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Client, 0, len(r.order))
	for _, name := range r.order {
		if c, ok := r.clients[name]; ok {
			out = append(out, c)
		}
	}
	return out
}
