// File: internal/connmgr/table.go
// Package connmgr
package connmgr

import (
	"net"
	"sync"
	"time"

	"github.com/deadbok/wifiswitch-core/api"
)

// listenerKey enforces this design's invariant: "at most one listener per
// (transport, port)".
type listenerKey struct {
	category api.Category
	port int
}

// Table is the process-wide connection table. Mutation only ever
// happens from the single callback driving the current event, per
// this design, so the mutex below guards against misuse rather than real
// contention; the core itself never calls into Table concurrently.
type Table struct {
	mu sync.Mutex
	listeners map[listenerKey]*Connection
	active map[Handle]*Connection
	next Handle
}

// New constructs an empty connection table.
func New() *Table {
	return &Table{
		listeners: make(map[listenerKey]*Connection),
		active: make(map[Handle]*Connection),
	}
}

// Listen registers a listening connection for category/port. Returns
// api.ErrAlreadyExists if a listener already owns that (category, port).
func (t *Table) Listen(category api.Category, port int, cb Callbacks) (*Connection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := listenerKey{category, port}
	if _, exists := t.listeners[key]; exists {
		return nil, api.ErrAlreadyExists
	}
	h := t.allocHandle()
	c := &Connection{handle: h, Category: category, callbacks: cb, isListener: true}
	t.listeners[key] = c
	t.active[h] = c
	return c, nil
}

// Accept clones listener's callback table onto a fresh active
// connection and invokes OnAccept.
func (t *Table) Accept(listener *Connection, conn net.Conn, remote, local net.Addr) *Connection {
	t.mu.Lock()
	h := t.allocHandle()
	c := &Connection{
		handle: h,
		Category: listener.Category,
		callbacks: listener.callbacks,
		conn: conn,
		RemoteAddr: remote,
		LocalAddr: local,
		lastSeen: time.Now(),
	}
	t.active[h] = c
	t.mu.Unlock()

	if c.callbacks.OnAccept != nil {
		c.callbacks.OnAccept(c)
	}
	return c
}

// Disconnect marks a connection closing; it is reaped by Tick once its
// send buffer drains.
func (t *Table) Disconnect(h Handle) {
	t.mu.Lock()
	c, ok := t.active[h]
	t.mu.Unlock()
	if !ok {
		return
	}
	c.closing = true
	if c.callbacks.OnDisconnect != nil {
		c.callbacks.OnDisconnect(c)
	}
}

// Free unlinks and releases a connection unconditionally.
func (t *Table) Free(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.active[h]
	if !ok {
		return
	}
	delete(t.active, h)
	if c.isListener {
		for k, v := range t.listeners {
			if v.handle == h {
				delete(t.listeners, k)
				break
			}
		}
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

// Get looks up a connection by handle.
func (t *Table) Get(h Handle) (*Connection, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.active[h]
	return c, ok
}

// ByRemote finds an active (non-listener) connection by remote address
// string.
func (t *Table) ByRemote(remote string) (*Connection, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.active {
		if c.isListener {
			continue
		}
		if c.RemoteAddr != nil && c.RemoteAddr.String() == remote {
			return c, true
		}
	}
	return nil, false
}

// ByLocalPort finds a listener by (category, port).
func (t *Table) ByLocalPort(category api.Category, port int) (*Connection, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.listeners[listenerKey{category, port}]
	return c, ok
}

// Tick runs the housekeeping pass: any connection whose
// deadline has elapsed is marked closing; any connection that is
// closing with a drained send buffer is freed.
func (t *Table) Tick(now time.Time) {
	t.mu.Lock()
	var toFree []Handle
	for h, c := range t.active {
		if c.isListener {
			continue
		}
		if c.Expired(now) {
			c.closing = true
		}
		if c.closing && c.SendBufferLen() == 0 {
			toFree = append(toFree, h)
		}
	}
	t.mu.Unlock()

	for _, h := range toFree {
		t.Free(h)
	}
}

// Count returns the number of active (non-listener) connections.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.active {
		if !c.isListener {
			n++
		}
	}
	return n
}

func (t *Table) allocHandle() Handle {
	h := t.next
	t.next++
	return h
}
