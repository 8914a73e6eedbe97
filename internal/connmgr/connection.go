// File: internal/connmgr/connection.go
// Package connmgr implements the connection table shared by every transport in this core.
//
// Uses an arena of cells plus index handles rather than manual
// linked-list pointers: external holders keep a Handle, not a raw
// pointer, which removes a class of use-after-free around disconnects.
// The handle-keyed lookup idiom mirrors a small owned-table-with-
// lifecycle-methods shape used elsewhere in this core (the WebSocket
// protocol-handler registry).
package connmgr

import (
	"net"
	"time"

	"github.com/deadbok/wifiswitch-core/api"
)

// SendBufferCap is the fixed per-connection send buffer size.
const SendBufferCap = 1440

// Callbacks is the per-category callback table a listener installs and
// every accepted connection inherits a copy of.
type Callbacks struct {
	OnAccept func(c *Connection)
	OnRecv func(c *Connection, data []byte)
	OnSent func(c *Connection)
	OnDisconnect func(c *Connection)
}

// Handle identifies a Connection stable for its lifetime; it replaces
// the original's raw prev/next pointers.
type Handle int

const invalidHandle Handle = -1

// Connection is the central object this design describes. The connection
// table exclusively owns it; handlers borrow it via its Handle.
type Connection struct {
	handle Handle

	RemoteAddr net.Addr
	LocalAddr net.Addr
	Category api.Category

	// State is the opaque per-category payload — an *httpserver.Response, a
	// *wsframe.ConnState, or nil for plain TCP/UDP/DNS connections.
	State any

	sendBuf [SendBufferCap]byte
	sendCursor int

	closing bool
	deadline time.Time
	lastSeen time.Time

	callbacks Callbacks

	// conn is the underlying net transport; nil for a listener's
	// template connection.
	conn net.Conn

	isListener bool
}

// Handle returns the stable identifier for this connection.
func (c *Connection) Handle() Handle { return c.handle }

// Closing reports whether disconnect has been requested.
func (c *Connection) Closing() bool { return c.closing }

// SendBufferLen reports bytes currently queued in the send buffer
// (invariant 1: 0 <= cursor <= capacity).
func (c *Connection) SendBufferLen() int { return c.sendCursor }

// SendBufferFree reports remaining send-buffer capacity.
func (c *Connection) SendBufferFree() int { return SendBufferCap - c.sendCursor }

// AppendToSendBuffer copies as much of data as fits into the send
// buffer and returns the number of bytes copied. The caller (the send
// pump, this design) is responsible for actually transmitting and
// resetting the cursor once bytes are accepted by the lower layer.
func (c *Connection) AppendToSendBuffer(data []byte) int {
	n := copy(c.sendBuf[c.sendCursor:], data)
	c.sendCursor += n
	return n
}

// SendBufferBytes exposes the queued bytes for the send pump to submit.
func (c *Connection) SendBufferBytes() []byte {
	return c.sendBuf[:c.sendCursor]
}

// ResetSendBuffer clears the cursor once bytes have been handed off.
func (c *Connection) ResetSendBuffer() { c.sendCursor = 0 }

// RefreshActivity bumps the activity timestamp and, if d > 0, pushes the
// housekeeping deadline out by d.
func (c *Connection) RefreshActivity(now time.Time, d time.Duration) {
	c.lastSeen = now
	if d > 0 {
		c.deadline = now.Add(d)
	}
}

// Expired reports whether now is past the connection's timeout deadline.
func (c *Connection) Expired(now time.Time) bool {
	return !c.deadline.IsZero() && now.After(c.deadline)
}

// NetConn exposes the underlying transport for I/O; returns nil for
// listener template connections.
func (c *Connection) NetConn() net.Conn { return c.conn }
