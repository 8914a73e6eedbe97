// File: internal/wsframe/conn.go
// Package wsframe
//
// WebSocket connection state and frame dispatch: a registry lookup combined with
// the close-handshake state machine, driven by an external Dispatch
// call by design's cooperative model rather than its own recv/send
// goroutines.
package wsframe

import (
	"github.com/deadbok/wifiswitch-core/internal/connmgr"
	"github.com/deadbok/wifiswitch-core/internal/sendpump"
)

// ConnState is the per-TCP-connection WebSocket state installed once a
// connection has been upgraded.
type ConnState struct {
	Handler *Handler
	Closing bool // true once this server initiated close

	Conn *connmgr.Connection
	pump *sendpump.Pump
}

// NewConnState attaches WebSocket state bound to handler and conn.
func NewConnState(handler *Handler, conn *connmgr.Connection, pump *sendpump.Pump) *ConnState {
	return &ConnState{Handler: handler, Conn: conn, pump: pump}
}

// Send encodes and submits a data frame through the send pump (spec
// §4.H "Frame encode"; the server never masks).
func (c *ConnState) Send(opcode byte, payload []byte) (int, error) {
	return c.pump.Send(c.Conn, Encode(opcode, payload))
}

// Dispatch routes one decoded frame to the handler's callbacks per
// this design's opcode table. Calls go through c.Handler directly; the
// registry is not consulted here.
func Dispatch(c *ConnState, f *Frame, disconnect func()) {
	switch {
	case f.Opcode < 0x8:
		if c.Handler.OnReceive != nil {
			c.Handler.OnReceive(c, f)
		}
	case f.Opcode == OpClose:
		dispatchClose(c, disconnect)
	case f.Opcode == OpPing:
		if c.Handler.OnPing != nil {
			c.Handler.OnPing(c, f)
		}
	case f.Opcode == OpPong:
		if c.Handler.OnPong != nil {
			c.Handler.OnPong(c, f)
		}
	}
}

func dispatchClose(c *ConnState, disconnect func()) {
	if c.Handler.OnClose != nil {
		c.Handler.OnClose(c)
	}
	if c.Closing {
		// We already sent our own close frame; this is the peer's
		// acknowledgement. Tear down fully.
		disconnect()
		return
	}
	// Peer-initiated close: echo an empty close frame and mark
	// server-initiated so the next close frame we see completes it.
	c.Closing = true
	c.pump.Send(c.Conn, Encode(OpClose, nil))
}
