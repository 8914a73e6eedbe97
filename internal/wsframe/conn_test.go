package wsframe_test

import (
	"testing"

	"github.com/deadbok/wifiswitch-core/internal/connmgr"
	"github.com/deadbok/wifiswitch-core/internal/sendpump"
	"github.com/deadbok/wifiswitch-core/internal/wsframe"
)

func newTestConnState(t *testing.T, h *wsframe.Handler) (*wsframe.ConnState, *connmgr.Table, connmgr.Handle) {
	t.Helper()
	table := connmgr.New()
	listener, err := table.Listen(0, 9000, connmgr.Callbacks{})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	conn := table.Accept(listener, nil, nil, nil)

	pump := sendpump.New(4, func(c *connmgr.Connection, data []byte) error {
		return nil
	})
	return wsframe.NewConnState(h, conn, pump), table, conn.Handle()
}

func TestDispatchDataOpcodeCallsOnReceive(t *testing.T) {
	var got *wsframe.Frame
	h := &wsframe.Handler{Protocol: "echo", OnReceive: func(c *wsframe.ConnState, f *wsframe.Frame) {
		got = f
	}}
	cs, _, _ := newTestConnState(t, h)

	f := &wsframe.Frame{Opcode: wsframe.OpText, Payload: []byte("hi")}
	wsframe.Dispatch(cs, f, func() {})

	if got != f {
		t.Fatalf("OnReceive not invoked with frame")
	}
}

func TestDispatchPeerInitiatedCloseEchoesAndMarksClosing(t *testing.T) {
	closed := false
	h := &wsframe.Handler{Protocol: "echo", OnClose: func(c *wsframe.ConnState) { closed = true }}
	cs, _, _ := newTestConnState(t, h)

	disconnected := false
	wsframe.Dispatch(cs, &wsframe.Frame{Opcode: wsframe.OpClose}, func() { disconnected = true })

	if !closed {
		t.Fatalf("OnClose not invoked")
	}
	if !cs.Closing {
		t.Fatalf("Closing not set after peer-initiated close")
	}
	if disconnected {
		t.Fatalf("should not disconnect on first close frame")
	}
}

func TestDispatchSecondCloseCompletesTeardown(t *testing.T) {
	h := &wsframe.Handler{Protocol: "echo"}
	cs, _, _ := newTestConnState(t, h)
	cs.Closing = true

	disconnected := false
	wsframe.Dispatch(cs, &wsframe.Frame{Opcode: wsframe.OpClose}, func() { disconnected = true })

	if !disconnected {
		t.Fatalf("expected disconnect once close handshake completes")
	}
}

func TestDispatchPingPong(t *testing.T) {
	var pinged, ponged bool
	h := &wsframe.Handler{
		Protocol: "echo",
		OnPing:   func(c *wsframe.ConnState, f *wsframe.Frame) { pinged = true },
		OnPong:   func(c *wsframe.ConnState, f *wsframe.Frame) { ponged = true },
	}
	cs, _, _ := newTestConnState(t, h)

	wsframe.Dispatch(cs, &wsframe.Frame{Opcode: wsframe.OpPing}, func() {})
	wsframe.Dispatch(cs, &wsframe.Frame{Opcode: wsframe.OpPong}, func() {})

	if !pinged || !ponged {
		t.Fatalf("pinged=%v ponged=%v", pinged, ponged)
	}
}
