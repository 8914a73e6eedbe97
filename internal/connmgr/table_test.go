package connmgr_test

import (
	"net"
	"testing"
	"time"

	"github.com/deadbok/wifiswitch-core/api"
	"github.com/deadbok/wifiswitch-core/internal/connmgr"
)

func TestListenDuplicatePortRejected(t *testing.T) {
	tbl := connmgr.New()
	if _, err := tbl.Listen(api.CategoryHTTP, 80, connmgr.Callbacks{}); err != nil {
		t.Fatalf("first listen: %v", err)
	}
	if _, err := tbl.Listen(api.CategoryHTTP, 80, connmgr.Callbacks{}); err != api.ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAcceptClonesCallbacksAndFiresOnAccept(t *testing.T) {
	tbl := connmgr.New()
	var accepted *connmgr.Connection
	l, _ := tbl.Listen(api.CategoryTCP, 1234, connmgr.Callbacks{
		OnAccept: func(c *connmgr.Connection) { accepted = c },
	})

	c := tbl.Accept(l, nil, &net.TCPAddr{IP: net.ParseIP("10.0.0.5"), Port: 5555}, nil)
	if accepted != c {
		t.Fatal("OnAccept did not receive the new connection")
	}
	if c.Category != api.CategoryTCP {
		t.Fatalf("category not inherited from listener: %v", c.Category)
	}
	got, ok := tbl.ByRemote("10.0.0.5:5555")
	if !ok || got != c {
		t.Fatal("ByRemote lookup failed")
	}
}

func TestDisconnectThenTickFreesDrainedConnection(t *testing.T) {
	tbl := connmgr.New()
	l, _ := tbl.Listen(api.CategoryTCP, 1, connmgr.Callbacks{})
	c := tbl.Accept(l, nil, &net.TCPAddr{Port: 1}, nil)

	tbl.Disconnect(c.Handle())
	if !c.Closing() {
		t.Fatal("expected closing=true")
	}
	tbl.Tick(time.Now())
	if _, ok := tbl.Get(c.Handle()); ok {
		t.Fatal("expected drained closing connection to be freed")
	}
}

func TestTickDoesNotFreeUndrainedConnection(t *testing.T) {
	tbl := connmgr.New()
	l, _ := tbl.Listen(api.CategoryTCP, 2, connmgr.Callbacks{})
	c := tbl.Accept(l, nil, &net.TCPAddr{Port: 2}, nil)
	c.AppendToSendBuffer([]byte("pending"))
	tbl.Disconnect(c.Handle())
	tbl.Tick(time.Now())
	if _, ok := tbl.Get(c.Handle()); !ok {
		t.Fatal("connection with undrained send buffer must not be freed")
	}
}

func TestSendBufferInvariant(t *testing.T) {
	c := &connmgr.Connection{}
	data := make([]byte, connmgr.SendBufferCap+100)
	n := c.AppendToSendBuffer(data)
	if n != connmgr.SendBufferCap {
		t.Fatalf("expected truncation to %d, got %d", connmgr.SendBufferCap, n)
	}
	if c.SendBufferLen() < 0 || c.SendBufferLen() > connmgr.SendBufferCap {
		t.Fatalf("invariant violated: %d", c.SendBufferLen())
	}
}
