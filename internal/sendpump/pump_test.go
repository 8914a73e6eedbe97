package sendpump_test

import (
	"testing"

	"github.com/deadbok/wifiswitch-core/internal/connmgr"
	"github.com/deadbok/wifiswitch-core/internal/sendpump"
)

func TestDirectSendWhenIdle(t *testing.T) {
	var sent [][]byte
	p := sendpump.New(4, func(c *connmgr.Connection, data []byte) error {
		sent = append(sent, data)
		return nil
	})
	n, err := p.Send(nil, []byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Send: n=%d err=%v", n, err)
	}
	if !p.Busy() {
		t.Fatal("expected pump busy after direct send")
	}
	if len(sent) != 1 || string(sent[0]) != "hello" {
		t.Fatalf("unexpected lower sends: %v", sent)
	}
}

func TestQueuesWhileBusyAndDrainsInFIFOOrder(t *testing.T) {
	var sent []string
	p := sendpump.New(4, func(c *connmgr.Connection, data []byte) error {
		sent = append(sent, string(data))
		return nil
	})
	p.Send(nil, []byte("a"))
	p.Send(nil, []byte("b"))
	p.Send(nil, []byte("c"))
	if p.QueueLen() != 2 {
		t.Fatalf("expected 2 queued, got %d", p.QueueLen())
	}

	p.OnSendComplete() // a done -> submits b
	p.OnSendComplete() // b done -> submits c
	p.OnSendComplete() // c done -> queue empty

	if got := sent; len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("out-of-order sends: %v", got)
	}
	if p.Busy() {
		t.Fatal("expected pump idle once queue drains")
	}
}

func TestOverflowDroppedWithError(t *testing.T) {
	p := sendpump.New(1, func(c *connmgr.Connection, data []byte) error { return nil })
	p.Send(nil, []byte("first"))  // goes out directly, pump becomes busy
	p.Send(nil, []byte("second")) // queued (capacity 1)
	if _, err := p.Send(nil, []byte("third")); err == nil {
		t.Fatal("expected overflow error when retry queue is full")
	}
}
