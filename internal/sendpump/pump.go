// File: internal/sendpump/pump.go
// Package sendpump implements the global send serializer: "the underlying radio API faults when a second send is
// issued before the previous completes — the pump serializes all
// outbound traffic globally."
//
// The retry queue is internal/ring.Buffer (see DESIGN.md) rather than
// github.com/eapache/queue, because the pump needs a hard capacity
// ceiling with a push that fails loudly on overflow (spec: "if the ring
// is full, the push is dropped with an error"), not a queue that grows.
package sendpump

import (
	"github.com/deadbok/wifiswitch-core/api"
	"github.com/deadbok/wifiswitch-core/internal/connmgr"
	"github.com/deadbok/wifiswitch-core/internal/ring"
)

// LowerSend is the platform transport's submit primitive.
type LowerSend func(conn *connmgr.Connection, data []byte) error

type item struct {
	data []byte
	conn *connmgr.Connection
}

// Pump is the single-slot send serializer. Not safe for concurrent use
// from multiple goroutines; this design guarantees only one event callback
// runs at a time.
type Pump struct {
	sending bool
	queue *ring.Buffer[item]
	lower LowerSend
}

// New constructs a Pump with the given retry-queue capacity.
func New(queueCapacity int, lower LowerSend) *Pump {
	return &Pump{queue: ring.New[item](queueCapacity), lower: lower}
}

// Send submits data for conn. If nothing is currently sending, it is
// submitted directly to the lower layer; otherwise a copy is queued.
// Returns the number of bytes accepted (always len(data) on success,
// since the pump either sends it now or buffers all of it).
func (p *Pump) Send(conn *connmgr.Connection, data []byte) (int, error) {
	if !p.sending {
		p.sending = true
		if err := p.lower(conn, data); err != nil {
			p.sending = false
			return 0, err
		}
		return len(data), nil
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	if !p.queue.PushBack(item{data: cp, conn: conn}) {
		return 0, api.ErrResourceExhausted
	}
	return len(data), nil
}

// OnSendComplete is the lower layer's sent-completion notification. It
// clears the in-flight flag and, if the queue is non-empty, pops and
// submits the next item.
func (p *Pump) OnSendComplete() {
	p.sending = false
	next, ok := p.queue.PopFront()
	if !ok {
		return
	}
	p.sending = true
	if err := p.lower(next.conn, next.data); err != nil {
		p.sending = false
	}
}

// Busy reports whether a send is currently in flight (testable property
// 7: "the send pump never has two outstanding lower-layer sends
// simultaneously" — exposed for assertions in tests of callers).
func (p *Pump) Busy() bool { return p.sending }

// QueueLen reports the number of queued-but-not-yet-submitted sends.
func (p *Pump) QueueLen() int { return p.queue.Len() }
