package ring_test

import (
	"testing"

	"github.com/deadbok/wifiswitch-core/internal/ring"
)

func TestPushPopOrder(t *testing.T) {
	b := ring.New[int](3)
	for _, v := range []int{1, 2, 3} {
		if !b.PushBack(v) {
			t.Fatalf("push %d: unexpected full", v)
		}
	}
	if b.PushBack(4) {
		t.Fatal("expected full buffer to reject push")
	}
	for _, want := range []int{1, 2, 3} {
		got, ok := b.PopFront()
		if !ok || got != want {
			t.Fatalf("pop: got (%d,%v), want %d", got, ok, want)
		}
	}
	if _, ok := b.PopFront(); ok {
		t.Fatal("expected empty buffer to report !ok")
	}
}

func TestWrapAround(t *testing.T) {
	b := ring.New[int](2)
	b.PushBack(1)
	b.PushBack(2)
	b.PopFront()
	b.PushBack(3)
	if got, _ := b.PopFront(); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
	if got, _ := b.PopFront(); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}

func TestInvariant(t *testing.T) {
	b := ring.New[int](4)
	if b.Len() < 0 || b.Len() > b.Cap() {
		t.Fatalf("invariant violated: len=%d cap=%d", b.Len(), b.Cap())
	}
	b.PushBack(1)
	b.PushBack(2)
	if b.Len() < 0 || b.Len() > b.Cap() {
		t.Fatalf("invariant violated after pushes: len=%d cap=%d", b.Len(), b.Cap())
	}
}
