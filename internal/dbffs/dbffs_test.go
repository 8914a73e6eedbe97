package dbffs_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/deadbok/wifiswitch-core/internal/dbffs"
)

func TestRoundTrip(t *testing.T) {
	entries := []dbffs.Entry{
		{Path: "/index.html", Data: []byte("<html>hello</html>")},
		{Path: "/style.css", Data: []byte("body{}")},
		{Path: "/404.html", Data: []byte("not found")},
	}
	img := dbffs.Build(entries)

	r, err := dbffs.NewReader(bytes.NewReader(img), 0)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	for _, e := range entries {
		h, err := r.Find(e.Path)
		if err != nil {
			t.Fatalf("Find(%s): %v", e.Path, err)
		}
		if h.Size != uint32(len(e.Data)) {
			t.Fatalf("Find(%s): size=%d, want %d", e.Path, h.Size, len(e.Data))
		}
		buf := make([]byte, h.Size)
		n, err := r.ReadFile(h, 0, buf)
		if err != nil || n != len(e.Data) {
			t.Fatalf("ReadFile(%s): n=%d err=%v", e.Path, n, err)
		}
		if !bytes.Equal(buf, e.Data) {
			t.Fatalf("ReadFile(%s): got %q, want %q", e.Path, buf, e.Data)
		}
	}
}

func TestLinkResolvesRelativeToRoot(t *testing.T) {
	entries := []dbffs.Entry{
		{Path: "/real.html", Data: []byte("real content")},
		{Path: "/alias.html", Link: "/real.html"},
	}
	img := dbffs.Build(entries)
	r, err := dbffs.NewReader(bytes.NewReader(img), 0)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	h, err := r.Find("/alias.html")
	if err != nil {
		t.Fatalf("Find(/alias.html): %v", err)
	}
	if h.Name != "/real.html" {
		t.Fatalf("expected resolved name /real.html, got %s", h.Name)
	}
}

func TestNotFound(t *testing.T) {
	img := dbffs.Build([]dbffs.Entry{{Path: "/a", Data: []byte("x")}})
	r, _ := dbffs.NewReader(bytes.NewReader(img), 0)
	if _, err := r.Find("/missing"); !errors.Is(err, dbffs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBadSignature(t *testing.T) {
	_, err := dbffs.NewReader(bytes.NewReader([]byte{0, 0, 0, 0}), 0)
	if !errors.Is(err, dbffs.ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}
