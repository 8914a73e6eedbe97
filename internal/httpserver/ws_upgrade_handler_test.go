package httpserver_test

import (
	"strings"
	"testing"

	"github.com/deadbok/wifiswitch-core/internal/connmgr"
	"github.com/deadbok/wifiswitch-core/internal/httpparse"
	"github.com/deadbok/wifiswitch-core/internal/httpserver"
	"github.com/deadbok/wifiswitch-core/internal/sendpump"
	"github.com/deadbok/wifiswitch-core/internal/wsframe"
)

func TestWSUpgradeComputesAcceptKey(t *testing.T) {
	registry := wsframe.NewRegistry()
	registry.Register(&wsframe.Handler{Protocol: "wifiswitch"})
	resp, sent := newFSTestResponse(t)
	pump := sendpump.New(4, func(c *connmgr.Connection, data []byte) error { return nil })

	h := &httpserver.WSUpgradeHandler{Registry: registry, Pump: pump}
	req := &httpparse.Request{
		Method: httpparse.MethodGET,
		URI:    "/ws",
		Headers: []httpparse.Header{
			{Name: "host", Value: "h"},
			{Name: "upgrade", Value: "websocket"},
			{Name: "connection", Value: "Upgrade"},
			{Name: "sec-websocket-key", Value: "dGhlIHNhbXBsZSBub25jZQ=="},
			{Name: "sec-websocket-version", Value: "13"},
			{Name: "sec-websocket-protocol", Value: "wifiswitch"},
		},
	}

	result := h.Handle(req, resp)
	if result.Code != httpserver.ResultDoneFinal {
		t.Fatalf("result = %+v", result)
	}
	out := string(*sent)
	if !strings.Contains(out, "101") {
		t.Fatalf("missing 101 status: %q", out)
	}
	if !strings.Contains(out, "Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=") {
		t.Fatalf("unexpected accept key: %q", out)
	}
	if !strings.Contains(out, "Sec-WebSocket-Protocol: wifiswitch") {
		t.Fatalf("missing protocol header: %q", out)
	}
}

func TestWSUpgradeRejectsUnsupportedVersion(t *testing.T) {
	registry := wsframe.NewRegistry()
	registry.Register(&wsframe.Handler{Protocol: "wifiswitch"})
	resp, sent := newFSTestResponse(t)
	pump := sendpump.New(4, func(c *connmgr.Connection, data []byte) error { return nil })

	h := &httpserver.WSUpgradeHandler{Registry: registry, Pump: pump}
	req := &httpparse.Request{
		Method: httpparse.MethodGET,
		URI:    "/ws",
		Headers: []httpparse.Header{
			{Name: "host", Value: "h"},
			{Name: "upgrade", Value: "websocket"},
			{Name: "connection", Value: "Upgrade"},
			{Name: "sec-websocket-key", Value: "key"},
			{Name: "sec-websocket-version", Value: "8"},
		},
	}

	h.Handle(req, resp)
	out := string(*sent)
	if !strings.Contains(out, "426") {
		t.Fatalf("expected 426, got %q", out)
	}
	if !strings.Contains(out, "Sec-WebSocket-Version: 13") {
		t.Fatalf("missing version header: %q", out)
	}
}

func TestWSUpgradeDeclinesNonUpgradeRequest(t *testing.T) {
	registry := wsframe.NewRegistry()
	resp, sent := newFSTestResponse(t)
	pump := sendpump.New(4, func(c *connmgr.Connection, data []byte) error { return nil })

	h := &httpserver.WSUpgradeHandler{Registry: registry, Pump: pump}
	req := &httpparse.Request{Method: httpparse.MethodGET, URI: "/index.html"}

	result := h.Handle(req, resp)
	if result.Code != httpserver.ResultDoneContinue {
		t.Fatalf("result = %+v, want DoneContinue", result)
	}
	if len(*sent) != 0 {
		t.Fatalf("expected no output for non-upgrade request")
	}
}
