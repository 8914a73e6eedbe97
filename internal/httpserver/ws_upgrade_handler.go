// File: internal/httpserver/ws_upgrade_handler.go
// Package httpserver
//
// WebSocket upgrade handler. Grounded on
// protocol/handshake.go's header validation shape, replacing its
// net/http-based request with this core's own internal/httpparse
// request and its hardcoded accept computation with
// internal/wsframe.AcceptKey.
package httpserver

import (
	"strings"

	"github.com/deadbok/wifiswitch-core/internal/httpparse"
	"github.com/deadbok/wifiswitch-core/internal/sendpump"
	"github.com/deadbok/wifiswitch-core/internal/wsframe"
)

// WSUpgradeHandler validates and completes the WebSocket handshake,
// then rewires the connection to the WebSocket core.
type WSUpgradeHandler struct {
	Registry *wsframe.Registry
	Pump *sendpump.Pump

	// OnUpgraded is invoked once the 101 response is flushed, with the
	// freshly attached connection state, so the caller can rewire the
	// connection's recv callback to wsframe dispatch.
	OnUpgraded func(cs *wsframe.ConnState)
}

// Handle implements Handler.
func (h *WSUpgradeHandler) Handle(req *httpparse.Request, resp *Response) Result {
	if req.Get("upgrade") != "websocket" || !strings.Contains(strings.ToLower(req.Get("connection")), "upgrade") {
		return DoneContinue
	}

	key := req.Get("sec-websocket-key")
	if key == "" || req.Get("host") == "" {
		resp.SendStatusLine(400)
		resp.SendDefaultHeaders(0, "")
		resp.Flush()
		return DoneFinal
	}

	if req.Get("sec-websocket-version") != "13" {
		resp.SendStatusLine(426)
		resp.SendHeader("Sec-WebSocket-Version", "13")
		resp.SendDefaultHeaders(0, "")
		resp.Flush()
		return DoneFinal
	}

	requested := splitProtocols(req.Get("sec-websocket-protocol"))
	var chosen *wsframe.Handler
	var chosenName string
	for _, name := range requested {
		if handler, _, ok := h.Registry.Find(name); ok {
			chosen = handler
			chosenName = name
			break
		}
	}
	if chosen == nil {
		resp.SendStatusLine(400)
		resp.SendDefaultHeaders(0, "")
		resp.Flush()
		return DoneFinal
	}

	accept := wsframe.AcceptKey(key)
	resp.SendStatusLine(101)
	resp.SendHeader("Upgrade", "websocket")
	resp.SendHeader("Connection", "Upgrade")
	resp.SendHeader("Sec-WebSocket-Accept", accept)
	resp.SendHeader("Sec-WebSocket-Protocol", chosenName)
	resp.Write([]byte("\r\n"))
	resp.State = StateMessage
	resp.Flush()

	cs := wsframe.NewConnState(chosen, resp.conn, h.Pump)
	resp.conn.State = cs
	if chosen.OnOpen != nil {
		chosen.OnOpen(cs)
	}
	if h.OnUpgraded != nil {
		h.OnUpgraded(cs)
	}
	return DoneFinal
}

func splitProtocols(header string) []string {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
