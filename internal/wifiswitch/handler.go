// File: internal/wifiswitch/handler.go
// Package wifiswitch implements the "wifiswitch" WebSocket sub-protocol:
// JSON control messages for firmware info, network mode, station/AP
// configuration, and GPIO control.
//
// Grounded on original_source/user/handlers/websocket/wifiswitch.c's
// message catalogue and the gpio response/parse helpers. Adapted per
// this design's redesign note: the original dispatches by reading the
// first two bytes of the "type" string as a 16-bit integer to dodge a
// strcmp; this is exactly the kind of cleverness-over-clarity the
// redesign note calls out, so dispatch here is an ordinary switch on
// the decoded type string.
package wifiswitch

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/deadbok/wifiswitch-core/api"
	"github.com/deadbok/wifiswitch-core/internal/wsframe"
)

// Protocol is the WebSocket sub-protocol name this handler registers
// under.
const Protocol = "wifiswitch"

// Timeout is the connection timeout refreshed on every inbound data
// frame (text or binary); control frames do not refresh it.
const Timeout = 240 * time.Second

// envelope defers field decoding to raw since the message's shape
// varies by type (gpio's field set is arbitrary pin numbers, not a
// fixed struct — this design: "pairs of <pin>:<0|1>").
type envelope struct {
	Type string
	raw map[string]json.RawMessage
}

// Handler wires the wifiswitch protocol to the platform collaborators
// this design/§6 treat as out of scope.
type Handler struct {
	GPIO api.GPIO
	Config api.ConfigStore
	WiFi api.WiFi

	fwVersion string
	httpdVersion string
	dbffsVersion string

	scanPending bool
}

// New constructs a wifiswitch Handler bound to its platform
// collaborators and the firmware/httpd/dbffs version triple reported
// by the "fw" message.
func New(gpio api.GPIO, cfg api.ConfigStore, wifi api.WiFi, fwVersion, httpdVersion, dbffsVersion string) *Handler {
	return &Handler{
		GPIO: gpio,
		Config: cfg,
		WiFi: wifi,
		fwVersion: fwVersion,
		httpdVersion: httpdVersion,
		dbffsVersion: dbffsVersion,
	}
}

// WSHandler builds the registry.Handler entry for this protocol (spec
// §4.H "Handler registry").
func (h *Handler) WSHandler() *wsframe.Handler {
	return &wsframe.Handler{
		Protocol: Protocol,
		OnReceive: h.onReceive,
		OnClose: h.onClose,
	}
}

func (h *Handler) onReceive(c *wsframe.ConnState, f *wsframe.Frame) {
	c.Conn.RefreshActivity(time.Now(), Timeout)

	if f.Opcode != wsframe.OpText {
		return
	}

	var env envelope
	if err := json.Unmarshal(f.Payload, &env.raw); err != nil {
		return
	}
	if t, ok := env.raw["type"]; ok {
		json.Unmarshal(t, &env.Type)
	} else {
		return
	}

	switch env.Type {
	case "fw":
		h.handleFW(c, env)
	case "networks":
		h.handleNetworks(c)
	case "station":
		h.handleStation(c, env)
	case "ap":
		h.handleAP(c)
	case "gpio":
		h.handleGPIO(c, env)
	}
}

func (h *Handler) onClose(c *wsframe.ConnState) {
	// close is a no-op; the core handles framing.
}

func (h *Handler) handleFW(c *wsframe.ConnState, env envelope) {
	if raw, ok := env.raw["mode"]; ok {
		var mode string
		json.Unmarshal(raw, &mode)
		newMode, ok := parseMode(mode)
		if ok {
			cfg, err := h.Config.Load()
			if err == nil && cfg.NetworkMode != newMode {
				cfg.NetworkMode = newMode
				h.Config.Store(cfg)
				h.WiFi.SetMode(newMode)
			}
		}
	}

	cfg, err := h.Config.Load()
	mode := "station"
	if err == nil && cfg.NetworkMode == api.ModeAP {
		mode = "ap"
	}

	sendJSON(c, map[string]any{
		"type": "fw",
		"mode": mode,
		"ver": fmt.Sprintf("%s/%s/%s", h.fwVersion, h.httpdVersion, h.dbffsVersion),
	})
}

func (h *Handler) handleNetworks(c *wsframe.ConnState) {
	// Only one pending scan may be outstanding; concurrent requests
	// while one is in flight return silently.
	if h.scanPending {
		return
	}
	h.scanPending = true

	h.WiFi.Scan(func(results []api.ScanResult, err error) {
		h.scanPending = false
		if err != nil {
			return
		}
		ssids := make([]string, 0, len(results))
		for _, r := range results {
			ssids = append(ssids, r.SSID)
		}
		sort.Strings(ssids)
		sendJSON(c, map[string]any{
			"type": "networks",
			"ssids": ssids,
		})
	})
}

func (h *Handler) handleStation(c *wsframe.ConnState, env envelope) {
	var ssid, passwd, hostname string
	if raw, ok := env.raw["ssid"]; ok {
		json.Unmarshal(raw, &ssid)
	}
	if raw, ok := env.raw["passwd"]; ok {
		json.Unmarshal(raw, &passwd)
	}
	if raw, ok := env.raw["hostname"]; ok {
		json.Unmarshal(raw, &hostname)
	}

	if ssid != "" {
		h.WiFi.SetStationConfig(ssid, passwd)
	}
	if hostname != "" {
		cfg, err := h.Config.Load()
		if err == nil && cfg.Hostname != hostname {
			cfg.Hostname = hostname
			h.Config.Store(cfg)
		}
	}

	ip, _ := h.WiFi.GetIP(true)
	cfg, _ := h.Config.Load()
	sendJSON(c, map[string]any{
		"type": "station",
		"ssid": ssid,
		"hostname": cfg.Hostname,
		"ip": ip,
	})
}

func (h *Handler) handleAP(c *wsframe.ConnState) {
	info := h.WiFi.APInfo()
	cfg, _ := h.Config.Load()
	ip, _ := h.WiFi.GetIP(false)
	sendJSON(c, map[string]any{
		"type": "ap",
		"ssid": info.SSID,
		"channel": info.Channel,
		"hostname": cfg.Hostname,
		"ip": ip,
	})
}

func (h *Handler) handleGPIO(c *wsframe.ConnState, env envelope) {
	for key, raw := range env.raw {
		if key == "type" {
			continue
		}
		pin, ok := parsePin(key)
		if !ok || !h.pinEnabled(pin) {
			continue
		}
		var state int
		if err := json.Unmarshal(raw, &state); err != nil {
			continue
		}
		h.GPIO.Write(pin, state != 0)
	}

	sendJSON(c, h.gpioResponse())
}

// gpioResponse mirrors ws_wifiswitch_gpio_response: the enabled-pin
// list, plus current state keyed by pin number.
func (h *Handler) gpioResponse() map[string]any {
	mask := h.GPIO.EnabledMask()
	resp := map[string]any{"type": "gpio"}
	var gpios []int
	for pin := uint(0); pin < 64; pin++ {
		if mask&(1<<pin) == 0 {
			continue
		}
		gpios = append(gpios, int(pin))
		state := 0
		if h.GPIO.Read(pin) {
			state = 1
		}
		resp[fmt.Sprintf("%d", pin)] = state
	}
	resp["gpios"] = gpios
	return resp
}

func (h *Handler) pinEnabled(pin uint) bool {
	return h.GPIO.EnabledMask()&(1<<pin) != 0
}

func parsePin(key string) (uint, bool) {
	var pin uint
	_, err := fmt.Sscanf(key, "%d", &pin)
	return pin, err == nil
}

func parseMode(s string) (api.NetworkMode, bool) {
	switch s {
	case "station":
		return api.ModeStation, true
	case "ap":
		return api.ModeAP, true
	default:
		return 0, false
	}
}

func sendJSON(c *wsframe.ConnState, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Send(wsframe.OpText, payload)
}
