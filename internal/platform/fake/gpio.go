// Package fake
//
// In-memory stand-ins for the platform collaborators this design/§6 treat
// as out of scope (GPIO, persistent config, scheduler, WiFi radio):
// small, mutex-guarded structs implementing the corresponding api
// interface, built for tests and the demo entrypoint rather than a
// real ESP8266 target.
package fake

import "sync"

// GPIO is an in-memory api.GPIO backed by a bitmask of enabled pins
// and a per-pin state map.
type GPIO struct {
	mu sync.Mutex
	enabled uint64
	state map[uint]bool
	buttons map[uint]func(pin uint)
}

// NewGPIO constructs a GPIO with enabled marking which of up to 64
// pins are switchable (spec's WS_WIFISWITCH_GPIO_ENABLED equivalent).
func NewGPIO(enabled uint64) *GPIO {
	return &GPIO{
		enabled: enabled,
		state: make(map[uint]bool),
		buttons: make(map[uint]func(pin uint)),
	}
}

// Read reports pin's current state.
func (g *GPIO) Read(pin uint) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state[pin]
}

// Write sets pin's output state.
func (g *GPIO) Write(pin uint, high bool) {
	g.mu.Lock()
	g.state[pin] = high
	g.mu.Unlock()
}

// EnabledMask reports which pins this device exposes.
func (g *GPIO) EnabledMask() uint64 {
	return g.enabled
}

// OnButton registers handler to be invoked by Press.
func (g *GPIO) OnButton(pin uint, handler func(pin uint)) {
	g.mu.Lock()
	g.buttons[pin] = handler
	g.mu.Unlock()
}

// Press simulates a physical button press on pin, invoking any
// handler registered via OnButton. Test-only; no platform.api method
// calls this.
func (g *GPIO) Press(pin uint) {
	g.mu.Lock()
	handler := g.buttons[pin]
	g.mu.Unlock()
	if handler != nil {
		handler(pin)
	}
}
