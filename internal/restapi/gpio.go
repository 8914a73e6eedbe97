// File: internal/restapi/gpio.go
// Package restapi
//
// `/rest/gpios` and `/rest/gpios/<N>`. Grounded on
// original_source/user/handlers/rest/gpio.c: the collection URI lists
// enabled pins, a per-pin URI reports/sets one pin's state, and a PUT
// against the collection (no specific pin) is rejected with 405 the
// same way the original's current_gpio<0 branch does.
package restapi

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/deadbok/wifiswitch-core/api"
	"github.com/deadbok/wifiswitch-core/internal/httpparse"
	"github.com/deadbok/wifiswitch-core/internal/httpserver"
)

const gpioPrefix = "/rest/gpios"

// GPIOHandler serves the GPIO REST surface.
type GPIOHandler struct {
	GPIO api.GPIO
}

type gpioPutBody struct {
	State int `json:"state"`
}

// Handle implements httpserver.Handler.
func (h *GPIOHandler) Handle(req *httpparse.Request, resp *httpserver.Response) httpserver.Result {
	if req.URI != gpioPrefix && !strings.HasPrefix(req.URI, gpioPrefix+"/") {
		return httpserver.DoneContinue
	}
	if req.Method != httpparse.MethodGET && req.Method != httpparse.MethodHEAD && req.Method != httpparse.MethodPUT {
		return httpserver.DoneContinue
	}

	pin, isPin := parseGPIOURI(req.URI)
	if isPin && h.GPIO.EnabledMask()&(1<<pin) == 0 {
		// Out-of-mask pin: decline so the terminal handler 404s.
		return httpserver.DoneContinue
	}

	switch req.Method {
	case httpparse.MethodGET, httpparse.MethodHEAD:
		if !isPin {
			return writeJSON(req, resp, 200, enabledPins(h.GPIO))
		}
		state := 0
		if h.GPIO.Read(pin) {
			state = 1
		}
		return writeJSON(req, resp, 200, map[string]any{"state": state})

	case httpparse.MethodPUT:
		if !isPin {
			return methodNotAllowed(resp)
		}
		var body gpioPutBody
		if err := json.Unmarshal(req.Body, &body); err != nil {
			return httpserver.DoneError
		}
		h.GPIO.Write(pin, body.State != 0)
		return writeNoContent(resp, 204)
	}
	return httpserver.DoneContinue
}

// parseGPIOURI reports the pin number addressed by a `/rest/gpios/N`
// URI, or isPin=false for the bare collection URI.
func parseGPIOURI(uri string) (pin uint, isPin bool) {
	rest := strings.TrimPrefix(uri, gpioPrefix)
	if rest == "" {
		return 0, false
	}
	rest = strings.TrimPrefix(rest, "/")
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}

// enabledPins lists every pin set in the enabled-pin bitmask (spec
// §4.G: "collection URI GET returns an array of enabled pins").
func enabledPins(gpio api.GPIO) []int {
	mask := gpio.EnabledMask()
	var pins []int
	for pin := uint(0); pin < 64; pin++ {
		if mask&(1<<pin) != 0 {
			pins = append(pins, int(pin))
		}
	}
	return pins
}
