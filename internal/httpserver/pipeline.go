// File: internal/httpserver/pipeline.go
// Package httpserver
//
// Handler chaining and URI-pattern matching. Grounded on
// lowlevel/server/handler_chain.go's Middleware-chain idiom, reshaped
// from a wrap-the-next-handler chain into a registration-ordered list
// with first-match-wins URI patterns, because this design requires
// scanning in registration order and short-circuiting on DONE_FINAL —
// a composition of closures can't express "try the next *registered*
// handler" once a specific match has already run.
package httpserver

import (
	"strings"

	"github.com/deadbok/wifiswitch-core/internal/httpparse"
)

// ResultCode is a handler's outcome.
type ResultCode int

const (
	// ResultSent means the handler wrote bytes and should be asked
	// again once more send-buffer space is available.
	ResultSent ResultCode = iota
	// ResultDoneFinal means the handler fully served the request.
	ResultDoneFinal
	// ResultDoneContinue means the handler declined; try the next one.
	ResultDoneContinue
	// ResultDoneNoDealloc means the handler suspended pending an async
	// event and the request must be kept alive.
	ResultDoneNoDealloc
	// ResultDoneError means the handler failed.
	ResultDoneError
)

// Result is what a Handler returns.
type Result struct {
	Code ResultCode
	// N is the byte count sent so far, meaningful only for ResultSent.
	N int
}

var (
	Sent = func(n int) Result { return Result{Code: ResultSent, N: n} }
	DoneFinal = Result{Code: ResultDoneFinal}
	DoneContinue = Result{Code: ResultDoneContinue}
	DoneNoDealloc = Result{Code: ResultDoneNoDealloc}
	DoneError = Result{Code: ResultDoneError}
)

// Handler processes (or declines) one request.
type Handler func(req *httpparse.Request, resp *Response) Result

type route struct {
	pattern string
	prefix bool
	handler Handler
}

// Pipeline is the ordered handler chain plus the terminal fallback.
type Pipeline struct {
	routes []route
	terminal Handler
	errorHandler Handler
}

// NewPipeline constructs an empty pipeline with the given terminal
// (always-matches) handler.
func NewPipeline(terminal Handler) *Pipeline {
	return &Pipeline{terminal: terminal}
}

// SetErrorHandler installs the error-page filesystem handler (spec
// §4.G) that gets one shot at a `/<code>.html` lookup whenever the
// chain produces a ≥400 status — either because no route claimed the
// request or because a route reported DoneError — before the
// terminal handler's canned body is the fallback.
func (p *Pipeline) SetErrorHandler(h Handler) {
	p.errorHandler = h
}

// Register adds handler for pattern, in registration order (spec
// §4.F: "specific patterns must be registered before generic ones").
// A trailing '*' means prefix match; otherwise the pattern must match
// the URI exactly.
func (p *Pipeline) Register(pattern string, handler Handler) {
	prefix := strings.HasSuffix(pattern, "*")
	trimmed := strings.TrimSuffix(pattern, "*")
	p.routes = append(p.routes, route{pattern: trimmed, prefix: prefix, handler: handler})
}

func (rt route) matches(uri string) bool {
	if rt.prefix {
		return strings.HasPrefix(uri, rt.pattern)
	}
	return uri == rt.pattern
}

// Dispatch runs req through the chain starting at routes[from],
// stopping at the first handler that does not return DoneContinue. A
// handler reporting DoneError is driven to a response here rather than
// handed back to the caller (spec §7: "HTTP path converts to 500 if
// nothing has been sent yet"), so the only Results Dispatch ever
// returns are ResultSent, ResultDoneFinal and ResultDoneNoDealloc.
// from is 0 for a fresh request and the index the caller stashed for a
// resumed (suspended or partially-sent) one.
func (p *Pipeline) Dispatch(req *httpparse.Request, resp *Response, from int) (Result, int) {
	for i := from; i < len(p.routes); i++ {
		rt := p.routes[i]
		if !rt.matches(req.URI) {
			continue
		}
		result := rt.handler(req, resp)
		switch result.Code {
		case ResultDoneContinue:
			continue
		case ResultDoneError:
			return p.fail(req, resp), len(p.routes)
		default:
			return result, i
		}
	}
	return p.miss(req, resp), len(p.routes)
}

// fail drives a handler-reported failure to a response: the error-page
// handler gets one attempt at a `/500.html` (or whatever status is
// already set), then the terminal handler emits the canned body. Spec
// §7: "I/O error... HTTP path converts to 500 if nothing has been sent
// yet."
func (p *Pipeline) fail(req *httpparse.Request, resp *Response) Result {
	resp.Error()
	if resp.Status < 400 {
		resp.Status = 500
	}
	if p.errorHandler != nil {
		if result := p.errorHandler(req, resp); isFinalResult(result) {
			return result
		}
	}
	return p.terminal(req, resp)
}

// miss drives an unmatched request — every registered handler declined
// — to a response: spec §7 "walk the handler chain for an error-page
// producer; if none succeeds, the terminal built-in handler emits a
// canned HTML error page."
func (p *Pipeline) miss(req *httpparse.Request, resp *Response) Result {
	if resp.Status == 0 {
		resp.Status = 404
	}
	if p.errorHandler != nil {
		if result := p.errorHandler(req, resp); isFinalResult(result) {
			return result
		}
	}
	return p.terminal(req, resp)
}

// isFinalResult reports whether result came from a handler that
// actually served the request, as opposed to declining (DoneContinue)
// or failing in turn (DoneError) — either of which falls through to
// the terminal handler instead.
func isFinalResult(result Result) bool {
	switch result.Code {
	case ResultDoneContinue, ResultDoneError:
		return false
	default:
		return true
	}
}
