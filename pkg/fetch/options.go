package fetch

import (
	"net/http"
	"time"

	"github.com/entrhq/prowl/pkg/browser"
	"github.com/entrhq/prowl/pkg/config"
)

// DefaultContext is the session used when a request names none.
const DefaultContext = "default"

// Event identifies a page event a caller can bind a handler to.
type Event string

// Supported page events. Bindings for any other event are skipped with
// a warning.
const (
	EventClose     Event = "close"
	EventCrash     Event = "crash"
	EventRequest   Event = "request"
	EventResponse  Event = "response"
	EventConsole   Event = "console"
	EventDialog    Event = "dialog"
	EventDownload  Event = "download"
	EventPageError Event = "pageerror"
)

// EventHandler receives the event's engine payload (for example a
// playwright.Request for EventRequest).
type EventHandler func(payload any)

// HandlerResolver resolves a handler bound by name. Callers that bind
// handlers by name (rather than passing the function directly)
// implement this on the object driving the fetch.
type HandlerResolver interface {
	ResolveHandler(name string) (EventHandler, bool)
}

// Options is the per-fetch options bag.
type Options struct {
	// Context names the target session. Empty means DefaultContext.
	Context string

	// ContextConfig is used only if the session does not exist yet.
	ContextConfig *config.ContextConfig

	// Tab, if supplied and still open, is reused and acquisition is
	// skipped. The tab keeps its gate slot either way.
	Tab *browser.Tab

	// Actions run in order after navigation.
	Actions []*Action

	// EventHandlers are attached to the tab before navigation.
	EventHandlers map[Event]EventHandler

	// NamedEventHandlers bind events to handler names resolved through
	// HandlerResolver. Unresolvable names are skipped with a warning.
	NamedEventHandlers map[Event]string
	HandlerResolver    HandlerResolver

	// KeepTab leaves the tab open after assembly; the caller receives
	// it on the Result and must close it eventually.
	KeepTab bool

	// AbortRule, when set, overrides the fetcher's configured rule.
	// Matching requests are aborted before they reach the network.
	AbortRule AbortRule

	// ProcessHeaders, when set, overrides the fetcher's configured
	// header processor.
	ProcessHeaders HeaderProcessor

	// Encoding is the charset used to decode Request.Body for the
	// navigation override. Empty means utf-8.
	Encoding string
}

// contextName returns the target session name.
func (o *Options) contextName() string {
	if o == nil || o.Context == "" {
		return DefaultContext
	}
	return o.Context
}

// Request is the inbound unit of work.
type Request struct {
	// URL is the navigation target.
	URL string

	// Method overrides the navigation request's method. Empty means GET.
	Method string

	// Headers are the caller's outbound headers. The interceptor
	// mutates them in place to reflect what was actually sent.
	Headers http.Header

	// Body is the navigation request payload, decoded with
	// Options.Encoding before being handed to the engine.
	Body []byte

	// Options is the per-fetch options bag.
	Options Options
}

// method returns the effective navigation method.
func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

// Result is what a completed fetch hands back to the caller.
type Result struct {
	// Response is the assembled protocol-level response.
	Response *Response

	// Tab is the retained tab when Options.KeepTab was set.
	Tab *browser.Tab

	// Latency is the elapsed time from navigation start to assembly.
	Latency time.Duration
}
