package fetch

import (
	"fmt"
	"net/http"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/prowl/pkg/browser"
	"github.com/entrhq/prowl/pkg/logging"
	"github.com/entrhq/prowl/pkg/stats"
)

// routePattern matches every request the page issues, sub-resources
// included.
const routePattern = "**/*"

// continuer is the slice of playwright.Route the interceptor needs.
type continuer interface {
	Abort(errorCode ...string) error
	Continue(options ...playwright.RouteContinueOptions) error
}

// interceptor rewrites or aborts every outgoing request of one fetch.
// It is rebuilt and reinstalled for every fetch so no stale method,
// body or header state survives from a previous request on a reused
// tab.
type interceptor struct {
	engine   string
	method   string
	headers  http.Header // the caller's header object, mutated in place
	body     []byte
	encoding string
	process  HeaderProcessor
	abort    AbortRule

	collector stats.Collector
	log       *logging.Logger
}

// install replaces any previously installed interceptor on the page.
func (ic *interceptor) install(page playwright.Page) error {
	if err := page.Unroute(routePattern); err != nil {
		return fmt.Errorf("failed to remove previous interceptor: %w", err)
	}
	if err := page.Route(routePattern, func(route playwright.Route) {
		if err := ic.handle(route, route.Request()); err != nil {
			ic.log.Debugf("interceptor: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to install interceptor: %w", err)
	}
	return nil
}

// handle decides the outbound shape of one intercepted request.
// Requests are processed as the engine delivers them; there is no
// ordering guarantee between sibling requests and the navigation.
func (ic *interceptor) handle(route continuer, req InterceptedRequest) error {
	if ic.abort != nil && ic.abort(req) {
		ic.collector.Inc(browser.StatRequestsAborted)
		if err := route.Abort(); err != nil {
			return fmt.Errorf("failed to abort <%s %s>: %w", req.Method(), req.URL(), err)
		}
		return nil
	}

	processed := ic.process(ic.engine, req, ic.headers)
	replaceHeaders(ic.headers, processed)

	opts := playwright.RouteContinueOptions{
		Headers: flattenHeaders(processed),
	}
	if req.IsNavigationRequest() {
		opts.Method = playwright.String(ic.method)
		if ic.body != nil {
			text, err := decodeBody(ic.body, ic.encoding)
			if err != nil {
				// send raw bytes rather than stalling the navigation
				ic.log.Warnf("failed to decode request body as %q: %v", ic.encoding, err)
				text = string(ic.body)
			}
			opts.PostData = text
		}
	}

	if err := route.Continue(opts); err != nil {
		return fmt.Errorf("failed to continue <%s %s>: %w", req.Method(), req.URL(), err)
	}
	return nil
}
