package fetch

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// InterceptedRequest is the fetch pipeline's view of a request the
// engine is about to issue. playwright.Request satisfies it; tests use
// small fakes.
type InterceptedRequest interface {
	URL() string
	Method() string
	ResourceType() string
	IsNavigationRequest() bool
	Headers() map[string]string
}

// HeaderProcessor decides the header set actually sent for an
// intercepted request, given the engine name, the intercepted request
// and the caller's outbound headers.
type HeaderProcessor func(engine string, req InterceptedRequest, outbound http.Header) http.Header

// Passthrough sends exactly the caller's headers on every request.
// This is the default processor.
func Passthrough(engine string, req InterceptedRequest, outbound http.Header) http.Header {
	return outbound
}

// EngineUserAgent sends the caller's headers on navigation requests but
// keeps the engine's own User-Agent, and leaves sub-resource requests
// entirely to the engine. Useful when the caller's header set would
// contradict the engine's TLS fingerprint.
func EngineUserAgent(engine string, req InterceptedRequest, outbound http.Header) http.Header {
	engineHeaders := req.Headers()

	if !req.IsNavigationRequest() {
		result := make(http.Header, len(engineHeaders))
		for k, v := range engineHeaders {
			result.Set(k, v)
		}
		return result
	}

	result := outbound.Clone()
	if ua, ok := engineHeaders["user-agent"]; ok {
		result.Set("User-Agent", ua)
	}
	return result
}

var (
	processorMu sync.RWMutex
	processors  = map[string]HeaderProcessor{
		"passthrough":       Passthrough,
		"engine_user_agent": EngineUserAgent,
	}
)

// RegisterHeaderProcessor makes a processor available by name, so
// configuration files can reference it.
func RegisterHeaderProcessor(name string, p HeaderProcessor) {
	processorMu.Lock()
	defer processorMu.Unlock()
	processors[name] = p
}

// LookupHeaderProcessor resolves a registered processor by name.
func LookupHeaderProcessor(name string) (HeaderProcessor, error) {
	processorMu.RLock()
	defer processorMu.RUnlock()

	p, ok := processors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown header processor %q", name)
	}
	return p, nil
}

// replaceHeaders mutates dst in place so it holds exactly src's
// entries. Later consumers of the caller's header object then see the
// headers that were truly sent. src is cloned up front because
// processors may return the caller's own header object.
func replaceHeaders(dst, src http.Header) {
	if dst == nil {
		return
	}
	cloned := src.Clone()
	for k := range dst {
		delete(dst, k)
	}
	for k, values := range cloned {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}

// flattenHeaders converts multi-valued headers to the single-valued map
// the engine consumes.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, values := range h {
		out[k] = strings.Join(values, ", ")
	}
	return out
}
