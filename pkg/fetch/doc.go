// Package fetch retrieves pages through the browser pool instead of a
// raw HTTP client, preserving JavaScript-rendered content and realistic
// network behavior.
//
// A fetch runs as one pipeline: acquire a tab from the pool (or reuse a
// caller-supplied one), attach event handlers, install the request
// interceptor, navigate, run the scripted page actions, assemble a
// protocol-level response from the rendered state, then release the
// tab. Cleanup is guaranteed on every exit path so a failed fetch never
// leaks a gate slot.
//
// The interceptor sees every request the page issues, including
// sub-resources. It is the only place the outbound network shape is
// decided: abort rules run first, then the header processor, and
// navigation requests additionally get their method and body overridden
// to match the caller's request.
package fetch
