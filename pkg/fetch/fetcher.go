package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/prowl/pkg/browser"
	"github.com/entrhq/prowl/pkg/config"
	"github.com/entrhq/prowl/pkg/logging"
	"github.com/entrhq/prowl/pkg/stats"
)

// Fetcher sequences the fetch pipeline: acquire tab, install
// interceptor, navigate, run actions, assemble response, release tab.
// Retries are the caller's responsibility.
type Fetcher struct {
	cfg       *config.Config
	pool      *browser.PoolManager
	collector stats.Collector
	log       *logging.Logger
	sniffer   Sniffer

	// configured defaults, overridable per fetch
	process HeaderProcessor
	abort   AbortRule
}

// NewFetcher creates a fetcher on top of an initialized pool, resolving
// the configured header processor and abort patterns.
func NewFetcher(cfg *config.Config, pool *browser.PoolManager) (*Fetcher, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if pool == nil {
		return nil, errors.New("fetcher requires a browser pool")
	}

	process := Passthrough
	if cfg.HeaderProcessor != "" {
		var err error
		process, err = LookupHeaderProcessor(cfg.HeaderProcessor)
		if err != nil {
			return nil, err
		}
	}

	var abort AbortRule
	if len(cfg.AbortPatterns) > 0 {
		var err error
		abort, err = AbortPatterns(cfg.AbortPatterns...)
		if err != nil {
			return nil, err
		}
	}

	log, _ := logging.NewLogger("fetch")

	return &Fetcher{
		cfg:       cfg,
		pool:      pool,
		collector: pool.Stats(),
		log:       log,
		sniffer:   MimeSniffer{},
		process:   process,
		abort:     abort,
	}, nil
}

// Fetch runs the full pipeline for one request. On failure the tab is
// force-closed (releasing its gate slot) and the error is returned
// unchanged in meaning; there is no silent swallowing. Cancellation of
// ctx during acquisition is honored directly; later phases check it
// between suspension points.
func (f *Fetcher) Fetch(ctx context.Context, req *Request) (result *Result, err error) {
	if req == nil || req.URL == "" {
		return nil, errors.New("fetch request requires a URL")
	}
	opts := &req.Options

	if err := ValidateActions(opts.Actions); err != nil {
		return nil, err
	}

	tab, err := f.acquire(ctx, req)
	if err != nil {
		return nil, err
	}

	// single error edge: whatever phase fails, the tab is closed so
	// the gate slot comes back
	defer func() {
		if err != nil && tab != nil {
			if closeErr := tab.Close(); closeErr != nil {
				f.log.Warnf("[context=%s] failed to close page after error: %v", tab.Context(), closeErr)
			}
		}
	}()

	f.attachEventHandlers(tab.Page, opts)

	ic := &interceptor{
		engine:    f.pool.Engine(),
		method:    req.method(),
		headers:   req.Headers,
		body:      req.Body,
		encoding:  opts.Encoding,
		process:   f.headerProcessor(opts),
		abort:     f.abortRule(opts),
		collector: f.collector,
		log:       f.log,
	}
	if err = ic.install(tab.Page); err != nil {
		return nil, err
	}

	start := time.Now()
	nav, err := tab.Page.Goto(req.URL)
	if err != nil {
		err = fmt.Errorf("navigation to %s failed: %w", req.URL, err)
		return nil, err
	}
	if nav == nil {
		err = fmt.Errorf("navigation to %s produced no response", req.URL)
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	runner := NewRunner(f.log, f.cfg.NavigationTimeoutMS)
	if err = runner.Run(tab.Page, opts.Actions); err != nil {
		return nil, err
	}

	resp, err := assembleResponse(tab.Page, nav, f.sniffer)
	if err != nil {
		return nil, err
	}
	latency := time.Since(start)

	result = &Result{
		Response: resp,
		Latency:  latency,
	}

	if opts.KeepTab {
		result.Tab = tab
		return result, nil
	}
	if err = f.pool.ReleaseTab(tab, false); err != nil {
		return nil, err
	}
	return result, nil
}

// acquire returns the tab to fetch with: the caller-supplied one when
// it is still usable, otherwise a fresh tab from the pool.
func (f *Fetcher) acquire(ctx context.Context, req *Request) (*browser.Tab, error) {
	opts := &req.Options
	if opts.Tab != nil && opts.Tab.Page != nil && !opts.Tab.Page.IsClosed() {
		return opts.Tab, nil
	}
	return f.pool.AcquireTab(ctx, opts.contextName(), opts.ContextConfig)
}

func (f *Fetcher) headerProcessor(opts *Options) HeaderProcessor {
	if opts.ProcessHeaders != nil {
		return opts.ProcessHeaders
	}
	return f.process
}

func (f *Fetcher) abortRule(opts *Options) AbortRule {
	if opts.AbortRule != nil {
		return opts.AbortRule
	}
	return f.abort
}

// attachEventHandlers binds the caller's event handlers to the page.
// Unresolvable names and unsupported events are warned about and
// skipped; they never fail the fetch.
func (f *Fetcher) attachEventHandlers(page playwright.Page, opts *Options) {
	handlers := make(map[Event]EventHandler, len(opts.EventHandlers)+len(opts.NamedEventHandlers))
	for event, handler := range opts.EventHandlers {
		handlers[event] = handler
	}

	for event, name := range opts.NamedEventHandlers {
		if opts.HandlerResolver == nil {
			f.log.Warnf("no handler resolver set, ignoring handler %q for event %q", name, event)
			continue
		}
		handler, ok := opts.HandlerResolver.ResolveHandler(name)
		if !ok {
			f.log.Warnf("could not resolve handler %q, ignoring handler for event %q", name, event)
			continue
		}
		handlers[event] = handler
	}

	for event, handler := range handlers {
		h := handler
		switch event {
		case EventClose:
			page.OnClose(func(p playwright.Page) { h(p) })
		case EventCrash:
			page.OnCrash(func(p playwright.Page) { h(p) })
		case EventRequest:
			page.OnRequest(func(r playwright.Request) { h(r) })
		case EventResponse:
			page.OnResponse(func(r playwright.Response) { h(r) })
		case EventConsole:
			page.OnConsole(func(m playwright.ConsoleMessage) { h(m) })
		case EventDialog:
			page.OnDialog(func(d playwright.Dialog) { h(d) })
		case EventDownload:
			page.OnDownload(func(d playwright.Download) { h(d) })
		case EventPageError:
			page.OnPageError(func(e error) { h(e) })
		default:
			f.log.Warnf("unsupported page event %q, ignoring handler", event)
		}
	}
}
