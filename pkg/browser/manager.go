package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/prowl/pkg/config"
	"github.com/entrhq/prowl/pkg/logging"
	"github.com/entrhq/prowl/pkg/stats"
)

// Stat keys exported by the pool.
const (
	StatContexts           = "browser/context_count"
	StatPages              = "browser/page_count"
	StatPagesClosed        = "browser/page_count/closed"
	StatPagesMaxConcurrent = "browser/page_count/max_concurrent"
	StatRequests           = "browser/request_count"
	StatRequestsNavigation = "browser/request_count/navigation"
	StatRequestsAborted    = "browser/request_count/aborted"
	StatResponses          = "browser/response_count"
)

var (
	// ErrNotInitialized is returned when the pool is used before Initialize.
	ErrNotInitialized = errors.New("browser pool not initialized")

	// ErrSessionExists is returned by CreateSession for a duplicate name.
	ErrSessionExists = errors.New("session already exists")
)

// PoolManager owns the browser process and the named sessions opened in
// it. All registry mutations happen inside its methods under mu; tab
// and session lifecycle is driven by the typed events in events.go.
type PoolManager struct {
	cfg       *config.Config
	collector stats.Collector
	log       *logging.Logger

	mu          sync.RWMutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	sessions    map[string]*Session
	initialized bool
}

// NewPoolManager creates a pool for the given configuration. A nil
// collector falls back to an in-memory one.
func NewPoolManager(cfg *config.Config, collector stats.Collector) *PoolManager {
	if cfg == nil {
		cfg = config.Default()
	}
	if collector == nil {
		collector = stats.NewMemory()
	}
	log, _ := logging.NewLogger("pool")

	return &PoolManager{
		cfg:       cfg,
		collector: collector,
		log:       log,
		sessions:  make(map[string]*Session),
	}
}

// Initialize starts the playwright driver, launches the configured
// engine and creates the preconfigured contexts. It must be called
// before any session or tab operation and is idempotent.
func (m *PoolManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	var engine playwright.BrowserType
	switch m.cfg.Engine {
	case config.EngineFirefox:
		engine = pw.Firefox
	case config.EngineWebKit:
		engine = pw.WebKit
	default:
		engine = pw.Chromium
	}

	m.log.Infof("launching browser engine %s", m.cfg.Engine)
	browser, err := engine.Launch(m.launchOptions())
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("failed to launch %s: %w", m.cfg.Engine, err)
	}
	m.log.Infof("browser %s launched", m.cfg.Engine)

	m.pw = pw
	m.browser = browser
	m.initialized = true

	for name, ctxCfg := range m.cfg.Contexts {
		cc := ctxCfg
		if _, err := m.createSessionLocked(name, &cc); err != nil {
			return fmt.Errorf("failed to create preconfigured context %q: %w", name, err)
		}
	}

	return nil
}

// Engine returns the configured engine name.
func (m *PoolManager) Engine() string {
	return m.cfg.Engine
}

// Stats returns the pool's stats collector.
func (m *PoolManager) Stats() stats.Collector {
	return m.collector
}

// CreateSession creates a named session. It fails with ErrSessionExists
// if the name is already registered.
func (m *PoolManager) CreateSession(name string, ctxCfg *config.ContextConfig) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createSessionLocked(name, ctxCfg)
}

// createSessionLocked requires m.mu to be held.
func (m *PoolManager) createSessionLocked(name string, ctxCfg *config.ContextConfig) (*Session, error) {
	if _, exists := m.sessions[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrSessionExists, name)
	}
	if !m.initialized {
		return nil, ErrNotInitialized
	}

	browserContext, err := m.browser.NewContext(contextOptions(ctxCfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create context %q: %w", name, err)
	}

	if m.cfg.NavigationTimeoutMS > 0 {
		browserContext.SetDefaultNavigationTimeout(m.cfg.NavigationTimeoutMS)
	}

	sess := newSession(name, browserContext, NewGate(m.cfg.MaxPagesPerContext))
	browserContext.OnClose(func(playwright.BrowserContext) {
		m.handleSessionEvent(SessionEvent{Context: name})
	})

	m.sessions[name] = sess
	m.collector.Inc(StatContexts)
	m.log.Debugf("browser context started: %q", name)
	return sess, nil
}

// Session returns the named session, if registered.
func (m *PoolManager) Session(name string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[name]
	return sess, ok
}

// AcquireTab returns a new tab in the named session, creating the
// session from ctxCfg if it does not exist yet. It blocks while the
// session is at its page cap; that wait is back-pressure, not an error,
// and is bounded only by ctx.
func (m *PoolManager) AcquireTab(ctx context.Context, name string, ctxCfg *config.ContextConfig) (*Tab, error) {
	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return nil, ErrNotInitialized
	}
	sess, ok := m.sessions[name]
	if !ok {
		var err error
		sess, err = m.createSessionLocked(name, ctxCfg)
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
	}
	m.mu.Unlock()

	if err := sess.gate.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("waiting for page slot in context %q: %w", name, err)
	}

	page, err := sess.context.NewPage()
	if err != nil {
		sess.gate.Release()
		return nil, fmt.Errorf("failed to create page in context %q: %w", name, err)
	}

	if m.cfg.NavigationTimeoutMS > 0 {
		page.SetDefaultNavigationTimeout(m.cfg.NavigationTimeoutMS)
	}

	tab := &Tab{Page: page, session: sess}
	sess.addTab(tab)

	page.OnClose(func(playwright.Page) {
		m.handleTabEvent(TabEvent{Kind: TabClosed, Context: name, Tab: tab})
	})
	page.OnCrash(func(playwright.Page) {
		m.handleTabEvent(TabEvent{Kind: TabCrashed, Context: name, Tab: tab})
	})
	m.observeTraffic(name, page)

	m.collector.Inc(StatPages)
	total := m.totalTabs()
	m.collector.SetMax(StatPagesMaxConcurrent, int64(total))
	m.log.Debugf("[context=%s] new page, %d open in context (%d for all contexts)",
		name, sess.TabCount(), total)

	return tab, nil
}

// ReleaseTab closes the tab unless keepAlive is set, in which case the
// caller becomes responsible for closing it eventually.
func (m *PoolManager) ReleaseTab(tab *Tab, keepAlive bool) error {
	if tab == nil || keepAlive {
		return nil
	}
	if err := tab.Close(); err != nil {
		return fmt.Errorf("failed to close page in context %q: %w", tab.Context(), err)
	}
	return nil
}

// handleTabEvent processes a tab's terminal transition. The gate slot
// is released exactly once regardless of how many terminal events the
// engine delivers.
func (m *PoolManager) handleTabEvent(ev TabEvent) {
	ev.Tab.released(func() {
		if sess := ev.Tab.session; sess != nil {
			sess.removeTab(ev.Tab)
			sess.gate.Release()
		}
		m.collector.Inc(StatPagesClosed)
		if ev.Kind == TabCrashed {
			m.log.Warnf("[context=%s] page crashed", ev.Context)
		} else {
			m.log.Debugf("[context=%s] page closed", ev.Context)
		}
	})
}

// handleSessionEvent deregisters a session the engine reported closed.
// Dropping the session also drops its gate.
func (m *PoolManager) handleSessionEvent(ev SessionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[ev.Context]; ok {
		delete(m.sessions, ev.Context)
		m.log.Debugf("browser context closed: %q", ev.Context)
	}
}

// observeTraffic attaches per-page debug logging and request/response
// counters broken down by resource type and method.
func (m *PoolManager) observeTraffic(contextName string, page playwright.Page) {
	page.OnRequest(func(req playwright.Request) {
		m.log.Debugf("[context=%s] request: <%s %s> (resource type: %s, referer: %s)",
			contextName, req.Method(), req.URL(), req.ResourceType(), req.Headers()["referer"])
		m.collector.Inc(StatRequests)
		m.collector.Inc(StatRequests + "/resource_type/" + req.ResourceType())
		m.collector.Inc(StatRequests + "/method/" + req.Method())
		if req.IsNavigationRequest() {
			m.collector.Inc(StatRequestsNavigation)
		}
	})
	page.OnResponse(func(resp playwright.Response) {
		req := resp.Request()
		m.log.Debugf("[context=%s] response: <%d %s>", contextName, resp.Status(), resp.URL())
		m.collector.Inc(StatResponses)
		m.collector.Inc(StatResponses + "/resource_type/" + req.ResourceType())
		m.collector.Inc(StatResponses + "/method/" + req.Method())
	})
}

// totalTabs counts open tabs across all sessions.
func (m *PoolManager) totalTabs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, sess := range m.sessions {
		total += sess.TabCount()
	}
	return total
}

// Shutdown closes all sessions, the browser and the driver. The
// registry is cleared before the engine calls so session close events
// arriving during teardown find nothing to deregister.
func (m *PoolManager) Shutdown() error {
	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return nil
	}
	sessions := m.sessions
	browser := m.browser
	pw := m.pw
	m.sessions = make(map[string]*Session)
	m.browser = nil
	m.pw = nil
	m.initialized = false
	m.mu.Unlock()

	for name, sess := range sessions {
		if err := sess.context.Close(); err != nil {
			m.log.Warnf("failed to close context %q: %v", name, err)
		}
	}

	m.log.Infof("closing browser")
	var errs []error
	if err := browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
	}
	if err := pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

// launchOptions converts the launch config to engine launch options.
func (m *PoolManager) launchOptions() playwright.BrowserTypeLaunchOptions {
	launch := m.cfg.Launch

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(launch.Headless),
	}
	if len(launch.Args) > 0 {
		opts.Args = launch.Args
	}
	if launch.ExecutablePath != "" {
		opts.ExecutablePath = playwright.String(launch.ExecutablePath)
	}
	if launch.SlowMoMS > 0 {
		opts.SlowMo = playwright.Float(launch.SlowMoMS)
	}
	return opts
}

// contextOptions converts a context config to engine context options.
// A nil config yields engine defaults.
func contextOptions(ctxCfg *config.ContextConfig) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{}
	if ctxCfg == nil {
		return opts
	}

	if ctxCfg.UserAgent != "" {
		opts.UserAgent = playwright.String(ctxCfg.UserAgent)
	}
	if ctxCfg.Viewport != nil {
		opts.Viewport = &playwright.Size{
			Width:  ctxCfg.Viewport.Width,
			Height: ctxCfg.Viewport.Height,
		}
	}
	if ctxCfg.Locale != "" {
		opts.Locale = playwright.String(ctxCfg.Locale)
	}
	if ctxCfg.IgnoreHTTPSErrors {
		opts.IgnoreHttpsErrors = playwright.Bool(true)
	}
	if len(ctxCfg.ExtraHeaders) > 0 {
		opts.ExtraHttpHeaders = ctxCfg.ExtraHeaders
	}
	return opts
}
