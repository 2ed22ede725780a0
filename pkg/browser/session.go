package browser

import (
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Session is a named browser context and the set of tabs open in it.
// At most Gate().Capacity() tabs are open at any instant.
type Session struct {
	name    string
	context playwright.BrowserContext
	gate    *Gate

	mu   sync.Mutex
	tabs map[*Tab]struct{}
}

func newSession(name string, context playwright.BrowserContext, gate *Gate) *Session {
	return &Session{
		name:    name,
		context: context,
		gate:    gate,
		tabs:    make(map[*Tab]struct{}),
	}
}

// Name returns the session's unique name.
func (s *Session) Name() string {
	return s.name
}

// Context returns the underlying browser context.
func (s *Session) Context() playwright.BrowserContext {
	return s.context
}

// Gate returns the session's concurrency gate.
func (s *Session) Gate() *Gate {
	return s.gate
}

// TabCount returns the number of currently open tabs.
func (s *Session) TabCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tabs)
}

func (s *Session) addTab(t *Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[t] = struct{}{}
}

func (s *Session) removeTab(t *Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabs, t)
}
