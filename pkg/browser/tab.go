package browser

import (
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Tab is a single page opened inside a Session. It is created per fetch
// (or supplied by the caller for reuse) and closed after response
// assembly unless the caller asked to keep it.
type Tab struct {
	// Page is the underlying engine page.
	Page playwright.Page

	session *Session
	release sync.Once
}

// Session returns the session this tab belongs to.
func (t *Tab) Session() *Session {
	return t.session
}

// Context returns the name of the session this tab belongs to.
func (t *Tab) Context() string {
	if t.session == nil {
		return ""
	}
	return t.session.name
}

// Close closes the underlying page if it is still open. The page's
// close event releases the gate slot, so Close never releases directly.
func (t *Tab) Close() error {
	if t.Page == nil || t.Page.IsClosed() {
		return nil
	}
	return t.Page.Close()
}

// released runs fn the first time a terminal event arrives for this
// tab, guaranteeing the gate slot is given back exactly once even if
// the engine reports both a crash and a close.
func (t *Tab) released(fn func()) {
	t.release.Do(fn)
}
