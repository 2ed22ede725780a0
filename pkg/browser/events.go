package browser

// TabEventKind distinguishes the terminal transitions of a tab.
type TabEventKind int

const (
	// TabClosed means the page was closed, by us or by the engine.
	TabClosed TabEventKind = iota

	// TabCrashed means the page's renderer died.
	TabCrashed
)

// String returns the event kind name used in logs.
func (k TabEventKind) String() string {
	switch k {
	case TabClosed:
		return "closed"
	case TabCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// TabEvent is the single typed notification a tab delivers to the pool
// when it reaches a terminal state. Handling it releases the tab's gate
// slot exactly once and removes the tab from its session.
type TabEvent struct {
	Kind    TabEventKind
	Context string
	Tab     *Tab
}

// SessionEvent notifies the pool that the engine closed a context.
// Handling it deregisters the session and drops its gate.
type SessionEvent struct {
	Context string
}
