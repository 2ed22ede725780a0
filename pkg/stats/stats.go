// Package stats collects hierarchical counters about browser pool and
// fetch pipeline activity. Keys are slash-separated paths such as
// "browser/page_count/closed", so breakdowns by resource type or method
// are just deeper keys.
package stats

import "sync"

// Collector receives counter updates from the pool and the fetch
// pipeline. Implementations must be safe for concurrent use.
type Collector interface {
	// Inc increments the named counter by one.
	Inc(key string)

	// Add increments the named counter by delta.
	Add(key string, delta int64)

	// SetMax records value under key if it exceeds the current value.
	SetMax(key string, value int64)

	// Get returns the current value for key (zero if never written).
	Get(key string) int64
}

// Memory is the default in-process Collector.
type Memory struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemory creates an empty in-memory collector.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]int64)}
}

// Inc increments the named counter by one.
func (m *Memory) Inc(key string) {
	m.Add(key, 1)
}

// Add increments the named counter by delta.
func (m *Memory) Add(key string, delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] += delta
}

// SetMax records value under key if it exceeds the current value.
func (m *Memory) SetMax(key string, value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value > m.values[key] {
		m.values[key] = value
	}
}

// Get returns the current value for key.
func (m *Memory) Get(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

// Snapshot returns a copy of all counters.
func (m *Memory) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int64, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}
