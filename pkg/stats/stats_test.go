package stats

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIncAndAdd(t *testing.T) {
	m := NewMemory()

	m.Inc("browser/page_count")
	m.Inc("browser/page_count")
	m.Add("browser/page_count", 3)

	assert.Equal(t, int64(5), m.Get("browser/page_count"))
	assert.Equal(t, int64(0), m.Get("browser/context_count"))
}

func TestMemorySetMaxIsMonotonic(t *testing.T) {
	m := NewMemory()

	m.SetMax("browser/page_count/max_concurrent", 3)
	m.SetMax("browser/page_count/max_concurrent", 1)
	assert.Equal(t, int64(3), m.Get("browser/page_count/max_concurrent"))

	m.SetMax("browser/page_count/max_concurrent", 7)
	assert.Equal(t, int64(7), m.Get("browser/page_count/max_concurrent"))
}

func TestMemoryConcurrentUpdates(t *testing.T) {
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				m.Inc("browser/request_count")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), m.Get("browser/request_count"))
}

func TestMemorySnapshotIsCopy(t *testing.T) {
	m := NewMemory()
	m.Inc("browser/context_count")

	snap := m.Snapshot()
	snap["browser/context_count"] = 99

	assert.Equal(t, int64(1), m.Get("browser/context_count"))
}

func TestPrometheusMirrorsMemory(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	p.Inc("browser/request_count/aborted")
	p.Add("browser/request_count/aborted", 2)
	p.SetMax("browser/page_count/max_concurrent", 4)
	p.SetMax("browser/page_count/max_concurrent", 2)

	assert.Equal(t, int64(3), p.Get("browser/request_count/aborted"))
	assert.Equal(t, int64(4), p.Get("browser/page_count/max_concurrent"))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 2)
}

func TestPrometheusDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewPrometheus(reg)
	require.NoError(t, err)

	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}
