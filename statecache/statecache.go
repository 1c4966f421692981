// Package statecache implements the scheduler's StateCache hook: an
// opaque sink the scheduler calls at each scheduling step once the
// configured safety-prefix bound has been passed, handed the trace head
// and a caller-supplied state fingerprint. The scheduler never reads the
// hook back; a Cache exists purely so a strategy or bug report can later
// ask how often a fingerprint has recurred.
package statecache

import (
	"github.com/dgraph-io/ristretto"

	"github.com/mchecker/machinecheck/trace"
)

// Cache is the StateCache hook the scheduler calls once the configured
// safety-prefix bound has been passed.
type Cache interface {
	// Capture records that fingerprint was observed at the scheduling
	// step whose trace head is head.
	Capture(head trace.Entry, fingerprint uint64)
	// Seen returns how many times fingerprint has been captured so far.
	// A bounded cache may evict and under-report; callers must treat
	// the result as an estimate, exactly as ristretto's own counters do.
	Seen(fingerprint uint64) int64
	// Close releases any background resources the cache holds.
	Close()
}

// NullCache is a no-op Cache used when Options.CacheProgramState is
// false. It is the zero-cost default.
type NullCache struct{}

func (NullCache) Capture(trace.Entry, uint64) {}
func (NullCache) Seen(uint64) int64           { return 0 }
func (NullCache) Close()                      {}

// RistrettoCache is the bundled Cache backed by dgraph-io/ristretto, a
// bounded, concurrent-safe, admission-policy cache, reduced here to a
// pure counting cache with no persisted values.
type RistrettoCache struct {
	c *ristretto.Cache
}

// NewRistrettoCache creates a RistrettoCache bounded to approximately
// maxItems distinct fingerprints. maxItems of 0 falls back to a
// reasonable default of 1<<20.
func NewRistrettoCache(maxItems int64) (*RistrettoCache, error) {
	if maxItems <= 0 {
		maxItems = 1 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &RistrettoCache{c: c}, nil
}

func (r *RistrettoCache) Capture(_ trace.Entry, fingerprint uint64) {
	count := int64(1)
	if v, ok := r.c.Get(fingerprint); ok {
		count = v.(int64) + 1
	}
	r.c.Set(fingerprint, count, 1)
}

func (r *RistrettoCache) Seen(fingerprint uint64) int64 {
	v, ok := r.c.Get(fingerprint)
	if !ok {
		return 0
	}
	return v.(int64)
}

func (r *RistrettoCache) Close() {
	r.c.Close()
}
