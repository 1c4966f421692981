package statecache

import (
	"testing"

	"github.com/mchecker/machinecheck/trace"
)

func TestNullCacheIsAlwaysZero(t *testing.T) {
	var c NullCache
	c.Capture(trace.Entry{}, 123)
	if got := c.Seen(123); got != 0 {
		t.Errorf("NullCache.Seen should always report 0, got %d", got)
	}
}

func TestRistrettoCacheCountsRepeatedFingerprints(t *testing.T) {
	c, err := NewRistrettoCache(1024)
	if err != nil {
		t.Fatalf("NewRistrettoCache: %v", err)
	}
	defer c.Close()

	head := trace.Entry{Kind: trace.ScheduleChoiceKind, MachineId: 1}
	c.Capture(head, 42)
	c.c.Wait()
	c.Capture(head, 42)
	c.c.Wait()
	c.Capture(head, 42)
	c.c.Wait()

	if got := c.Seen(42); got != 3 {
		t.Errorf("expected fingerprint 42 to have been seen 3 times, got %d", got)
	}
	if got := c.Seen(7); got != 0 {
		t.Errorf("expected an unseen fingerprint to report 0, got %d", got)
	}
}
