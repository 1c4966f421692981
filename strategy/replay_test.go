package strategy

import (
	"testing"

	"github.com/mchecker/machinecheck/trace"
)

func TestReplayReproducesRecordedChoices(t *testing.T) {
	tr := trace.New()
	tr.RecordSchedule(2)
	tr.RecordBool(true)
	tr.RecordInt(4)

	r := NewReplay(tr.Entries())

	m, ok := r.TryGetNext(runnableSet(1, 2, 3), nil)
	if !ok || m.Id.Value != 2 {
		t.Fatalf("expected replay to select machine 2, got %v ok=%v", m, ok)
	}
	b, ok := r.NextBool(2)
	if !ok || !b {
		t.Fatalf("expected replay to reproduce bool=true, got %v ok=%v", b, ok)
	}
	n, ok := r.NextInt(10)
	if !ok || n != 4 {
		t.Fatalf("expected replay to reproduce int=4, got %v ok=%v", n, ok)
	}

	if _, ok := r.NextBool(2); ok {
		t.Errorf("expected replay to report exhaustion past the end of the recorded run")
	}
	if !r.HasFinished() {
		t.Errorf("expected HasFinished once the run is exhausted")
	}
}

func TestReplayMismatchWhenMachineMissing(t *testing.T) {
	tr := trace.New()
	tr.RecordSchedule(99)
	r := NewReplay(tr.Entries())

	_, ok := r.TryGetNext(runnableSet(1, 2), nil)
	if ok {
		t.Fatalf("expected replay to fail when the recorded machine is not runnable")
	}
	if r.Mismatch() == nil {
		t.Errorf("expected Mismatch() to report the replay failure")
	}
}
