package strategy

import (
	"testing"

	"github.com/mchecker/machinecheck/machine"
)

func runnableSet(ids ...int) []*machine.Info {
	out := make([]*machine.Info, 0, len(ids))
	for _, id := range ids {
		out = append(out, machine.NewInfo(machine.Id{Value: id}, machine.WorkerHandle(id)))
	}
	return out
}

func TestRandomDeterministicGivenSameSeed(t *testing.T) {
	a := NewRandom(7)
	b := NewRandom(7)

	run := runnableSet(0, 1, 2)
	for i := 0; i < 20; i++ {
		ma, okA := a.TryGetNext(run, nil)
		mb, okB := b.TryGetNext(run, nil)
		if okA != okB {
			t.Fatalf("step %d: ok mismatch %v vs %v", i, okA, okB)
		}
		if ma.Id.Value != mb.Id.Value {
			t.Errorf("step %d: same seed produced different choices: %d vs %d", i, ma.Id.Value, mb.Id.Value)
		}
	}
}

func TestRandomEmptyRunnable(t *testing.T) {
	r := NewRandom(1)
	_, ok := r.TryGetNext(nil, nil)
	if ok {
		t.Errorf("expected ok=false for empty runnable set")
	}
}

func TestRandomResetReplaysSameSequence(t *testing.T) {
	r := NewRandom(42)
	run := runnableSet(0, 1, 2, 3)

	first := make([]int, 0, 10)
	for i := 0; i < 10; i++ {
		m, _ := r.TryGetNext(run, nil)
		first = append(first, m.Id.Value)
	}

	r.Reset()
	for i := 0; i < 10; i++ {
		m, _ := r.TryGetNext(run, nil)
		if m.Id.Value != first[i] {
			t.Errorf("step %d: Reset did not reproduce the original sequence: got %d, want %d", i, m.Id.Value, first[i])
		}
	}
}
