package strategy

import "testing"

func TestDelayBoundedIsRoundRobinWithZeroDelays(t *testing.T) {
	d := NewDelayBounded(1, 0)
	d.ConfigureNextIteration()

	run := runnableSet(0, 1, 2)
	want := []int{0, 1, 2, 0, 1, 2}
	for i, w := range want {
		m, ok := d.TryGetNext(run, nil)
		if !ok {
			t.Fatalf("step %d: expected a choice", i)
		}
		if m.Id.Value != w {
			t.Errorf("step %d: got %d, want %d (round robin with no delay budget)", i, m.Id.Value, w)
		}
	}
}

func TestDelayBoundedIsFair(t *testing.T) {
	d := NewDelayBounded(1, 2)
	if !d.IsFair() {
		t.Errorf("DelayBounded should report IsFair=true: round robin with bounded delay guarantees progress")
	}
}
