package strategy

import "testing"

func TestComboHandsOffAtPrefixDepth(t *testing.T) {
	prefix := NewDFS()
	suffix := NewRandom(3)
	c := NewCombo(prefix, suffix, 2)

	c.NextBool(2)
	if c.usingSuffix {
		t.Fatalf("should still be in the prefix phase after 1 decision")
	}
	c.NextBool(2)
	c.maybeHandOff()
	if !c.usingSuffix {
		t.Errorf("expected hand-off to the suffix strategy after reaching prefixDepth=2")
	}
}

func TestComboHasFinishedTracksPrefixOnly(t *testing.T) {
	prefix := NewDFS()
	suffix := NewRandom(9)
	c := NewCombo(prefix, suffix, 1)

	iterations := 0
	for !c.HasFinished() && iterations < 1000 {
		c.NextBool(2)
		c.ConfigureNextIteration()
		iterations++
	}
	if !prefix.HasFinished() {
		t.Errorf("expected the prefix DFS itself to report finished")
	}
}
