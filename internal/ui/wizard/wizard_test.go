package wizard

import "testing"

func TestNew_StartsAtFirstStep(t *testing.T) {
	w := New(3)
	if w.Step() != 1 {
		t.Errorf("Step = %d, want 1", w.Step())
	}
	if !w.AtFirst() || w.AtLast() {
		t.Errorf("AtFirst = %v, AtLast = %v; want true, false", w.AtFirst(), w.AtLast())
	}
}

func TestNew_ClampsTotal(t *testing.T) {
	w := New(0)
	if w.TotalSteps() != 1 {
		t.Errorf("TotalSteps = %d, want 1", w.TotalSteps())
	}
	if !w.AtLast() {
		t.Error("single-step wizard should be at last step")
	}
}

func TestAdvance_StopsAtLast(t *testing.T) {
	w := New(3)
	if !w.Advance() || w.Step() != 2 {
		t.Fatalf("first Advance: step = %d, want 2", w.Step())
	}
	if !w.Advance() || w.Step() != 3 {
		t.Fatalf("second Advance: step = %d, want 3", w.Step())
	}
	// Already at the last step.
	if w.Advance() {
		t.Error("Advance at last step returned true")
	}
	if w.Step() != 3 {
		t.Errorf("step = %d after over-advance, want 3", w.Step())
	}
}

func TestRetreat_StopsAtFirst(t *testing.T) {
	w := New(3)
	w.Advance()
	if !w.Retreat() || w.Step() != 1 {
		t.Fatalf("Retreat: step = %d, want 1", w.Step())
	}
	if w.Retreat() {
		t.Error("Retreat at first step returned true")
	}
	if w.Step() != 1 {
		t.Errorf("step = %d after over-retreat, want 1", w.Step())
	}
}

func TestReset(t *testing.T) {
	w := New(3)
	w.Advance()
	w.Advance()
	w.Reset()
	if w.Step() != 1 {
		t.Errorf("step = %d after Reset, want 1", w.Step())
	}
}
