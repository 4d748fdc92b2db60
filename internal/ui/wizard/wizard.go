// Package wizard tracks progress through a fixed multi-step form.
package wizard

// Wizard is a linear step counter. Steps are 1-based; the zero value is not
// usable, construct with New.
type Wizard struct {
	step  int
	total int
}

// New creates a wizard with totalSteps steps, positioned at step 1. A total
// below 1 is clamped to 1.
func New(totalSteps int) *Wizard {
	if totalSteps < 1 {
		totalSteps = 1
	}
	return &Wizard{step: 1, total: totalSteps}
}

// Step returns the current 1-based step.
func (w *Wizard) Step() int {
	return w.step
}

// TotalSteps returns the number of steps.
func (w *Wizard) TotalSteps() int {
	return w.total
}

// Advance moves forward one step. At the last step it is a no-op and returns
// false.
func (w *Wizard) Advance() bool {
	if w.step >= w.total {
		return false
	}
	w.step++
	return true
}

// Retreat moves back one step. At the first step it is a no-op and returns
// false.
func (w *Wizard) Retreat() bool {
	if w.step <= 1 {
		return false
	}
	w.step--
	return true
}

// Reset returns the wizard to the first step.
func (w *Wizard) Reset() {
	w.step = 1
}

// AtFirst reports whether the wizard is on the first step.
func (w *Wizard) AtFirst() bool {
	return w.step == 1
}

// AtLast reports whether the wizard is on the last step.
func (w *Wizard) AtLast() bool {
	return w.step == w.total
}
