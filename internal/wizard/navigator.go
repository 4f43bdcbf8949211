// Package wizard moves a session through the ordered steps of a flow, asking each
// step's validator before letting the user advance.
package wizard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ikkim/dishshot-intake/internal/form"
)

var (
	ErrUnknownStep  = errors.New("unknown wizard step")
	ErrTerminalStep = errors.New("already at the last step")
)

// Step is one screen of the wizard. A nil Validate always passes.
type Step struct {
	ID       int
	Name     string
	Validate func(form.FormRecord) form.Errors
}

func (s Step) check(r form.FormRecord) form.Errors {
	if s.Validate == nil {
		return form.Errors{}
	}
	return s.Validate(r)
}

// Navigator tracks the current step of one session.
type Navigator struct {
	mu    sync.Mutex
	flow  Flow
	index int
	// errs is what the client should currently display.
	errs form.Errors
}

// NewNavigator panics on an empty flow or duplicate step ids; both are wiring bugs.
func NewNavigator(flow Flow) *Navigator {
	if len(flow.Steps) == 0 {
		panic(fmt.Sprintf("wizard: flow %q has no steps", flow.Name))
	}
	seen := make(map[int]bool, len(flow.Steps))
	for _, s := range flow.Steps {
		if seen[s.ID] {
			panic(fmt.Sprintf("wizard: flow %q repeats step %d", flow.Name, s.ID))
		}
		seen[s.ID] = true
	}
	return &Navigator{flow: flow}
}

func (n *Navigator) Flow() Flow {
	return n.flow
}

func (n *Navigator) Current() Step {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.flow.Steps[n.index]
}

func (n *Navigator) IsTerminal() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index == len(n.flow.Steps)-1
}

// Errors returns the errors from the last rejected Next, if any.
func (n *Navigator) Errors() form.Errors {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := form.Errors{}
	return out.Merge(n.errs)
}

// Next validates the current step against r and advances when it passes.
// The returned errors are non-empty when the step rejected the record.
func (n *Navigator) Next(r form.FormRecord) (form.Errors, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.index == len(n.flow.Steps)-1 {
		return nil, ErrTerminalStep
	}
	errs := n.flow.Steps[n.index].check(r)
	if !errs.Valid() {
		n.errs = errs
		return errs, nil
	}
	n.index++
	n.errs = nil
	return form.Errors{}, nil
}

// Previous moves back one step without validating. It stays put on the first step.
func (n *Navigator) Previous() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.index > 0 {
		n.index--
	}
	n.errs = nil
}

// Goto jumps to the step with id without validating.
func (n *Navigator) Goto(id int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	i := n.flow.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownStep, id)
	}
	n.index = i
	n.errs = nil
	return nil
}

// ShowErrors jumps to the step with id and displays errs there.
func (n *Navigator) ShowErrors(id int, errs form.Errors) error {
	if err := n.Goto(id); err != nil {
		return err
	}
	n.mu.Lock()
	n.errs = errs
	n.mu.Unlock()
	return nil
}

// Reset returns to the first step.
func (n *Navigator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.index = 0
	n.errs = nil
}
