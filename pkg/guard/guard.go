// Package guard implements the unsaved-changes gate. It is not an error
// path: while any tracked dirtiness is set, navigation away from the screen
// is blocked until the user confirms the loss, saves, or backs out.
package guard

// DirtySource reports one contributor to the screen's aggregate dirtiness,
// such as the top-level form or an open row dialog.
type DirtySource func() bool

// Guard aggregates dirtiness across a screen and its nested editors.
type Guard struct {
	sources  []DirtySource
	released bool
}

// New builds a guard over the given sources.
func New(sources ...DirtySource) *Guard {
	return &Guard{sources: sources}
}

// Track adds another dirtiness contributor.
func (g *Guard) Track(source DirtySource) {
	g.sources = append(g.sources, source)
}

// Blocking reports whether navigation must be confirmed. Any dirty source
// blocks; a release lasts until the next edit re-dirties a source.
func (g *Guard) Blocking() bool {
	if g == nil || g.released {
		return false
	}
	for _, source := range g.sources {
		if source() {
			return true
		}
	}
	return false
}

// Release clears the gate ahead of an intentional departure. Submit and
// cancel both call this immediately before dispatching, so the navigation
// they trigger is never challenged even though dirty fields may remain in
// memory.
func (g *Guard) Release() {
	g.released = true
}

// Rearm re-enables the gate after a new edit.
func (g *Guard) Rearm() {
	g.released = false
}

// Confirm asks the user whether to discard changes, via the supplied
// prompt. A guard that is not blocking passes without prompting.
func (g *Guard) Confirm(prompt func(message string) bool) bool {
	if !g.Blocking() {
		return true
	}
	if prompt == nil {
		return false
	}
	return prompt("You have unsaved changes. Discard them?")
}
