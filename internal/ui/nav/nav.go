// Package nav holds client-side navigation state: the active page, the active
// modal, and the per-page data loaders that fire on every navigation.
package nav

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Page identifies a top-level view.
type Page int

const (
	PageLogin Page = iota
	PageDashboard
	PagePatients
	PagePredictions
	PageAnalytics
	PageDoctors
)

// String returns the page name used in logs.
func (p Page) String() string {
	switch p {
	case PageLogin:
		return "login"
	case PageDashboard:
		return "dashboard"
	case PagePatients:
		return "patients"
	case PagePredictions:
		return "predictions"
	case PageAnalytics:
		return "analytics"
	case PageDoctors:
		return "doctors"
	default:
		return "unknown"
	}
}

// Loader fetches a page's data. It runs on every navigation to the page,
// including re-entry to the page the user is already on.
type Loader func(ctx context.Context)

// Machine tracks the current page and modal and dispatches loaders.
type Machine struct {
	mu      sync.Mutex
	current Page
	modal   string
	loaders map[Page]Loader
	log     zerolog.Logger
}

// NewMachine creates a Machine positioned on initial.
func NewMachine(initial Page, log zerolog.Logger) *Machine {
	return &Machine{
		current: initial,
		loaders: make(map[Page]Loader),
		log:     log,
	}
}

// RegisterLoader binds a loader to a page, replacing any previous one.
func (m *Machine) RegisterLoader(p Page, l Loader) {
	m.mu.Lock()
	m.loaders[p] = l
	m.mu.Unlock()
}

// Current returns the active page.
func (m *Machine) Current() Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// NavigateTo switches to p and runs its loader, if one is registered. Selecting
// the page already shown re-runs its loader rather than short-circuiting.
func (m *Machine) NavigateTo(ctx context.Context, p Page) {
	m.mu.Lock()
	m.current = p
	l := m.loaders[p]
	m.mu.Unlock()

	m.log.Debug().Stringer("page", p).Msg("navigate")
	if l != nil {
		l(ctx)
	}
}

// Reload re-runs the loader for the current page.
func (m *Machine) Reload(ctx context.Context) {
	m.mu.Lock()
	p := m.current
	l := m.loaders[p]
	m.mu.Unlock()

	if l != nil {
		m.log.Debug().Stringer("page", p).Msg("reload")
		l(ctx)
	}
}

// OpenModal marks the modal with the given id as active, replacing any open
// modal.
func (m *Machine) OpenModal(id string) {
	m.mu.Lock()
	m.modal = id
	m.mu.Unlock()
}

// CloseModal closes the modal with the given id. Closing a modal that is not
// the active one is a no-op.
func (m *Machine) CloseModal(id string) {
	m.mu.Lock()
	if m.modal == id {
		m.modal = ""
	}
	m.mu.Unlock()
}

// ActiveModal returns the id of the open modal, or "" when none is open.
func (m *Machine) ActiveModal() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modal
}
