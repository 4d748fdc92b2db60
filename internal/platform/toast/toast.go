// Package toast implements the notification center: queued, auto-expiring
// user-visible messages. Each posted item owns its own cancellable expiry
// timer, so concurrent posts expire independently and dismissing one item
// never disturbs another's countdown.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a notification stays visible unless dismissed.
const DefaultTTL = 5 * time.Second

// Severity classifies a notification for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one queued message.
type Notification struct {
	ID        string
	Severity  Severity
	Title     string
	Message   string
	ExpiresAt time.Time
}

// Listener receives display callbacks. Both methods are invoked outside the
// center's lock and may be called from timer goroutines.
type Listener interface {
	NotificationAdded(n Notification)
	NotificationRemoved(id string)
}

// Center holds the insertion-ordered collection and the per-item timers.
type Center struct {
	mu       sync.Mutex
	ttl      time.Duration
	items    []Notification
	timers   map[string]*time.Timer
	listener Listener
}

// NewCenter creates a Center with the given time-to-live. A non-positive ttl
// falls back to DefaultTTL.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// SetListener registers the display listener. Pass nil to detach.
func (c *Center) SetListener(l Listener) {
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()
}

// Post appends a notification, schedules its expiry, and returns its handle.
// The optional title is the first variadic argument; extras are ignored.
func (c *Center) Post(message string, severity Severity, title ...string) string {
	n := Notification{
		ID:       uuid.New().String(),
		Severity: severity,
		Message:  message,
	}
	if len(title) > 0 {
		n.Title = title[0]
	}

	c.mu.Lock()
	n.ExpiresAt = time.Now().Add(c.ttl)
	c.items = append(c.items, n)
	id := n.ID
	c.timers[id] = time.AfterFunc(c.ttl, func() { c.Dismiss(id) })
	l := c.listener
	c.mu.Unlock()

	if l != nil {
		l.NotificationAdded(n)
	}
	return id
}

// Dismiss removes the notification with the given id regardless of its
// position and cancels its pending expiry task. Dismissing an id that is
// already gone is a no-op.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}

	idx := -1
	for i := range c.items {
		if c.items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	l := c.listener
	c.mu.Unlock()

	if l != nil {
		l.NotificationRemoved(id)
	}
}

// Items returns a copy of the current collection in insertion order.
func (c *Center) Items() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of visible notifications.
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close cancels every pending expiry timer and clears the collection.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	c.items = nil
}
