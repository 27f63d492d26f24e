package notification

import (
	"sync"

	"github.com/google/uuid"
)

// DecisionType distinguishes what kind of lookup produced a decision
// event.
type DecisionType string

const (
	// DecisionTypeExperiment marks events from direct experiment lookups.
	DecisionTypeExperiment DecisionType = "experiment"

	// DecisionTypeFeature marks events from feature lookups.
	DecisionTypeFeature DecisionType = "feature"
)

// DecisionEvent describes one resolved decision. Key is the experiment
// or feature key that was asked about; VariationKey and Enabled are
// zero-valued when the user was excluded.
type DecisionEvent struct {
	Type         DecisionType
	Key          string
	UserID       string
	Attributes   map[string]any
	VariationKey string
	Enabled      bool
}

// Handler receives decision events. Handlers run synchronously on the
// deciding goroutine and must not block.
type Handler func(DecisionEvent)

// Center fans decision events out to subscribed handlers. The zero
// value is not usable; use NewCenter.
type Center struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewCenter creates an empty notification center.
func NewCenter() *Center {
	return &Center{handlers: make(map[string]Handler)}
}

// Subscribe registers a handler and returns its subscription id. A nil
// handler returns an empty id and registers nothing.
func (c *Center) Subscribe(h Handler) string {
	if h == nil {
		return ""
	}
	id := uuid.NewString()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[id] = h
	return id
}

// Unsubscribe removes the handler registered under id. It reports
// whether a handler was removed.
func (c *Center) Unsubscribe(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.handlers[id]; !ok {
		return false
	}
	delete(c.handlers, id)
	return true
}

// Dispatch delivers the event to every subscribed handler. Delivery
// order across handlers is unspecified.
func (c *Center) Dispatch(event DecisionEvent) {
	c.mu.RLock()
	handlers := make([]Handler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
