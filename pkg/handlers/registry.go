package handlers

import (
	"context"
	"fmt"

	"vkgram/pkg/filters"
	"vkgram/pkg/types"
)

// Callback handles one event. Callbacks reach the bot by closure; errors are
// logged by the dispatcher and never propagate past it.
type Callback func(ctx context.Context, event types.Event) error

// Binding pairs a category and a predicate list (AND semantics) with a
// callback. OR across predicates is expressed with filters.Or.
type Binding struct {
	category string
	filters  []filters.Filter
	callback Callback
}

// Registry holds bindings in registration order. Registration happens during
// the startup phase only; Freeze marks the transition to the read-only run
// phase, after which Register fails. Lookup takes no lock — the lifecycle
// ordering is the synchronization.
type Registry struct {
	bindings []Binding
	frozen   bool
}

func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterMessage appends a binding for incoming messages.
func (r *Registry) RegisterMessage(fs []filters.Filter, cb Callback) error {
	return r.register(types.CategoryMessage, fs, cb)
}

// RegisterEvent appends a binding for generic updates of the given type.
func (r *Registry) RegisterEvent(eventType string, fs []filters.Filter, cb Callback) error {
	if eventType == "" || eventType == types.CategoryMessage {
		return fmt.Errorf("invalid event type %q", eventType)
	}
	return r.register(eventType, fs, cb)
}

func (r *Registry) register(category string, fs []filters.Filter, cb Callback) error {
	if r.frozen {
		return fmt.Errorf("registry is frozen: handlers must be registered before the bot starts")
	}
	if cb == nil {
		return fmt.Errorf("callback is nil")
	}
	r.bindings = append(r.bindings, Binding{
		category: category,
		filters:  fs,
		callback: cb,
	})
	return nil
}

// Freeze ends the registration phase.
func (r *Registry) Freeze() {
	r.frozen = true
}

func (r *Registry) Len() int {
	return len(r.bindings)
}

// Lookup returns, in registration order, every binding whose category equals
// the event's category and whose predicate list is fully satisfied. Messages
// only ever match message bindings; generic updates only match bindings for
// their exact type.
func (r *Registry) Lookup(event types.Event) []Binding {
	category := event.Category()
	if category == "" {
		return nil
	}

	var matched []Binding
	for _, b := range r.bindings {
		if b.category != category {
			continue
		}
		if !checkAll(b.filters, event) {
			continue
		}
		matched = append(matched, b)
	}
	return matched
}

func checkAll(fs []filters.Filter, event types.Event) bool {
	for _, f := range fs {
		if !f.Check(event) {
			return false
		}
	}
	return true
}
