package handlers

import (
	"context"
	"fmt"

	"vkgram/pkg/logger"
	"vkgram/pkg/types"
)

// Dispatcher resolves an event against the registry and invokes every
// matching callback in registration order. Each invocation is isolated: a
// returned error or a panic is logged and does not stop the remaining
// bindings, and nothing propagates to the caller.
type Dispatcher struct {
	registry *Registry
	log      *logger.Logger
}

func NewDispatcher(registry *Registry, log *logger.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, log: log}
}

// Dispatch runs all matching handlers for the event. Zero matches is a
// no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, event types.Event) {
	for _, binding := range d.registry.Lookup(event) {
		d.invoke(ctx, binding, event)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, binding Binding, event types.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.ErrorF("dispatch", "Recovered panic in handler", d.eventFields(event, map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
			}))
		}
	}()

	if err := binding.callback(ctx, event); err != nil {
		d.log.ErrorF("dispatch", "Handler failed", d.eventFields(event, map[string]interface{}{
			logger.FieldError: err.Error(),
		}))
	}
}

func (d *Dispatcher) eventFields(event types.Event, fields map[string]interface{}) map[string]interface{} {
	fields["category"] = event.Category()
	if msg := event.Message; msg != nil {
		fields[logger.FieldFromID] = msg.FromID
		fields[logger.FieldPeerID] = msg.PeerID
	} else if upd := event.Update; upd != nil {
		fields[logger.FieldEventID] = upd.EventID
	}
	return fields
}
