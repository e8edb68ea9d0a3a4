// Package event provides proxy events that plugins fire and listen to
// without depending on the native event API of a host platform.
//
// An Event is dispatched through the Dispatcher service registered for the
// running platform. Listeners may cancel it; Call reports whether it was not.
package event

import (
	"errors"
	"reflect"

	"go.uber.org/atomic"

	"go.minekube.com/hostkit/pkg/platform"
)

// ErrAlreadyDispatched is reported when Call is used on an event
// that was already dispatched.
var ErrAlreadyDispatched = errors.New("event was already dispatched")

// ErrMissingBase is reported when Call is used on an event
// embedding a nil *Base.
var ErrMissingBase = errors.New("event does not embed a Base value")

// Event is a proxy event.
// Implementations embed Base and may override AllowCancelled and PostCall.
type Event interface {
	// Cancelled reports whether a listener cancelled the event.
	Cancelled() bool
	// SetCancelled sets the cancelled state. It is always permitted,
	// regardless of AllowCancelled.
	SetCancelled(cancelled bool)
	// AllowCancelled advertises whether cancelling the event has any effect.
	AllowCancelled() bool
	// PostCall is run by the Dispatcher after all listeners have handled the event.
	PostCall()

	base() *Base
}

// Base implements the common state of an Event and is meant to be
// embedded by value. The zero value is a pending, not cancelled event.
type Base struct {
	cancelled  atomic.Bool
	dispatched atomic.Bool
}

var _ Event = (*Base)(nil)

// Cancelled implements Event.
func (b *Base) Cancelled() bool { return b.cancelled.Load() }

// SetCancelled implements Event.
func (b *Base) SetCancelled(cancelled bool) { b.cancelled.Store(cancelled) }

// AllowCancelled implements Event and returns true.
func (b *Base) AllowCancelled() bool { return true }

// PostCall implements Event and does nothing.
func (b *Base) PostCall() {}

// Dispatched reports whether the event was passed to Call.
func (b *Base) Dispatched() bool { return b.dispatched.Load() }

func (b *Base) base() *Base { return b }

// Dispatcher is the platform capability that synchronously notifies
// all listeners registered for the runtime type of an event.
type Dispatcher interface {
	CallEvent(e Event)
}

// DispatcherFunc implements Dispatcher.
type DispatcherFunc func(e Event)

// CallEvent implements Dispatcher.
func (f DispatcherFunc) CallEvent(e Event) { f(e) }

// Nop is a Dispatcher without listeners. It only runs the event's PostCall.
var Nop Dispatcher = DispatcherFunc(func(e Event) { e.PostCall() })

// Call dispatches e through d and blocks until all listeners are done.
// It returns true if the event was not cancelled.
//
// An event is dispatched at most once. Calling it again does not run any
// listener, it reports ErrAlreadyDispatched and returns the current state.
// An event without Base state is reported and never dispatched.
func Call(d Dispatcher, e Event) bool {
	b := e.base()
	if b == nil {
		Log().Error(ErrMissingBase, "Ignoring call of event",
			"eventType", reflect.TypeOf(e).String())
		return false
	}
	if !b.dispatched.CompareAndSwap(false, true) {
		Log().Error(ErrAlreadyDispatched, "Ignoring repeated call of event",
			"eventType", reflect.TypeOf(e).String())
		return !e.Cancelled()
	}
	if d == nil {
		d = Nop
	}
	d.CallEvent(e)
	return !e.Cancelled()
}

// CallWith dispatches e through the Dispatcher service of s.
// If s has no usable Dispatcher the resolution failure is logged
// and the event is handled as if it had no listeners.
func CallWith(s *platform.Services, e Event) bool {
	d, ok := platform.Getter[Dispatcher](s).Get()
	if !ok {
		d = Nop
	}
	return Call(d, e)
}
