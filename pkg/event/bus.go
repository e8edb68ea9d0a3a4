package event

import (
	bus "github.com/robinbraemer/event"
)

// Bus is a Dispatcher firing events on an event manager.
// Listeners subscribe to the pointer type of an event, e.g. *LifeCycleEvent.
type Bus struct {
	mgr bus.Manager
}

var _ Dispatcher = (*Bus)(nil)

// NewBus returns a Bus firing on mgr. A nil mgr fires to no listeners.
func NewBus(mgr bus.Manager) *Bus {
	if mgr == nil {
		mgr = bus.Nop
	}
	return &Bus{mgr: mgr}
}

// CallEvent fires e to all subscribers of its type in priority order
// and runs e.PostCall after the last one returned.
// Subscriber panics are recovered by the manager.
func (b *Bus) CallEvent(e Event) {
	b.mgr.Fire(e)
	e.PostCall()
}

// Priority orders listeners of the same event type.
// Lowest listeners run first and Monitor listeners run last.
type Priority int

const (
	Lowest Priority = iota
	Low
	Normal
	High
	Highest
	// Monitor listeners observe the outcome and should not modify the event.
	Monitor
)

// order converts p into the manager priority, where higher runs first.
func (p Priority) order() int { return int(Normal) - int(p) }

func (p Priority) String() string {
	switch p {
	case Lowest:
		return "LOWEST"
	case Low:
		return "LOW"
	case Normal:
		return "NORMAL"
	case High:
		return "HIGH"
	case Highest:
		return "HIGHEST"
	case Monitor:
		return "MONITOR"
	}
	return "UNKNOWN"
}

// Options are listener options for SubscribeWith.
type Options struct {
	Priority Priority
	// IgnoreCancelled skips the listener if an earlier listener cancelled the event.
	IgnoreCancelled bool
}

// Subscribe subscribes fn to events of type E with Normal priority
// and returns a func to unsubscribe it.
func Subscribe[E Event](mgr bus.Manager, fn func(E)) (unsubscribe func()) {
	return SubscribeWith(mgr, Options{Priority: Normal}, fn)
}

// SubscribeWith subscribes fn to events of type E and returns a func to unsubscribe it.
func SubscribeWith[E Event](mgr bus.Manager, opts Options, fn func(E)) (unsubscribe func()) {
	if !opts.IgnoreCancelled {
		return bus.Subscribe(mgr, opts.Priority.order(), fn)
	}
	return bus.Subscribe(mgr, opts.Priority.order(), func(e E) {
		if e.Cancelled() {
			return
		}
		fn(e)
	})
}
