// Package object provides modification tracking and event observers shared
// by images and filters.
package object

import (
	"slices"
	"sync"
	"sync/atomic"
)

// EventKind identifies an event.
type EventKind int

// Events emitted by images and filters.
const (
	AnyEvent EventKind = iota
	StartEvent
	ProgressEvent
	EndEvent
	ModifiedEvent
)

func (k EventKind) String() string {
	switch k {
	case AnyEvent:
		return "Any"
	case StartEvent:
		return "Start"
	case ProgressEvent:
		return "Progress"
	case EndEvent:
		return "End"
	case ModifiedEvent:
		return "Modified"
	default:
		return "Unknown"
	}
}

// Event is delivered to observers. Progress is in [0, 1] for ProgressEvent.
type Event struct {
	Kind     EventKind
	Progress float64
}

// Observer handles an event.
type Observer func(Event)

// globalTime orders modifications across all objects.
var globalTime atomic.Uint64

type observer struct {
	tag  uint64
	kind EventKind
	fn   Observer
}

// Object is embedded to give a type a modification time and observers.
// The zero value is ready to use.
type Object struct {
	mtime atomic.Uint64

	mu        sync.Mutex
	nextTag   uint64
	observers []observer
}

// Modified bumps the modification time and emits ModifiedEvent.
func (o *Object) Modified() {
	o.mtime.Store(globalTime.Add(1))
	o.InvokeEvent(Event{Kind: ModifiedEvent})
}

// MTime returns the time of the last modification. Times from different
// objects are comparable.
func (o *Object) MTime() uint64 { return o.mtime.Load() }

// AddObserver registers fn for events of kind, or for every event when kind
// is AnyEvent. The returned tag removes it again.
func (o *Object) AddObserver(kind EventKind, fn Observer) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextTag++
	o.observers = append(o.observers, observer{tag: o.nextTag, kind: kind, fn: fn})
	return o.nextTag
}

// RemoveObserver unregisters the observer with tag.
func (o *Object) RemoveObserver(tag uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = slices.DeleteFunc(o.observers, func(ob observer) bool { return ob.tag == tag })
}

// HasObserver reports whether any observer listens for kind.
func (o *Object) HasObserver(kind EventKind) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.ContainsFunc(o.observers, func(ob observer) bool {
		return ob.kind == kind || ob.kind == AnyEvent
	})
}

// InvokeEvent calls the matching observers in registration order. Observers
// may add or remove observers.
func (o *Object) InvokeEvent(e Event) {
	o.mu.Lock()
	obs := slices.Clone(o.observers)
	o.mu.Unlock()

	for _, ob := range obs {
		if ob.kind == AnyEvent || ob.kind == e.Kind {
			ob.fn(e)
		}
	}
}
