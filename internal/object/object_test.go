package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModifiedOrdersAcrossObjects(t *testing.T) {
	var a, b Object
	assert.Zero(t, a.MTime())

	a.Modified()
	b.Modified()
	assert.Greater(t, b.MTime(), a.MTime())

	a.Modified()
	assert.Greater(t, a.MTime(), b.MTime())
}

func TestObservers(t *testing.T) {
	var o Object
	var got []EventKind
	var all int

	tag := o.AddObserver(ModifiedEvent, func(e Event) { got = append(got, e.Kind) })
	o.AddObserver(AnyEvent, func(Event) { all++ })

	o.Modified()
	o.InvokeEvent(Event{Kind: ProgressEvent, Progress: 0.5})
	assert.Equal(t, []EventKind{ModifiedEvent}, got)
	assert.Equal(t, 2, all)
	assert.True(t, o.HasObserver(StartEvent), "AnyEvent observer matches")

	o.RemoveObserver(tag)
	o.Modified()
	assert.Len(t, got, 1)
	assert.Equal(t, 3, all)
}

func TestObserverCanRemoveItself(t *testing.T) {
	var o Object
	calls := 0
	var tag uint64
	tag = o.AddObserver(EndEvent, func(Event) {
		calls++
		o.RemoveObserver(tag)
	})

	o.InvokeEvent(Event{Kind: EndEvent})
	o.InvokeEvent(Event{Kind: EndEvent})
	assert.Equal(t, 1, calls)
	assert.False(t, o.HasObserver(EndEvent))
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "Progress", ProgressEvent.String())
	assert.Equal(t, "Unknown", EventKind(99).String())
}
