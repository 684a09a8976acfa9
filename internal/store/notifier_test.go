package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifierCoalesces(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Watch()
	defer cancel()

	n.Notify()
	n.Notify()
	n.Notify()

	assert.Len(t, ch, 1)
	<-ch
	assert.Len(t, ch, 0)
}

func TestNotifierFansOut(t *testing.T) {
	n := NewNotifier()
	a, cancelA := n.Watch()
	defer cancelA()
	b, cancelB := n.Watch()
	defer cancelB()

	n.Notify()

	assert.Len(t, a, 1)
	assert.Len(t, b, 1)
}

func TestNotifierCancel(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Watch()
	assert.Equal(t, 1, n.Watchers())

	cancel()
	cancel()

	assert.Equal(t, 0, n.Watchers())
	_, open := <-ch
	assert.False(t, open)

	// Notifying with no watchers is a no-op.
	n.Notify()
}
