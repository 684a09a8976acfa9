package store

import "sync"

// Notifier fans a "something changed" signal out to any number of watchers.
// Each watcher holds a single-slot channel, so bursts of changes collapse
// into one pending signal and Notify never blocks.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan struct{})}
}

// Watch registers a watcher. The returned cancel func unregisters it and
// closes the channel; calling it more than once is safe.
func (n *Notifier) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = ch
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			close(ch)
			n.mu.Unlock()
		})
	}
}

func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watchers returns the number of registered watchers.
func (n *Notifier) Watchers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
