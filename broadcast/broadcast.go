// Package broadcast delivers notifications to a dynamic set of listeners.
package broadcast

import (
	"sync"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("broadcast")

// Listener is called on every notification.
type Listener func()

// Broadcaster calls its subscribed listeners, in subscription order, each
// time Notify is called. The zero value is ready to use.
type Broadcaster struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []subscription
}

type subscription struct {
	id uint64
	fn Listener
}

// Subscribe adds a listener. Calling the returned cancel function removes
// the listener; it may be called more than once.
func (b *Broadcaster) Subscribe(fn Listener) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.remove(id)
		})
	}
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.listeners {
		if sub.id == id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribed listeners.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Notify calls every listener synchronously. A listener that panics is
// logged and does not prevent delivery to the others. Listeners may
// subscribe or cancel from within a notification; such changes take effect
// on the next call to Notify.
func (b *Broadcaster) Notify() {
	b.mu.Lock()
	subs := b.listeners
	b.mu.Unlock()

	for _, sub := range subs {
		deliver(sub.fn)
	}
}

func deliver(fn Listener) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("Listener panicked", "panic", r)
		}
	}()
	fn()
}
