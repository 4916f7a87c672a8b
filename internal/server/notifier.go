package server

import "sync"

// notifier fans template change events out to subscribed listeners.
// A listener that falls behind keeps only the most recent pending name.
type notifier struct {
	mu        sync.RWMutex
	listeners map[chan string]struct{}
}

func newNotifier() *notifier {
	return &notifier{listeners: make(map[chan string]struct{})}
}

// subscribe returns a channel receiving the names of changed templates.
// The caller must unsubscribe when done.
func (n *notifier) subscribe() chan string {
	ch := make(chan string, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

func (n *notifier) unsubscribe(ch chan string) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// broadcast never blocks: a full channel has its pending name replaced.
func (n *notifier) broadcast(name string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- name:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- name:
			default:
			}
		}
	}
}

func (n *notifier) len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
