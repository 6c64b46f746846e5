package tokensync

import (
	"sync"

	"go.uber.org/zap"
)

// UpdateNotifier is a registry of callbacks run when the active service
// worker changes. Platform glue calls Notify on "controller changed" and
// "new worker activated" events; tests call it directly.
type UpdateNotifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
	logger *zap.Logger
}

// NewUpdateNotifier creates an empty registry.
func NewUpdateNotifier(logger *zap.Logger) *UpdateNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateNotifier{subs: make(map[int]func()), logger: logger}
}

// Subscribe registers fn and returns a function that removes it.
func (n *UpdateNotifier) Subscribe(fn func()) (unsubscribe func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Len returns the number of subscribers.
func (n *UpdateNotifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Notify calls every subscriber. A panicking subscriber is logged and does
// not prevent the others from running.
func (n *UpdateNotifier) Notify() {
	n.mu.Lock()
	subs := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	n.logger.Debug("notifying service worker update", zap.Int("subscribers", len(subs)))
	for _, fn := range subs {
		n.call(fn)
	}
}

func (n *UpdateNotifier) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("service worker update callback panicked", zap.Any("error", r))
		}
	}()
	fn()
}
