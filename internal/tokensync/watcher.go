package tokensync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultSettleDelay lets a newly activated service worker's push
// subscription stabilise before a token is requested from it.
const DefaultSettleDelay = time.Second

// Watcher re-syncs the session's token whenever the service worker changes.
type Watcher struct {
	session  *Session
	notifier *UpdateNotifier
	settle   time.Duration
	logger   *zap.Logger

	// OnResult, when set, receives the result of every background sync.
	OnResult func(Result)

	mu          sync.Mutex
	unsubscribe func()
	stopped     bool
	inflight    sync.WaitGroup
}

// NewWatcher creates a Watcher. A non-positive settle uses DefaultSettleDelay.
func NewWatcher(session *Session, notifier *UpdateNotifier, settle time.Duration, logger *zap.Logger) *Watcher {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{session: session, notifier: notifier, settle: settle, logger: logger}
}

// Start syncs once if permission is already granted, then subscribes to
// update notifications. Background syncs use ctx.
func (w *Watcher) Start(ctx context.Context) Result {
	result := w.session.Sync(ctx)

	w.mu.Lock()
	w.stopped = false
	if w.unsubscribe == nil {
		w.unsubscribe = w.notifier.Subscribe(func() { w.onUpdate(ctx) })
	}
	w.mu.Unlock()
	return result
}

// onUpdate schedules a sync after the settle delay without waiting for it.
func (w *Watcher) onUpdate(ctx context.Context) {
	if w.session.permission.Permission() != PermissionGranted {
		w.logger.Debug("service worker updated but notifications not granted, skipping sync")
		return
	}

	// Add under mu so that it never races with Wait in Stop.
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.inflight.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.inflight.Done()

		timer := time.NewTimer(w.settle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		result := w.session.Sync(ctx)
		switch result.Action {
		case ActionRegistered:
			w.logger.Info("token re-registered after service worker update")
		case ActionError:
			w.logger.Error("token sync failed after service worker update", zap.String("message", result.Message))
		}
		if w.OnResult != nil {
			w.OnResult(result)
		}
	}()
}

// Stop unsubscribes and waits for background syncs already scheduled.
// Updates delivered after Stop are ignored.
func (w *Watcher) Stop() {
	w.mu.Lock()
	w.stopped = true
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
	w.mu.Unlock()
	w.inflight.Wait()
}
