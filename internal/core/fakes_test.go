package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"firebase.google.com/go/v4/messaging"

	"github.com/example/pushsync/internal/db"
	"github.com/example/pushsync/internal/models"
	"github.com/example/pushsync/pkg/messagequeue"
)

var errPermanent = errors.New("registration-token-not-registered")

func isFakePermanent(err error) bool { return errors.Is(err, errPermanent) }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// fakeMessenger answers each token with the error registered for it, or success.
type fakeMessenger struct {
	mu       sync.Mutex
	failures map[string]error
	err      error
	calls    []*messaging.MulticastMessage
}

func (f *fakeMessenger) SendEachForMulticast(_ context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	if f.err != nil {
		return nil, f.err
	}
	resp := &messaging.BatchResponse{}
	for i, token := range msg.Tokens {
		if err, ok := f.failures[token]; ok {
			resp.FailureCount++
			resp.Responses = append(resp.Responses, &messaging.SendResponse{Error: err})
			continue
		}
		resp.SuccessCount++
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true, MessageID: "msg-" + string(rune('a'+i))})
	}
	return resp, nil
}

func (f *fakeMessenger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// failingRemoveRepo wraps a repository and fails every RemoveTokens call.
type failingRemoveRepo struct {
	db.UserRepository
}

func (r failingRemoveRepo) RemoveTokens(context.Context, string, time.Time, ...string) error {
	return errors.New("store unavailable")
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// failingGetRepo fails every read with err.
type failingGetRepo struct {
	db.UserRepository
	err error
}

func (r failingGetRepo) GetByID(context.Context, string) (*models.User, error) {
	return nil, r.err
}

// fakeQueue records published bodies and replays them to Consume.
type fakeQueue struct {
	mu        sync.Mutex
	published map[string][][]byte
	handled   []error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{published: map[string][][]byte{}}
}

func (q *fakeQueue) Publish(_ context.Context, queueName string, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published[queueName] = append(q.published[queueName], body)
	return nil
}

func (q *fakeQueue) Consume(ctx context.Context, queueName string, handler messagequeue.Handler) error {
	q.mu.Lock()
	bodies := q.published[queueName]
	q.published[queueName] = nil
	q.mu.Unlock()
	for _, b := range bodies {
		err := handler(ctx, b)
		q.mu.Lock()
		q.handled = append(q.handled, err)
		q.mu.Unlock()
	}
	return context.Canceled
}

func (q *fakeQueue) Close() error { return nil }
