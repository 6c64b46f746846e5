package messagequeue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type settled struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (s *settled) Ack(bool) error {
	s.acked = true
	return nil
}

func (s *settled) Nack(_ bool, requeue bool) error {
	s.nacked = true
	s.requeued = requeue
	return nil
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want settled
	}{
		{"success acks", nil, settled{acked: true}},
		{"rejected drops", Reject(errors.New("bad payload")), settled{nacked: true}},
		{"wrapped rejection drops", errors.Join(errors.New("ctx"), Reject(errors.New("bad"))), settled{nacked: true}},
		{"transient requeues", errors.New("store unavailable"), settled{nacked: true, requeued: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d settled
			settle(context.Background(), &d, tt.err, time.Millisecond, zap.NewNop())
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestSettle_RequeueWaitsForDelay(t *testing.T) {
	var d settled
	start := time.Now()
	settle(context.Background(), &d, errors.New("transient"), 20*time.Millisecond, zap.NewNop())
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.True(t, d.requeued)
}

func TestSettle_RequeueStopsWaitingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var d settled
	start := time.Now()
	settle(ctx, &d, errors.New("transient"), time.Hour, zap.NewNop())
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, d.requeued)
}

func TestReject(t *testing.T) {
	cause := errors.New("bad payload")
	err := Reject(cause)
	assert.ErrorIs(t, err, ErrRejected)
	assert.ErrorIs(t, err, cause)
}
