package mutator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRandomizer is a mock implementation of the Randomizer interface.
type mockRandomizer struct {
	RandomizeAllFunc func(ctx context.Context) (int, error)
	calls            atomic.Int64
}

func (m *mockRandomizer) RandomizeAll(ctx context.Context) (int, error) {
	m.calls.Add(1)
	return m.RandomizeAllFunc(ctx)
}

func TestService_RunOnce(t *testing.T) {
	m := &mockRandomizer{RandomizeAllFunc: func(ctx context.Context) (int, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return 3, nil
	}}
	s := NewService(m, time.Second, time.Second)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, int64(1), m.calls.Load())
}

func TestService_RunOnceIgnoresCallerCancellation(t *testing.T) {
	m := &mockRandomizer{RandomizeAllFunc: func(ctx context.Context) (int, error) {
		return 1, ctx.Err()
	}}
	s := NewService(m, time.Second, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.RunOnce(ctx), "a started pass runs to completion")
}

func TestService_RunKeepsTickingAfterFailures(t *testing.T) {
	done := make(chan struct{})
	m := &mockRandomizer{}
	m.RandomizeAllFunc = func(context.Context) (int, error) {
		if m.calls.Load() == 3 {
			close(done)
		}
		return 0, errors.New("backend unavailable")
	}
	s := NewService(m, 5*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mutator stopped after a failed pass")
	}
}

func TestService_RunStopsOnCancel(t *testing.T) {
	m := &mockRandomizer{RandomizeAllFunc: func(context.Context) (int, error) { return 0, nil }}
	s := NewService(m, time.Hour, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return m.calls.Load() == 1 }, time.Second, time.Millisecond,
		"first pass runs immediately")
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("mutator did not stop after cancellation")
	}
	assert.Equal(t, int64(1), m.calls.Load())
}

func TestService_SetInterval(t *testing.T) {
	s := NewService(&mockRandomizer{}, 15*time.Second, 0)
	assert.Equal(t, 15*time.Second, s.Interval())

	s.SetInterval(20 * time.Second)
	assert.Equal(t, 20*time.Second, s.Interval())

	s.SetInterval(0)
	s.SetInterval(-time.Second)
	assert.Equal(t, 20*time.Second, s.Interval())
}
