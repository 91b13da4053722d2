package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failed")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time           { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(clock *fakeClock, s Settings) *Breaker {
	s.Now = clock.Now
	if s.Trip == nil {
		s.Trip = func(c Counts) bool { return c.ConsecutiveFailures >= 2 }
	}
	return New("test", s)
}

func run(b *Breaker, ok bool) error {
	return b.Do(context.Background(), func(context.Context) error {
		if ok {
			return nil
		}
		return errUpstream
	})
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		requests []bool
		advance  time.Duration
		expected State
	}{
		{"stays closed on successes", []bool{true, true, true}, 0, StateClosed},
		{"opens after consecutive failures", []bool{false, false}, 0, StateOpen},
		{"success breaks the streak", []bool{false, true, false}, 0, StateClosed},
		{"half-open after cooldown", []bool{false, false}, time.Minute, StateHalfOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Unix(0, 0)}
			b := newTestBreaker(clock, Settings{Cooldown: time.Minute})

			for _, ok := range tt.requests {
				_ = run(b, ok)
			}
			clock.Advance(tt.advance)

			assert.Equal(t, tt.expected, b.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	b := newTestBreaker(&fakeClock{}, Settings{})

	require.NoError(t, run(b, true))
	counts := b.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)

	assert.ErrorIs(t, run(b, false), errUpstream)
	counts = b.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	b := newTestBreaker(&fakeClock{}, Settings{Cooldown: time.Minute})
	_ = run(b, false)
	_ = run(b, false)

	called := false
	err := b.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenProbes(t *testing.T) {
	clock := &fakeClock{}
	b := newTestBreaker(clock, Settings{Probes: 2, Cooldown: time.Second})
	_ = run(b, false)
	_ = run(b, false)
	clock.Advance(time.Second)

	require.NoError(t, run(b, true))
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, run(b, true))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{}
	b := newTestBreaker(clock, Settings{Cooldown: time.Second})
	_ = run(b, false)
	_ = run(b, false)
	clock.Advance(time.Second)

	_ = run(b, false)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerWindowClearsCounts(t *testing.T) {
	clock := &fakeClock{}
	b := newTestBreaker(clock, Settings{Window: time.Minute})

	_ = run(b, false)
	clock.Advance(2 * time.Minute)
	_ = run(b, false)

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(1), b.Counts().ConsecutiveFailures)
}

func TestBreakerIsFailure(t *testing.T) {
	errClient := errors.New("bad request")
	b := newTestBreaker(&fakeClock{}, Settings{
		IsFailure: func(err error) bool { return err != nil && !errors.Is(err, errClient) },
	})

	for i := 0; i < 3; i++ {
		_ = b.Do(context.Background(), func(context.Context) error { return errClient })
	}
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(3), b.Counts().TotalSuccesses)
}

func TestBreakerCanceledContext(t *testing.T) {
	b := newTestBreaker(&fakeClock{}, Settings{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(0), b.Counts().Requests)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := newTestBreaker(&fakeClock{}, Settings{})

	assert.Panics(t, func() {
		_ = b.Do(context.Background(), func(context.Context) error { panic("boom") })
	})
	assert.Equal(t, uint32(1), b.Counts().TotalFailures)
}

func TestCall(t *testing.T) {
	b := newTestBreaker(&fakeClock{}, Settings{})

	v, err := Call(context.Background(), b, func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string
	clock := &fakeClock{}
	b := newTestBreaker(clock, Settings{
		Cooldown: time.Second,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = run(b, false)
	_ = run(b, false)
	clock.Advance(time.Second)
	_ = run(b, true)

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}
