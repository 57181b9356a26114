package circuit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBreakerStartsClosed(t *testing.T) {
	b := New("kafka")

	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "kafka", b.Name())
	assert.Equal(t, "closed", b.State().String())
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		calls    string // f = failure, s = success
		wantOpen bool
	}{
		{name: "below failure threshold", opts: []Option{WithFailureThreshold(3)}, calls: "ff", wantOpen: false},
		{name: "at failure threshold", opts: []Option{WithFailureThreshold(3)}, calls: "fff", wantOpen: true},
		{name: "success resets failure streak", opts: []Option{WithFailureThreshold(3)}, calls: "ffsff", wantOpen: false},
		{name: "open needs success streak", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, calls: "fs", wantOpen: true},
		{name: "success streak closes", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, calls: "fss", wantOpen: false},
		{name: "failure breaks success streak", opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(3)}, calls: "fssfss", wantOpen: true},
		{name: "defaults open after five", calls: "fffff", wantOpen: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("kafka", tt.opts...)
			for _, c := range tt.calls {
				if c == 'f' {
					b.RecordFailure()
				} else {
					b.RecordSuccess()
				}
			}
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestBreakerReportsChangesOnce(t *testing.T) {
	b := New("kafka", WithFailureThreshold(1), WithSuccessThreshold(1))

	open, change := b.RecordFailure()
	assert.True(t, open)
	assert.True(t, change.Opened)

	open, change = b.RecordFailure()
	assert.True(t, open)
	assert.False(t, change.Opened, "already open")

	closed, change := b.RecordSuccess()
	assert.True(t, closed)
	assert.True(t, change.Closed)
	assert.Equal(t, "closed", b.State().String())
}

func TestBreakerReset(t *testing.T) {
	b := New("kafka", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerConcurrentFailuresOpenOnce(t *testing.T) {
	b := New("kafka", WithFailureThreshold(10))

	var wg sync.WaitGroup
	var mu sync.Mutex
	opened := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.True(t, b.IsOpen())
	assert.Equal(t, 1, opened)
}

func TestBreakerAllowGatesOnCooldown(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b := New("kafka",
		WithFailureThreshold(2),
		WithSuccessThreshold(1),
		WithCooldown(time.Minute),
		WithClock(clock),
	)

	assert.True(t, b.Allow())
	b.RecordFailure()
	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow(), "open breaker rejects calls during cooldown")

	now = now.Add(59 * time.Second)
	assert.False(t, b.Allow())

	now = now.Add(time.Second)
	assert.True(t, b.Allow(), "cooldown elapsed")
	assert.Equal(t, StateHalfOpen, b.State())
	assert.Equal(t, "half-open", b.State().String())
	assert.True(t, b.IsOpen(), "half-open is not healthy yet")

	// A failed trial reopens for a fresh cooldown.
	_, change := b.RecordFailure()
	assert.False(t, change.Opened)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	now = now.Add(time.Minute)
	require.True(t, b.Allow())
	_, change = b.RecordSuccess()
	assert.True(t, change.Closed)
	assert.True(t, b.Allow())
	assert.Equal(t, StateClosed, b.State())
}
