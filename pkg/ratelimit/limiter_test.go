package ratelimit

import (
	"context"
	"testing"
	"time"

	"fbinsights/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, 200*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, tb.Wait(ctx), "token %d should be available", i+1)
	}
	assert.Less(t, time.Since(start), 30*time.Millisecond, "the full allowance is a burst")
	assert.Less(t, tb.limiter.Tokens(), 1.0, "bucket should be exhausted")

	start = time.Now()
	require.NoError(t, tb.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond, "next token refills after period/capacity")
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	require.NoError(t, tb.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, 200*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, sw.allow(), "request %d should be allowed", i+1)
	}
	assert.False(t, sw.allow(), "request should be denied when limit is reached")

	time.Sleep(250 * time.Millisecond)
	assert.True(t, sw.allow(), "request should be allowed after window slides")
}

func TestSlidingWindowWait(t *testing.T) {
	sw := NewSlidingWindow(2, 100*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, sw.Wait(ctx))
	require.NoError(t, sw.Wait(ctx))

	start := time.Now()
	require.NoError(t, sw.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestSlidingWindowWaitCancelled(t *testing.T) {
	sw := NewSlidingWindow(1, time.Hour)
	require.NoError(t, sw.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sw.Wait(ctx), context.Canceled)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.RateLimitConfig
		want    interface{}
		wantErr bool
	}{
		{"disabled", config.RateLimitConfig{Enabled: false}, Unlimited{}, false},
		{"token bucket", config.RateLimitConfig{Enabled: true, Strategy: "token_bucket", RequestsPerMinute: 60}, &TokenBucket{}, false},
		{"sliding window", config.RateLimitConfig{Enabled: true, Strategy: "sliding_window", RequestsPerMinute: 60}, &SlidingWindow{}, false},
		{"zero rate", config.RateLimitConfig{Enabled: true, RequestsPerMinute: 0}, nil, true},
		{"unknown strategy", config.RateLimitConfig{Enabled: true, Strategy: "leaky", RequestsPerMinute: 10}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, l)
		})
	}
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	for i := 0; i < 1000; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}
