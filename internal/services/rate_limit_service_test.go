package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelease/ticketing-backend/internal/apperr"
)

// memCounter ignores windows; tests reset it explicitly
type memCounter struct {
	counts map[string]int64
	err    error
}

func newMemCounter() *memCounter {
	return &memCounter{counts: map[string]int64{}}
}

func (c *memCounter) Count(ctx context.Context, key string) (int64, time.Duration, error) {
	if c.err != nil {
		return 0, 0, c.err
	}
	return c.counts[key], 10 * time.Minute, nil
}

func (c *memCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.counts[key]++
	return c.counts[key], nil
}

func (c *memCounter) Reset(ctx context.Context, key string) error {
	delete(c.counts, key)
	return c.err
}

func setupRateLimitTest() (*RateLimitService, *memCounter) {
	counter := newMemCounter()
	config := RateLimitConfig{
		MaxEmailAttempts: 3,
		EmailWindow:      15 * time.Minute,
		MaxIPAttempts:    5,
		IPWindow:         time.Hour,
	}
	return NewRateLimitService(counter, config, testLogger()), counter
}

func TestCheckLogin_NoAttempts(t *testing.T) {
	service, _ := setupRateLimitTest()

	assert.NoError(t, service.CheckLogin(context.Background(), testEmail, "203.0.113.9"))
}

func TestCheckLogin_EmailExceeded(t *testing.T) {
	ctx := context.Background()
	service, counter := setupRateLimitTest()

	for i := 0; i < 3; i++ {
		require.NoError(t, service.CheckLogin(ctx, testEmail, "203.0.113.9"))
		service.RecordFailure(ctx, " ADA@example.com ", "203.0.113.9")
	}

	err := service.CheckLogin(ctx, testEmail, "198.51.100.1")
	assertAppErr(t, err, apperr.KindTooManyRequests, "TOO_MANY_ATTEMPTS")
	assert.Contains(t, err.Error(), "10m0s")
	assert.Equal(t, int64(3), counter.counts["email:"+testEmail])
}

func TestCheckLogin_IPExceeded(t *testing.T) {
	ctx := context.Background()
	service, _ := setupRateLimitTest()

	emails := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"}
	for _, email := range emails {
		service.RecordFailure(ctx, email, "203.0.113.9")
	}

	err := service.CheckLogin(ctx, "f@example.com", "203.0.113.9")
	assertAppErr(t, err, apperr.KindTooManyRequests, "TOO_MANY_ATTEMPTS")

	assert.NoError(t, service.CheckLogin(ctx, "f@example.com", "198.51.100.1"))
}

func TestResetClearsAccountOnly(t *testing.T) {
	ctx := context.Background()
	service, counter := setupRateLimitTest()

	service.RecordFailure(ctx, testEmail, "203.0.113.9")
	service.RecordFailure(ctx, testEmail, "203.0.113.9")
	service.Reset(ctx, testEmail)

	assert.Zero(t, counter.counts["email:"+testEmail])
	assert.Equal(t, int64(2), counter.counts["ip:203.0.113.9"])
}

func TestCheckLogin_CounterDownLetsLoginThrough(t *testing.T) {
	ctx := context.Background()
	service, counter := setupRateLimitTest()
	counter.err = errors.New("connection refused")

	service.RecordFailure(ctx, testEmail, "203.0.113.9")
	assert.NoError(t, service.CheckLogin(ctx, testEmail, "203.0.113.9"))
}
