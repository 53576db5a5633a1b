package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/travelease/ticketing-backend/internal/apperr"
)

// AttemptCounter counts attempts per key inside an expiring window
type AttemptCounter interface {
	Count(ctx context.Context, key string) (int64, time.Duration, error)
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxEmailAttempts int           // failed logins per account
	EmailWindow      time.Duration // window for the account limit
	MaxIPAttempts    int           // failed logins per client IP
	IPWindow         time.Duration // window for the IP limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxEmailAttempts: 5,                // 5 failures
		EmailWindow:      15 * time.Minute, // per 15 minutes
		MaxIPAttempts:    20,               // 20 failures
		IPWindow:         1 * time.Hour,    // per hour
	}
}

// RateLimitService throttles failed admin logins per account and per client IP.
// Counter outages are logged and let the login through.
type RateLimitService struct {
	counter AttemptCounter
	config  RateLimitConfig
	logger  *logrus.Logger
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(counter AttemptCounter, config RateLimitConfig, logger *logrus.Logger) *RateLimitService {
	return &RateLimitService{
		counter: counter,
		config:  config,
		logger:  logger,
	}
}

type limit struct {
	key    string
	max    int
	window time.Duration
}

func (s *RateLimitService) limits(email, ip string) []limit {
	var limits []limit
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		limits = append(limits, limit{"email:" + email, s.config.MaxEmailAttempts, s.config.EmailWindow})
	}
	if ip != "" {
		limits = append(limits, limit{"ip:" + ip, s.config.MaxIPAttempts, s.config.IPWindow})
	}
	return limits
}

// CheckLogin rejects the attempt when the account or the IP has used up its failures
func (s *RateLimitService) CheckLogin(ctx context.Context, email, ip string) error {
	for _, l := range s.limits(email, ip) {
		count, retryAfter, err := s.counter.Count(ctx, l.key)
		if err != nil {
			s.logger.WithError(err).WithField("key", l.key).Warn("Login rate limit check failed")
			continue
		}
		if count >= int64(l.max) {
			return apperr.TooManyRequests("TOO_MANY_ATTEMPTS",
				fmt.Sprintf("Too many failed login attempts. Please try again in %s", retryAfter.Round(time.Second)))
		}
	}
	return nil
}

// RecordFailure counts a failed login against the account and the IP
func (s *RateLimitService) RecordFailure(ctx context.Context, email, ip string) {
	for _, l := range s.limits(email, ip) {
		if _, err := s.counter.Incr(ctx, l.key, l.window); err != nil {
			s.logger.WithError(err).WithField("key", l.key).Warn("Failed to record login attempt")
		}
	}
}

// Reset clears the account's failures after a successful login
func (s *RateLimitService) Reset(ctx context.Context, email string) {
	for _, l := range s.limits(email, "") {
		if err := s.counter.Reset(ctx, l.key); err != nil {
			s.logger.WithError(err).WithField("key", l.key).Warn("Failed to reset login attempts")
		}
	}
}
