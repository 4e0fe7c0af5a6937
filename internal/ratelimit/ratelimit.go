package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrBudgetExhausted is returned once the daily request budget is spent.
var ErrBudgetExhausted = errors.New("ai request budget exhausted")

// AIRateLimiter enforces a daily request budget for the summary model and
// paces the requests it admits.
type AIRateLimiter struct {
	mu          sync.Mutex
	used        int
	maxRequests int
	resetTime   time.Time
	cacheHits   int
	cacheMisses int

	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// NewAIRateLimiter allows maxRequests per day (0 means unlimited) at no
// more than perMinute requests per minute (0 means unpaced).
func NewAIRateLimiter(maxRequests, perMinute int, logger *slog.Logger) *AIRateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &AIRateLimiter{
		maxRequests: maxRequests,
		resetTime:   time.Now().Add(24 * time.Hour),
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger.With("component", "ratelimit"),
		now:         time.Now,
	}
}

// Acquire takes one request from the budget and waits for a pacing slot.
func (rl *AIRateLimiter) Acquire(ctx context.Context) error {
	rl.mu.Lock()
	rl.checkReset()
	if rl.maxRequests > 0 && rl.used >= rl.maxRequests {
		used := rl.used
		rl.mu.Unlock()
		rl.logger.Warn("ai request budget reached", "used", used, "limit", rl.maxRequests)
		return ErrBudgetExhausted
	}
	rl.used++
	rl.cacheMisses++
	used := rl.used
	rl.mu.Unlock()

	rl.logger.Debug("ai request admitted", "used", used, "limit", rl.maxRequests)
	if err := rl.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}
	return nil
}

// RecordCacheHit counts a summary served from cache instead of the model.
func (rl *AIRateLimiter) RecordCacheHit() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.cacheHits++
}

func (rl *AIRateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.stats()
}

func (rl *AIRateLimiter) stats() map[string]interface{} {
	hitRate := 0.0
	if total := rl.cacheHits + rl.cacheMisses; total > 0 {
		hitRate = float64(rl.cacheHits) / float64(total) * 100
	}
	return map[string]interface{}{
		"requests_used":  rl.used,
		"requests_limit": rl.maxRequests,
		"cache_hits":     rl.cacheHits,
		"cache_misses":   rl.cacheMisses,
		"cache_hit_rate": hitRate,
		"reset_time":     rl.resetTime,
	}
}

// checkReset must be called with mu held.
func (rl *AIRateLimiter) checkReset() {
	if rl.now().After(rl.resetTime) {
		rl.logger.Info("resetting ai rate limiter counters", "stats", rl.stats())
		rl.used = 0
		rl.cacheHits = 0
		rl.cacheMisses = 0
		rl.resetTime = rl.now().Add(24 * time.Hour)
	}
}
