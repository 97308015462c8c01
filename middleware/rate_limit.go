package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// CommandAttempt tracks command requests from an IP
type CommandAttempt struct {
	Count    int
	FirstAt  time.Time
	LockedAt time.Time
	IsLocked bool
}

// RateLimiter manages rate limiting for bot command endpoints
type RateLimiter struct {
	mu           sync.RWMutex
	attempts     map[string]*CommandAttempt
	maxAttempts  int
	windowPeriod time.Duration
	lockDuration time.Duration
}

// Global rate limiter instance
var commandRateLimiter *RateLimiter

// InitCommandRateLimiter initializes the global command rate limiter
func InitCommandRateLimiter() {
	commandRateLimiter = NewRateLimiter(30, time.Minute, 5*time.Minute)
	// Start cleanup goroutine
	go commandRateLimiter.startCleanup()
}

// NewRateLimiter creates a new rate limiter
// maxAttempts: maximum commands allowed within the window
// windowPeriod: time window for counting commands
// lockDuration: how long to lock the IP after max attempts exceeded
func NewRateLimiter(maxAttempts int, windowPeriod, lockDuration time.Duration) *RateLimiter {
	return &RateLimiter{
		attempts:     make(map[string]*CommandAttempt),
		maxAttempts:  maxAttempts,
		windowPeriod: windowPeriod,
		lockDuration: lockDuration,
	}
}

// startCleanup periodically cleans up old entries
func (rl *RateLimiter) startCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	for range ticker.C {
		rl.cleanup()
	}
}

// cleanup removes expired entries
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, attempt := range rl.attempts {
		if attempt.IsLocked {
			if now.Sub(attempt.LockedAt) > rl.lockDuration {
				delete(rl.attempts, ip)
			}
		} else if now.Sub(attempt.FirstAt) > rl.windowPeriod {
			delete(rl.attempts, ip)
		}
	}
}

// Check checks if an IP may issue another command and records the attempt
func (rl *RateLimiter) Check(ip string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	attempt, exists := rl.attempts[ip]

	if !exists {
		rl.attempts[ip] = &CommandAttempt{Count: 1, FirstAt: now}
		return true, rl.maxAttempts - 1, 0
	}

	// Check if locked
	if attempt.IsLocked {
		remaining := rl.lockDuration - now.Sub(attempt.LockedAt)
		if remaining > 0 {
			return false, 0, remaining
		}
		// Lock expired, reset
		rl.attempts[ip] = &CommandAttempt{Count: 1, FirstAt: now}
		return true, rl.maxAttempts - 1, 0
	}

	// Check if window expired
	if now.Sub(attempt.FirstAt) > rl.windowPeriod {
		rl.attempts[ip] = &CommandAttempt{Count: 1, FirstAt: now}
		return true, rl.maxAttempts - 1, 0
	}

	attempt.Count++
	if attempt.Count >= rl.maxAttempts {
		attempt.IsLocked = true
		attempt.LockedAt = now
		return false, 0, rl.lockDuration
	}

	return true, rl.maxAttempts - attempt.Count, 0
}

// CommandRateLimitMiddleware rate limits the POST command endpoints
func CommandRateLimitMiddleware() gin.HandlerFunc {
	// Ensure rate limiter is initialized
	if commandRateLimiter == nil {
		InitCommandRateLimiter()
	}

	return func(c *gin.Context) {
		// Only apply to POST requests (actual commands)
		if c.Request.Method != "POST" {
			c.Next()
			return
		}

		ip := c.ClientIP()
		allowed, remaining, lockDuration := commandRateLimiter.Check(ip)

		// Set headers for client awareness
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many commands, slow down",
				"retry_after": int(lockDuration.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetCommandRateLimiter returns the global command rate limiter
func GetCommandRateLimiter() *RateLimiter {
	if commandRateLimiter == nil {
		InitCommandRateLimiter()
	}
	return commandRateLimiter
}
