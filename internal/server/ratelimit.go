package server

import (
	"sync"
	"time"

	"github.com/lawnchairsociety/roomforge/internal/config"
)

// StrikeLimiter locks out clients that keep sending requests the preview
// feed cannot parse. Each lockout doubles the previous one up to a cap.
type StrikeLimiter struct {
	mu          sync.Mutex
	clients     map[string]*strikeInfo
	maxStrikes  int
	lockout     time.Duration
	maxLockout  time.Duration
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type strikeInfo struct {
	strikes     int
	lockedUntil time.Time
	lockouts    int
	lastStrike  time.Time
}

// NewStrikeLimiter creates a limiter from the bad request settings and
// starts its cleanup goroutine.
func NewStrikeLimiter(cfg config.BadRequestConfig) *StrikeLimiter {
	sl := &StrikeLimiter{
		clients:     make(map[string]*strikeInfo),
		maxStrikes:  cfg.MaxStrikes,
		lockout:     time.Duration(cfg.LockoutSeconds) * time.Second,
		maxLockout:  time.Duration(cfg.MaxLockoutSeconds) * time.Second,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	if sl.maxStrikes <= 0 {
		sl.maxStrikes = 5
	}
	if sl.lockout <= 0 {
		sl.lockout = 30 * time.Second
	}
	if sl.maxLockout < sl.lockout {
		sl.maxLockout = sl.lockout
	}

	go sl.cleanupLoop(5 * time.Minute)

	return sl
}

// Stop stops the cleanup goroutine.
func (sl *StrikeLimiter) Stop() {
	sl.stopOnce.Do(func() { close(sl.stopCleanup) })
}

// IsLocked reports whether ip is locked out and for how much longer.
func (sl *StrikeLimiter) IsLocked(ip string) (bool, time.Duration) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	info, ok := sl.clients[ip]
	if !ok {
		return false, 0
	}
	if now := sl.now(); now.Before(info.lockedUntil) {
		return true, info.lockedUntil.Sub(now)
	}
	return false, 0
}

// Strike records a bad request from ip. It returns true and the lockout
// duration when this strike locks the client out.
func (sl *StrikeLimiter) Strike(ip string) (bool, time.Duration) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	now := sl.now()
	info, ok := sl.clients[ip]
	if !ok {
		info = &strikeInfo{}
		sl.clients[ip] = info
	}
	info.lastStrike = now

	if now.Before(info.lockedUntil) {
		return true, info.lockedUntil.Sub(now)
	}

	info.strikes++
	if info.strikes < sl.maxStrikes {
		return false, 0
	}

	info.lockouts++
	duration := sl.lockout
	for i := 1; i < info.lockouts && duration < sl.maxLockout; i++ {
		duration *= 2
	}
	if duration > sl.maxLockout {
		duration = sl.maxLockout
	}

	info.lockedUntil = now.Add(duration)
	info.strikes = 0
	return true, duration
}

// Strikes returns the strikes ip has collected since its last lockout.
func (sl *StrikeLimiter) Strikes(ip string) int {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if info, ok := sl.clients[ip]; ok {
		return info.strikes
	}
	return 0
}

func (sl *StrikeLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-sl.stopCleanup:
			return
		case <-ticker.C:
			sl.cleanup()
		}
	}
}

// cleanup forgets clients that are not locked and have been quiet for ten minutes.
func (sl *StrikeLimiter) cleanup() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	now := sl.now()
	cutoff := now.Add(-10 * time.Minute)
	for ip, info := range sl.clients {
		if !now.Before(info.lockedUntil) && info.lastStrike.Before(cutoff) {
			delete(sl.clients, ip)
		}
	}
}
