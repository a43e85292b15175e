package auth

import (
	"sync"
	"time"
)

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// LoginThrottle はクライアントIPごとのログイン失敗回数を数え、
// 上限に達したIPを一定時間ロックします。
// maxAttempts が0以下の場合は何も制限しません。
type LoginThrottle struct {
	maxAttempts  int
	window       time.Duration
	lockDuration time.Duration
	now          func() time.Time

	lock     sync.Mutex
	attempts map[string]*attemptState
}

// NewLoginThrottle は LoginThrottle を作成します。
func NewLoginThrottle(maxAttempts int, window, lockDuration time.Duration) *LoginThrottle {
	return &LoginThrottle{
		maxAttempts:  maxAttempts,
		window:       window,
		lockDuration: lockDuration,
		now:          time.Now,
		attempts:     make(map[string]*attemptState),
	}
}

// Enabled は制限が有効かどうかを返します。
func (t *LoginThrottle) Enabled() bool {
	return t != nil && t.maxAttempts > 0
}

// CheckLock はロック中であれば残り時間を返します。ロックされていなければ0です。
func (t *LoginThrottle) CheckLock(ip string) time.Duration {
	if !t.Enabled() {
		return 0
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	state, ok := t.attempts[ip]
	if !ok {
		return 0
	}
	now := t.now()
	if !now.Before(state.lockedUntil) {
		return 0
	}
	return state.lockedUntil.Sub(now)
}

// RecordFailure は失敗を1回記録し、ロックまでの残り回数を返します。
func (t *LoginThrottle) RecordFailure(ip string) int {
	if !t.Enabled() {
		return 0
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.now()
	state, ok := t.attempts[ip]
	if !ok || (now.Sub(state.firstAttempt) > t.window && !now.Before(state.lockedUntil)) {
		state = &attemptState{firstAttempt: now}
		t.attempts[ip] = state
	}

	state.count++
	if state.count >= t.maxAttempts {
		state.lockedUntil = now.Add(t.lockDuration)
		state.count = t.maxAttempts
	}

	remaining := t.maxAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Reset はログイン成功時に失敗履歴を消去します。
func (t *LoginThrottle) Reset(ip string) {
	if !t.Enabled() {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	delete(t.attempts, ip)
}
