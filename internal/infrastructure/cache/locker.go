package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockHeld is returned when another owner holds the lock
var ErrLockHeld = errors.New("lock is held by another owner")

// minRefresh bounds how often a held lock is refreshed
const minRefresh = 10 * time.Millisecond

// Locker grants exclusive locks keyed by name
type Locker interface {
	// Acquire takes the lock or fails fast with ErrLockHeld. The lock is
	// refreshed until release is called, so ttl only bounds how long it
	// outlives a holder that dies without releasing. release is safe to
	// call more than once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// MeetingLockKey is the lock name guarding one meeting's mutable state
func MeetingLockKey(meetingID string) string {
	return "boardroom:meeting:lock:" + meetingID
}

// keepAlive calls extend every third of ttl until the returned stop func is
// called or extend reports the lock is no longer held. stop waits for the
// refresher to exit.
func keepAlive(ttl time.Duration, extend func() bool) (stop func()) {
	every := ttl / 3
	if every < minRefresh {
		every = minRefresh
	}

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				if !extend() {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			<-done
		})
	}
}
