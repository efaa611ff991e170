package chat

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ActiveStreams tracks which users have a chat turn in flight. It is local
// to this process; several instances behind a load balancer do not share it.
type ActiveStreams struct {
	c *cache.Cache
}

// NewActiveStreams creates a registry. Markers older than maxAge expire on
// their own so that a crashed turn cannot lock a user out forever; a
// non-positive maxAge disables expiry.
func NewActiveStreams(maxAge time.Duration) *ActiveStreams {
	if maxAge <= 0 {
		return &ActiveStreams{c: cache.New(cache.NoExpiration, 0)}
	}
	return &ActiveStreams{c: cache.New(maxAge, time.Minute)}
}

// Acquire marks userID as streaming. It reports false if a turn is already
// in flight for that user.
func (a *ActiveStreams) Acquire(userID string) bool {
	return a.c.Add(userID, time.Now(), cache.DefaultExpiration) == nil
}

// Release clears the marker for userID.
func (a *ActiveStreams) Release(userID string) {
	a.c.Delete(userID)
}

// Active reports whether userID has a turn in flight.
func (a *ActiveStreams) Active(userID string) bool {
	_, ok := a.c.Get(userID)
	return ok
}
