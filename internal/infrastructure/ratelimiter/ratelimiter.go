package ratelimiter

import "time"

// Limiter decides whether the caller identified by key may proceed. When it
// may not, the duration says how long until it may try again.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
	Close()
}
