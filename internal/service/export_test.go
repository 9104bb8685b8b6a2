package service

import "time"

const BucketIdleTimeout = bucketIdleTimeout

// SetBucketClock replaces the time source of tb.
func SetBucketClock(tb *TokenBucket, now func() time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.now = now
}
