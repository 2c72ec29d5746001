package services

import "time"

// SetNow overrides the cache clock in tests.
func (c *Cache) SetNow(fn func() time.Time) {
	c.nowFn = fn
}
