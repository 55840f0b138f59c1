// Package counter provides an integer counter safe for concurrent use.
package counter

import "sync/atomic"

type Counter struct {
	v int64
}

// New returns a Counter starting at initial.
func New(initial int64) *Counter {
	return &Counter{v: initial}
}

func (c *Counter) Inc() {
	atomic.AddInt64(&c.v, 1)
}

func (c *Counter) Dec() {
	atomic.AddInt64(&c.v, -1)
}

// Value returns the current count.
func (c *Counter) Value() int64 {
	return atomic.LoadInt64(&c.v)
}

// TakeIfPositive decrements the counter and reports true if the value was
// greater than zero, as a single atomic operation. Two concurrent callers
// against a count of one observe exactly one true.
func (c *Counter) TakeIfPositive() bool {
	for {
		cur := atomic.LoadInt64(&c.v)
		if cur <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&c.v, cur, cur-1) {
			return true
		}
	}
}
