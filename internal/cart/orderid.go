package cart

import (
	"sync/atomic"
	"time"
)

// OrderIDSource hands out order ids. Ids must be unique within the process.
type OrderIDSource interface {
	NextOrderID() int64
}

// ClockIDs derives ids from wall-clock milliseconds and bumps by one when
// two checkouts land in the same millisecond, so ids strictly increase.
type ClockIDs struct {
	now  func() time.Time
	last atomic.Int64
}

func NewClockIDs(now func() time.Time) *ClockIDs {
	if now == nil {
		now = time.Now
	}
	return &ClockIDs{now: now}
}

func (c *ClockIDs) NextOrderID() int64 {
	for {
		last := c.last.Load()
		next := c.now().UnixMilli()
		if next <= last {
			next = last + 1
		}
		if c.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

var defaultOrderIDs = NewClockIDs(nil)
