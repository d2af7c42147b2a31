package ethapi

import (
	"sync"
	"time"
)

// TimeSinceEpoch returns the current time as Unix seconds. A field of
// this type (rather than a direct time.Now call) is what makes TimeSource
// mockable in tests.
type TimeSinceEpoch func() uint64

func defaultTimeSinceEpoch() uint64 { return uint64(time.Now().Unix()) }

// TimeSource is the provider's clock: evm_increaseTime applies a running
// offset to every future block, evm_setNextBlockTimestamp pins exactly one
// upcoming block to an absolute value and then folds the difference back
// into the running offset, matching Hardhat Network's own documented
// behavior ("the timestamp will be used for the next block and the
// difference will be applied to all subsequent blocks").
type TimeSource struct {
	mu     sync.Mutex
	now    TimeSinceEpoch
	offset int64
	pinned *uint64
}

// NewTimeSource returns a TimeSource reading wall-clock time via now. A
// nil now defaults to the real system clock.
func NewTimeSource(now TimeSinceEpoch) *TimeSource {
	if now == nil {
		now = defaultTimeSinceEpoch
	}
	return &TimeSource{now: now}
}

// IncreaseTime adds delta seconds (may be negative) to the running offset
// applied to every future block's timestamp, and returns the new total
// offset (evm_increaseTime's return value).
func (ts *TimeSource) IncreaseTime(delta int64) int64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.offset += delta
	return ts.offset
}

// SetNextBlockTimestamp pins the very next mined block's timestamp to an
// absolute value (evm_setNextBlockTimestamp).
func (ts *TimeSource) SetNextBlockTimestamp(timestamp uint64) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := timestamp
	ts.pinned = &t
}

// NextBlockTimestamp returns the timestamp the next mined block should
// carry and consumes any pending SetNextBlockTimestamp override. The
// caller (miner.NewBuilder via HeaderOverrides.Timestamp) is still
// responsible for enforcing the invariant that this value is strictly
// greater than the parent's timestamp unless
// AllowBlocksWithSameTimestamp is set.
func (ts *TimeSource) NextBlockTimestamp() uint64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.pinned != nil {
		t := *ts.pinned
		ts.pinned = nil
		ts.offset = int64(t) - int64(ts.now())
		return t
	}
	return uint64(int64(ts.now()) + ts.offset)
}

// HasPendingTimestamp reports whether an evm_setNextBlockTimestamp
// override is waiting to be consumed by the next mined block.
func (ts *TimeSource) HasPendingTimestamp() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.pinned != nil
}
