// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.
//
// Quality is kept out of the peer book's RWMutex on purpose: it is updated
// from the reader/writer goroutines of a single peer far more often than the
// book itself changes shape, so it gets its own fine-grained synchronization
// (original_source/network/src/peers/peer_book.rs's Arc<PeerQuality>).
package p2p

import (
	"sync"
	"sync/atomic"
	"time"
)

// Quality tracks the liveness and sync-progress signals for one peer. It is
// always shared by pointer: PeerInfo holds a *Quality, never a copy, so every
// goroutine touching a given peer observes the same counters.
type Quality struct {
	rttMillis           int64 // atomic
	failures            int64 // atomic
	remainingSyncBlocks int64 // atomic
	expectingPong       int32 // atomic bool

	mu           sync.Mutex
	lastPingSent time.Time
	lastSeen     time.Time
}

// NewQuality returns a freshly initialized Quality block.
func NewQuality() *Quality {
	return &Quality{}
}

// SendingPing records that a ping was just sent, starting the RTT clock and
// arming the "expecting pong" flag.
func (q *Quality) SendingPing() {
	q.mu.Lock()
	q.lastPingSent = time.Now()
	q.mu.Unlock()
	atomic.StoreInt32(&q.expectingPong, 1)
}

// ReceivedPong clears the "expecting pong" flag, records the observed RTT,
// and touches last_seen. Returns false if no ping was outstanding (an
// unsolicited Pong), which callers count as a failure.
func (q *Quality) ReceivedPong() bool {
	if !atomic.CompareAndSwapInt32(&q.expectingPong, 1, 0) {
		return false
	}
	q.mu.Lock()
	rtt := time.Since(q.lastPingSent)
	q.lastSeen = time.Now()
	q.mu.Unlock()
	atomic.StoreInt64(&q.rttMillis, rtt.Milliseconds())
	return true
}

// IsExpectingPong reports whether the last ping sent has not yet been
// answered by a Pong. It does not look at how long ago the ping was sent.
func (q *Quality) IsExpectingPong() bool {
	return atomic.LoadInt32(&q.expectingPong) == 1
}

// IncrementFailures records a protocol violation or I/O failure.
func (q *Quality) IncrementFailures() int64 {
	return atomic.AddInt64(&q.failures, 1)
}

// Failures returns the current failure count.
func (q *Quality) Failures() int64 {
	return atomic.LoadInt64(&q.failures)
}

// RTT returns the last observed round-trip time.
func (q *Quality) RTT() time.Duration {
	return time.Duration(atomic.LoadInt64(&q.rttMillis)) * time.Millisecond
}

// ExpectingSyncBlocks arms the sync-block counter: the peer now owes us
// `total` SyncBlock messages before the session is complete.
func (q *Quality) ExpectingSyncBlocks(total int) {
	atomic.StoreInt64(&q.remainingSyncBlocks, int64(total))
}

// GotSyncBlock decrements the outstanding sync-block counter and returns the
// new value (spec §4.6: reaching zero completes the sync session).
func (q *Quality) GotSyncBlock() int64 {
	return atomic.AddInt64(&q.remainingSyncBlocks, -1)
}

// RemainingSyncBlocks returns the outstanding sync-block counter.
func (q *Quality) RemainingSyncBlocks() int64 {
	return atomic.LoadInt64(&q.remainingSyncBlocks)
}

// IsSyncingBlocks reports whether this peer still owes us SyncBlock
// messages, gating block propagation per spec §4.6.
func (q *Quality) IsSyncingBlocks() bool {
	return q.RemainingSyncBlocks() > 0
}

// Touch updates last_seen to now.
func (q *Quality) Touch() {
	q.mu.Lock()
	q.lastSeen = time.Now()
	q.mu.Unlock()
}

// LastSeen returns the last time this peer was heard from.
func (q *Quality) LastSeen() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastSeen
}
