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

package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityPingPongCycle(t *testing.T) {
	q := NewQuality()
	assert.False(t, q.IsExpectingPong())

	q.SendingPing()
	assert.True(t, q.IsExpectingPong())

	assert.True(t, q.ReceivedPong())
	assert.False(t, q.IsExpectingPong())
}

func TestQualityUnsolicitedPongIsRejected(t *testing.T) {
	q := NewQuality()
	assert.False(t, q.ReceivedPong())
}

func TestQualitySyncBlockCounterReachesZero(t *testing.T) {
	q := NewQuality()
	q.ExpectingSyncBlocks(3)
	assert.True(t, q.IsSyncingBlocks())

	q.GotSyncBlock()
	q.GotSyncBlock()
	assert.True(t, q.IsSyncingBlocks())

	q.GotSyncBlock()
	assert.False(t, q.IsSyncingBlocks())
	assert.Equal(t, int64(0), q.RemainingSyncBlocks())
}

func TestQualityFailuresAccumulate(t *testing.T) {
	q := NewQuality()
	q.IncrementFailures()
	q.IncrementFailures()
	assert.Equal(t, int64(2), q.Failures())
}
