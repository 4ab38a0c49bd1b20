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

// fakeStorage is a minimal Storage stand-in for sync-engine unit tests.
type fakeStorage struct {
	height  uint64
	hashes  map[uint64]Hash
	numbers map[Hash]uint64
	blocks  map[Hash][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		hashes:  make(map[uint64]Hash),
		numbers: make(map[Hash]uint64),
		blocks:  make(map[Hash][]byte),
	}
}

func (s *fakeStorage) addBlock(height uint64, h Hash, body []byte) {
	s.hashes[height] = h
	s.numbers[h] = height
	s.blocks[h] = body
	if height > s.height {
		s.height = height
	}
}

func (s *fakeStorage) GetLatestSharedHash(locator []Hash) (Hash, bool) {
	for _, h := range locator {
		if _, ok := s.numbers[h]; ok {
			return h, true
		}
	}
	return Hash{}, false
}
func (s *fakeStorage) GetBlockNumber(h Hash) (uint64, bool)    { n, ok := s.numbers[h]; return n, ok }
func (s *fakeStorage) GetCurrentBlockHeight() uint64           { return s.height }
func (s *fakeStorage) GetBlockHash(height uint64) (Hash, bool) { h, ok := s.hashes[height]; return h, ok }
func (s *fakeStorage) GetBlock(h Hash) ([]byte, bool)          { b, ok := s.blocks[h]; return b, ok }
func (s *fakeStorage) BlockHashExists(h Hash) bool             { _, ok := s.numbers[h]; return ok }

func hashOf(b byte) Hash {
	var h Hash
	h[0] = b
	return h
}

func TestLocalLocatorHashesDenseThenThinning(t *testing.T) {
	s := newFakeStorage()
	for i := uint64(0); i <= 30; i++ {
		s.addBlock(i, hashOf(byte(i)), nil)
	}

	locator := localLocatorHashes(s)

	// Offsets from tip (30): 0,1,...,11,12,14,18,26 -> heights 30,29,...,19,18,16,12,4
	wantHeights := []uint64{30, 29, 28, 27, 26, 25, 24, 23, 22, 21, 20, 19, 18, 16, 12, 4}
	wantHashes := make([]Hash, len(wantHeights))
	for i, h := range wantHeights {
		wantHashes[i] = hashOf(byte(h))
	}
	assert.Equal(t, wantHashes, locator)
}

func TestSyncResponderRangeCapsAtMaxCount(t *testing.T) {
	from, to, empty := syncResponderRange(5, 100, 10)
	assert.False(t, empty)
	assert.Equal(t, uint64(6), from)
	assert.Equal(t, uint64(15), to)
}

func TestSyncResponderRangeEmptyWhenCallerAtTip(t *testing.T) {
	_, _, empty := syncResponderRange(50, 50, 10)
	assert.True(t, empty)
}

func TestSyncResponderRangeStopsAtCurrentHeight(t *testing.T) {
	from, to, empty := syncResponderRange(95, 100, 10)
	assert.False(t, empty)
	assert.Equal(t, uint64(96), from)
	assert.Equal(t, uint64(100), to)
}
