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
	"crypto/rand"
	"encoding/binary"

	"github.com/ground-x/kcore/common"
)

// nonceWindowSize bounds how many outstanding local nonces are remembered
// for self-connect detection; handshakes complete well within this window
// under normal dial concurrency.
const nonceWindowSize = 4096

// nonceTracker remembers nonces this node has recently sent in a Version
// message, so a handshake that echoes one back can be recognized as this
// node dialing itself (spec §4.3).
type nonceTracker struct {
	outstanding common.Cache
}

func newNonceTracker() *nonceTracker {
	return &nonceTracker{outstanding: common.NewLRUCache(nonceWindowSize)}
}

// Generate returns a fresh random nonce and records it as outstanding.
func (t *nonceTracker) Generate() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is broken,
		// a condition nothing in this process can recover from.
		panic("p2p: failed to read random nonce: " + err.Error())
	}
	nonce := binary.BigEndian.Uint64(buf[:])
	t.outstanding.Add(nonce, struct{}{})
	return nonce
}

// IsSelfConnect reports whether nonce matches one this node itself sent.
func (t *nonceTracker) IsSelfConnect(nonce uint64) bool {
	return t.outstanding.Contains(nonce)
}

// Forget removes a nonce once its handshake has completed, bounding the
// cache to genuinely outstanding attempts.
func (t *nonceTracker) Forget(nonce uint64) {
	t.outstanding.Remove(nonce)
}
