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
// Consensus, Storage, and MemoryPool are the external collaborators spec §6
// names; this package only calls through these narrow interfaces and never
// assumes a concrete ledger, pool, or validation implementation.
package p2p

// Consensus validates and applies incoming network data to the local chain.
type Consensus interface {
	// VerifyTransaction reports whether tx is well-formed and admissible,
	// without mutating any state.
	VerifyTransaction(tx []byte) bool
	// ReceiveBlock validates, and on acceptance applies, block to the chain.
	// Returns true if the block was newly accepted.
	ReceiveBlock(block []byte) (bool, error)
	// MaxBlockSize is the largest serialized block this node will accept
	// off the wire.
	MaxBlockSize() int
	// GetBlockDifficulty returns the recorded difficulty of a known block.
	GetBlockDifficulty(hash Hash) (uint64, bool)
}

// Storage is the narrow ledger-read surface the sync engine depends on.
// Locator construction itself lives in localLocatorHashes (sync.go), built
// from the primitives below rather than delegated to Storage.
type Storage interface {
	GetLatestSharedHash(locator []Hash) (Hash, bool)
	GetBlockNumber(hash Hash) (uint64, bool)
	GetCurrentBlockHeight() uint64
	GetBlockHash(height uint64) (Hash, bool)
	GetBlock(hash Hash) ([]byte, bool)
	BlockHashExists(hash Hash) bool
}

// MemoryPool is the pending-transaction collaborator.
type MemoryPool interface {
	Insert(tx []byte) bool
	Contains(tx []byte) bool
	GetCandidates() [][]byte
}
