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

// Hash is a 32-byte block header hash, opaque to this package: block
// validation and hashing live in the consensus collaborator.
type Hash [32]byte

// Tag identifies a payload's wire type. Values are stable small integers;
// never renumber an existing tag once deployed.
type Tag byte

const (
	TagVersion Tag = iota
	TagVerack
	TagPing
	TagPong
	TagGetPeers
	TagPeers
	TagGetMemoryPool
	TagMemoryPool
	TagTransaction
	TagGetSync
	TagSync
	TagGetBlocks
	TagBlock
	TagSyncBlock
)

func (t Tag) String() string {
	switch t {
	case TagVersion:
		return "Version"
	case TagVerack:
		return "Verack"
	case TagPing:
		return "Ping"
	case TagPong:
		return "Pong"
	case TagGetPeers:
		return "GetPeers"
	case TagPeers:
		return "Peers"
	case TagGetMemoryPool:
		return "GetMemoryPool"
	case TagMemoryPool:
		return "MemoryPool"
	case TagTransaction:
		return "Transaction"
	case TagGetSync:
		return "GetSync"
	case TagSync:
		return "Sync"
	case TagGetBlocks:
		return "GetBlocks"
	case TagBlock:
		return "Block"
	case TagSyncBlock:
		return "SyncBlock"
	default:
		return "Unknown"
	}
}

// Payload is implemented by every message body. Each payload knows its own
// tag and how to marshal/unmarshal its fields; codec.go owns the outer
// length-prefixed framing shared by all of them.
type Payload interface {
	Tag() Tag
	marshal() []byte
	unmarshal([]byte) error
}

// Version is the handshake's first message (spec §4.3).
type Version struct {
	Version      uint32
	ListenerPort uint16
	Nonce        uint64
	Height       uint64
}

func (*Version) Tag() Tag { return TagVersion }

// Verack closes out one direction of the handshake, echoing the nonce it
// acknowledges so each side can match it to the connection attempt.
type Verack struct {
	Nonce uint64
}

func (*Verack) Tag() Tag { return TagVerack }

// Ping carries the sender's current chain height.
type Ping struct {
	Height uint64
}

func (*Ping) Tag() Tag { return TagPing }

// Pong is an empty reply to Ping.
type Pong struct{}

func (*Pong) Tag() Tag { return TagPong }

// GetPeers requests a sample of the responder's connected peers.
type GetPeers struct{}

func (*GetPeers) Tag() Tag { return TagGetPeers }

// Peers carries up to K listener addresses (spec §4.4).
type Peers struct {
	Addresses []Address
}

func (*Peers) Tag() Tag { return TagPeers }

// GetMemoryPool requests the responder's current pending-transaction set.
type GetMemoryPool struct{}

func (*GetMemoryPool) Tag() Tag { return TagGetMemoryPool }

// MemoryPool carries serialized transactions from the responder's pool.
type MemoryPool struct {
	Transactions [][]byte
}

func (*MemoryPool) Tag() Tag { return TagMemoryPool }

// Transaction carries a single serialized transaction for gossip.
type Transaction struct {
	Bytes []byte
}

func (*Transaction) Tag() Tag { return TagTransaction }

// GetSync carries a block locator: the sender's height-thinned list of
// local block hashes (spec §4.6).
type GetSync struct {
	LocatorHashes []Hash
}

func (*GetSync) Tag() Tag { return TagGetSync }

// Sync carries the responder's answer to a GetSync: the block hashes
// following the shared ancestor toward the responder's tip, at most
// MaxBlockSyncSize of them.
type Sync struct {
	BlockHashes []Hash
}

func (*Sync) Tag() Tag { return TagSync }

// GetBlocks requests the block bodies for the given hashes.
type GetBlocks struct {
	Hashes []Hash
}

func (*GetBlocks) Tag() Tag { return TagGetBlocks }

// Block carries a gossiped, freshly produced block.
type Block struct {
	Bytes []byte
}

func (*Block) Tag() Tag { return TagBlock }

// SyncBlock carries a block delivered in response to an explicit
// GetBlocks; it is never re-propagated (spec §4.6's propagation policy).
type SyncBlock struct {
	Bytes []byte
}

func (*SyncBlock) Tag() Tag { return TagSyncBlock }

// Direction records whether a Message was received from, or is to be sent
// to, a peer.
type Direction int

const (
	Inbound Direction = iota
	Outbound
)

// Message pairs a payload with the peer it came from or is going to.
type Message struct {
	Direction Direction
	Peer      Address
	Payload   Payload
}
