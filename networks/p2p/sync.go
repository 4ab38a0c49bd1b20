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
// Grounded on original_source/network/src/consensus/blocks.rs: update_blocks
// (initiator tick), propagate_block, received_block, received_get_blocks,
// received_get_sync, and received_sync map directly onto the functions
// below, adapted to this package's Core/Peer/PeerBook types.
package p2p

import (
	"crypto/sha256"

	"github.com/ground-x/kcore/metrics"
)

// hashBlock derives a process-local dedup key for a block payload, used by
// Core.markSeen to avoid re-inserting and re-propagating a block this node
// has already received. It is not a consensus-level block hash — block
// identity and validation remain the Consensus collaborator's concern.
func hashBlock(b []byte) Hash {
	return sha256.Sum256(b)
}

// localLocatorHashes builds a block locator from the chain tip: dense for
// the most recent blocks, geometrically thinning toward genesis. This is
// the offsets 0,1,2,3,...,11,12,14,18,26,... of spec §4.6, translated into
// heights against the current tip.
func localLocatorHashes(s Storage) []Hash {
	height := s.GetCurrentBlockHeight()

	var offsets []uint64
	var step uint64 = 1
	for offset := uint64(0); offset <= height; {
		offsets = append(offsets, offset)
		if offset >= 12 {
			step *= 2
		}
		offset += step
	}

	hashes := make([]Hash, 0, len(offsets))
	for _, offset := range offsets {
		if offset > height {
			continue
		}
		h, ok := s.GetBlockHash(height - offset)
		if !ok {
			continue
		}
		hashes = append(hashes, h)
	}
	return hashes
}

// syncResponderRange computes [h+1, h_max] for a GetSync responder, capping
// the amount of history returned in one round trip.
func syncResponderRange(h, currentHeight uint64, maxCount int) (from, to uint64, empty bool) {
	if h >= currentHeight {
		return 0, 0, true
	}
	max := currentHeight
	if h+uint64(maxCount) < max {
		max = h + uint64(maxCount)
	}
	return h + 1, max, false
}

// requestSyncFrom sends a GetSync carrying the local locator to p -- the
// initiator side of a sync session, triggered either by the periodic
// block-sync tick or by observing a peer's height in a Ping.
func (c *Core) requestSyncFrom(p *Peer) {
	p.Send(&GetSync{LocatorHashes: localLocatorHashes(c.storage)})
}

func (c *Core) handleGetSync(p *Peer, msg *GetSync) {
	// A locator with no hash in the local chain shares only genesis, so the
	// reply then starts right after height 0.
	var h uint64
	if shared, ok := c.storage.GetLatestSharedHash(msg.LocatorHashes); ok {
		n, ok := c.storage.GetBlockNumber(shared)
		if !ok {
			p.Send(&Sync{})
			return
		}
		h = n
	}

	from, to, empty := syncResponderRange(h, c.storage.GetCurrentBlockHeight(), c.cfg.MaxBlockSyncSize)
	if empty {
		p.Send(&Sync{})
		return
	}

	hashes := make([]Hash, 0, to-from+1)
	for height := from; height <= to; height++ {
		if hash, ok := c.storage.GetBlockHash(height); ok {
			hashes = append(hashes, hash)
		}
	}
	p.Send(&Sync{BlockHashes: hashes})
}

func (c *Core) handleSync(p *Peer, msg *Sync) {
	var missing []Hash
	for _, h := range msg.BlockHashes {
		if !c.storage.BlockHashExists(h) {
			missing = append(missing, h)
		}
	}
	if len(missing) == 0 {
		return
	}

	info, ok := c.book.GetPeer(p.listener)
	if !ok {
		return
	}
	info.Quality.ExpectingSyncBlocks(len(missing))

	maxCount := c.cfg.MaxBlockSyncSize
	for start := 0; start < len(missing); start += maxCount {
		end := start + maxCount
		if end > len(missing) {
			end = len(missing)
		}
		p.Send(&GetBlocks{Hashes: missing[start:end]})
	}
}

func (c *Core) handleGetBlocks(p *Peer, msg *GetBlocks) {
	for _, h := range msg.Hashes {
		block, ok := c.storage.GetBlock(h)
		if !ok {
			continue
		}
		p.Send(&SyncBlock{Bytes: block})
	}
}

func (c *Core) handleBlock(p *Peer, msg *Block) {
	if len(msg.Bytes) > c.consensus.MaxBlockSize() {
		c.protocolViolation(p, "block exceeds MaxBlockSize")
		return
	}
	if c.markSeen(hashBlock(msg.Bytes)) {
		return
	}

	accepted, err := c.consensus.ReceiveBlock(msg.Bytes)
	if err != nil || !accepted {
		return
	}
	metrics.BlocksSynced.Inc(1)

	if c.anyPeerSyncing() {
		return
	}
	c.propagateBlockExcept(p, msg.Bytes)
}

func (c *Core) handleSyncBlock(p *Peer, msg *SyncBlock) {
	if len(msg.Bytes) > c.consensus.MaxBlockSize() {
		c.protocolViolation(p, "sync block exceeds MaxBlockSize")
		return
	}
	if !c.markSeen(hashBlock(msg.Bytes)) {
		if _, err := c.consensus.ReceiveBlock(msg.Bytes); err != nil {
			return
		}
		metrics.BlocksSynced.Inc(1)
	}

	if info, ok := c.book.GetPeer(p.listener); ok {
		info.Quality.GotSyncBlock()
	}
	// SyncBlock is never re-propagated (spec §4.6).
}

// propagateBlockExcept broadcasts a freshly accepted block to every
// connected peer other than the one it arrived from.
func (c *Core) propagateBlockExcept(from *Peer, block []byte) {
	for _, conn := range c.server.connectedPeers() {
		if conn == from {
			continue
		}
		conn.Send(&Block{Bytes: block})
	}
	metrics.BlocksPropagated.Inc(1)
}

// broadcastExcept gossips payload to every connected peer other than from.
func (c *Core) broadcastExcept(from *Peer, payload Payload) {
	for _, conn := range c.server.connectedPeers() {
		if conn == from {
			continue
		}
		conn.Send(payload)
	}
	if _, ok := payload.(*Transaction); ok {
		metrics.TransactionsGossip.Inc(1)
	}
}
