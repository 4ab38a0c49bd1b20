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
// dispatch is the single per-peer message-handler table, one case per
// payload tag, exactly mirroring the response-kind match in
// original_source/network/src/inbound/response.rs and the table spelled out
// in spec.md §4.4.
package p2p

import "github.com/ground-x/kcore/params"

func (c *Core) dispatch(p *Peer, payload Payload) {
	switch msg := payload.(type) {
	case *Version:
		c.handleVersion(p, msg)
	case *Verack:
		c.handleVerack(p, msg)
	case *Ping:
		c.handlePing(p, msg)
	case *Pong:
		c.handlePong(p, msg)
	case *GetPeers:
		c.handleGetPeers(p, msg)
	case *Peers:
		c.handlePeers(p, msg)
	case *GetMemoryPool:
		c.handleGetMemoryPool(p, msg)
	case *MemoryPool:
		c.handleMemoryPool(p, msg)
	case *Transaction:
		c.handleTransaction(p, msg)
	case *GetSync:
		c.handleGetSync(p, msg)
	case *Sync:
		c.handleSync(p, msg)
	case *GetBlocks:
		c.handleGetBlocks(p, msg)
	case *Block:
		c.handleBlock(p, msg)
	case *SyncBlock:
		c.handleSyncBlock(p, msg)
	default:
		coreLog.Warn("dropping frame with unhandled tag", "addr", p.addr.String())
	}
}

// handleVersion and handleVerack only run if a peer sends either message
// again after the handshake completes, which is a protocol violation: both
// are consumed directly by the handshake state machine in server.go.
func (c *Core) handleVersion(p *Peer, _ *Version) {
	c.protocolViolation(p, "unexpected Version after handshake")
}

func (c *Core) handleVerack(p *Peer, _ *Verack) {
	c.protocolViolation(p, "unexpected Verack after handshake")
}

func (c *Core) protocolViolation(p *Peer, reason string) {
	if info, ok := c.book.GetPeer(p.listener); ok {
		info.Quality.IncrementFailures()
	}
	coreLog.Debug("protocol violation, closing peer", "addr", p.addr.String(), "reason", reason)
	p.Close()
}

func (c *Core) handlePing(p *Peer, msg *Ping) {
	c.book.Touch(p.listener)
	p.Send(&Pong{})

	if info, ok := c.book.GetPeer(p.listener); ok && msg.Height > c.storage.GetCurrentBlockHeight() {
		if !info.Quality.IsSyncingBlocks() {
			c.requestSyncFrom(p)
		}
	}
}

func (c *Core) handlePong(p *Peer, _ *Pong) {
	info, ok := c.book.GetPeer(p.listener)
	if !ok {
		return
	}
	if !info.Quality.ReceivedPong() {
		info.Quality.IncrementFailures()
	}
}

func (c *Core) handleGetPeers(p *Peer, _ *GetPeers) {
	addrs := c.book.ConnectedPeers()
	sample := make([]Address, 0, params.DefaultGetPeersResponseLimit)
	for _, a := range addrs {
		if a.Key() == p.listener.Key() {
			continue
		}
		sample = append(sample, a)
		if len(sample) >= params.DefaultGetPeersResponseLimit {
			break
		}
	}
	p.Send(&Peers{Addresses: sample})
}

func (c *Core) handlePeers(_ *Peer, msg *Peers) {
	for _, a := range msg.Addresses {
		c.book.AddPeer(a)
	}
}

func (c *Core) handleGetMemoryPool(p *Peer, _ *GetMemoryPool) {
	p.Send(&MemoryPool{Transactions: c.memoryPool.GetCandidates()})
}

func (c *Core) handleMemoryPool(_ *Peer, msg *MemoryPool) {
	for _, tx := range msg.Transactions {
		if c.memoryPool.Contains(tx) {
			continue
		}
		if c.consensus.VerifyTransaction(tx) {
			c.memoryPool.Insert(tx)
		}
	}
}

func (c *Core) handleTransaction(p *Peer, msg *Transaction) {
	if c.memoryPool.Contains(msg.Bytes) {
		return
	}
	if !c.consensus.VerifyTransaction(msg.Bytes) {
		return
	}
	c.memoryPool.Insert(msg.Bytes)
	c.broadcastExcept(p, &Transaction{Bytes: msg.Bytes})
}
