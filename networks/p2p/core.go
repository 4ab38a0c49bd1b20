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
// Core plays the role node/cn/handler.go's ProtocolManager plays in the
// teacher: it owns the peer book, the connection manager, and the
// collaborators, and is the single place inbound messages and periodic
// tasks reach into to act on the rest of the system.
package p2p

import (
	"sync"

	"github.com/ground-x/kcore/log"
	"github.com/ground-x/kcore/params"
	"github.com/ground-x/kcore/storage"
)

var coreLog = log.NewModuleLogger(log.P2P)

// Core wires together the peer book, connection manager, and external
// collaborators into a running networking stack.
type Core struct {
	cfg *params.Config

	book   *PeerBook
	nonces *nonceTracker
	server *Server
	store  storage.Store

	consensus  Consensus
	storage    Storage
	memoryPool MemoryPool

	// recentBlocks tracks hashes of every block payload this node has
	// already received, whether or not consensus accepted it, so it does
	// not re-insert (and re-propagate) a block it has already seen,
	// the way the teacher's basePeer.knownBlocks cache works at the
	// per-peer level; here it is process-wide since acceptance is global.
	mu           sync.Mutex
	recentBlocks map[Hash]struct{}

	scheduler *scheduler
}

// NewCore constructs a Core ready to Start.
func NewCore(cfg *params.Config, store storage.Store, consensus Consensus, stor Storage, pool MemoryPool) *Core {
	c := &Core{
		cfg:          cfg,
		book:         LoadPeerBook(store),
		nonces:       newNonceTracker(),
		store:        store,
		consensus:    consensus,
		storage:      stor,
		memoryPool:   pool,
		recentBlocks: make(map[Hash]struct{}),
	}
	c.server = newServer(cfg, c)
	c.scheduler = newScheduler(cfg, c)
	return c
}

// PeerBook exposes the peer book to callers outside this package. Its
// persistence goes through Save and LoadPeerBook against the storage.Store,
// not through the Storage collaborator.
func (c *Core) PeerBook() *PeerBook { return c.book }

// Start adds any configured bootnodes to the peer book, begins listening,
// and launches the periodic task scheduler, whose peer-sync tick does the
// dialing.
func (c *Core) Start() error {
	for _, addr := range c.cfg.Bootnodes {
		a, err := ResolveAddress(addr)
		if err != nil {
			coreLog.Warn("skipping unresolvable bootnode", "addr", addr, "err", err)
			continue
		}
		c.book.AddPeer(a)
	}

	if err := c.server.Listen(); err != nil {
		return err
	}
	go c.server.AcceptLoop()
	c.scheduler.Start()
	coreLog.Info("p2p core started", "listen_port", c.cfg.ListenPort)
	return nil
}

// Stop tears down the listener, every connected peer, and the scheduler,
// persisting the peer book on the way out.
func (c *Core) Stop() {
	c.scheduler.Stop()
	c.server.Close()
	if err := c.book.Save(c.store); err != nil {
		coreLog.Warn("failed to persist peer book", "err", err)
	}
	coreLog.Info("p2p core stopped")
}

func (c *Core) markSeen(h Hash) (alreadySeen bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.recentBlocks[h]; ok {
		return true
	}
	c.recentBlocks[h] = struct{}{}
	return false
}

// anyPeerSyncing reports whether at least one connected peer still owes
// this node SyncBlock responses, gating block propagation per spec §4.6.
func (c *Core) anyPeerSyncing() bool {
	for _, addr := range c.book.ConnectedPeers() {
		info, ok := c.book.GetPeer(addr)
		if ok && info.Quality.IsSyncingBlocks() {
			return true
		}
	}
	return false
}
