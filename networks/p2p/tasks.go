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
// scheduler runs the periodic tasks of spec §4.7: one ticker-driven
// goroutine per interval, matching the flat single-goroutine-per-concern
// style of the teacher's own ticker-driven background loops.
package p2p

import (
	"sync"
	"time"

	"github.com/ground-x/kcore/params"
)

type scheduler struct {
	cfg  *params.Config
	core *Core

	stop chan struct{}
	wg   sync.WaitGroup
}

func newScheduler(cfg *params.Config, core *Core) *scheduler {
	return &scheduler{cfg: cfg, core: core, stop: make(chan struct{})}
}

// Start launches one goroutine per periodic concern.
func (s *scheduler) Start() {
	s.wg.Add(4)
	go s.run(s.cfg.PeerSyncInterval, s.peerSyncTick)
	go s.run(s.cfg.PingInterval, s.pingTick)
	go s.run(s.cfg.BlockSyncInterval, s.blockSyncTick)
	go s.run(s.cfg.TxSyncInterval, s.txSyncTick)
}

// Stop signals every scheduler goroutine to exit and waits for them.
func (s *scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *scheduler) run(interval time.Duration, tick func()) {
	defer s.wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			tick()
		}
	}
}

// peerSyncTick sends GetPeers to a connected peer to refresh the book,
// prunes connected peers that have gone quiet past PeerTimeout, dials
// outbound to bring the connected population toward desired (spec §4.7),
// and persists the peer book.
func (s *scheduler) peerSyncTick() {
	peers := s.core.server.connectedPeers()
	if len(peers) > 0 {
		peers[0].Send(&GetPeers{})
	}

	deadline := time.Now().Add(-params.DefaultPeerTimeout)
	for _, p := range peers {
		info, ok := s.core.book.GetPeer(p.listener)
		if ok && info.Quality.LastSeen().Before(deadline) {
			coreLog.Debug("pruning unresponsive peer", "addr", p.listener.String())
			p.Close()
		}
	}

	s.dialToward()

	if err := s.core.book.Save(s.core.store); err != nil {
		coreLog.Warn("failed to persist peer book", "err", err)
	}
}

// dialToward brings the connected population up toward
// DesiredNumberOfConnectedPeers, dialing disconnected peers in decreasing
// last-seen order and skipping any still in their dial cooldown. Below
// MinimumNumberOfConnectedPeers it also force-contacts every configured
// bootnode, per spec §4.7's "if connected count is below minimum, contact
// bootnodes" rule.
func (s *scheduler) dialToward() {
	if uint(s.core.book.NumberOfConnectedPeers()) < s.cfg.MinimumNumberOfConnectedPeers {
		for _, addr := range s.cfg.Bootnodes {
			a, err := ResolveAddress(addr)
			if err != nil {
				coreLog.Warn("skipping unresolvable bootnode", "addr", addr, "err", err)
				continue
			}
			s.dialIfIdle(a)
		}
	}

	connected := uint(s.core.book.NumberOfConnectedPeers())
	if connected >= s.cfg.DesiredNumberOfConnectedPeers {
		return
	}
	need := s.cfg.DesiredNumberOfConnectedPeers - connected
	for _, addr := range s.core.book.DialCandidates(params.DefaultDialCooldown) {
		if need == 0 {
			break
		}
		if s.dialIfIdle(addr) {
			need--
		}
	}
}

// dialIfIdle dials addr on its own goroutine, unless it is already
// connected or mid-handshake, so a slow or hanging dial never blocks the
// scheduler tick.
func (s *scheduler) dialIfIdle(addr Address) bool {
	if s.core.book.IsConnected(addr) || s.core.book.IsConnecting(addr) {
		return false
	}
	go func() {
		if err := s.core.server.Dial(addr); err != nil {
			coreLog.Debug("outbound dial failed", "addr", addr.String(), "err", err)
		}
	}()
	return true
}

// pingTick sends Ping(height) to every connected peer.
func (s *scheduler) pingTick() {
	height := s.core.storage.GetCurrentBlockHeight()
	for _, p := range s.core.server.connectedPeers() {
		info, ok := s.core.book.GetPeer(p.listener)
		if !ok {
			continue
		}
		if info.Quality.IsExpectingPong() {
			info.Quality.IncrementFailures()
			if info.Quality.Failures() >= params.DefaultPongFailureLimit {
				coreLog.Debug("peer unresponsive to ping, disconnecting", "addr", p.listener.String())
				p.Close()
				continue
			}
		}
		info.Quality.SendingPing()
		p.Send(&Ping{Height: height})
	}
}

// blockSyncTick picks the most recently seen connected peer and starts a
// sync session against it (spec §4.6's initiator role).
func (s *scheduler) blockSyncTick() {
	if s.core.book.IsEmpty() {
		return
	}
	addr, ok := s.core.book.LastSeen()
	if !ok {
		return
	}
	peer, ok := s.core.server.peerByAddress(addr)
	if !ok {
		return
	}
	s.core.requestSyncFrom(peer)
}

// txSyncTick picks one connected peer and requests its memory pool.
func (s *scheduler) txSyncTick() {
	peers := s.core.server.connectedPeers()
	if len(peers) == 0 {
		return
	}
	peers[0].Send(&GetMemoryPool{})
}
