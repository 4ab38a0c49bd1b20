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
// Grounded on original_source/network/src/peers/peer_book.rs: the
// connecting/connected/disconnected three-set model and its transition
// rules are carried over verbatim in semantics, expressed with a single
// sync.RWMutex in place of the original's ownership-checked mutable
// reference discipline.
package p2p

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ground-x/kcore/metrics"
)

// ErrAlreadyConnected is returned by SetConnecting when the address is
// already a connected peer.
var ErrAlreadyConnected = errors.New("p2p: peer already connected")

// PeerBook is the single source of truth for what this node knows about
// every address it has ever dialed or been dialed by. An address is a
// member of at most one of {connecting, connected, disconnected} at a time,
// except that SetConnecting on a known disconnected address leaves it in
// both connecting and disconnected until the handshake resolves.
type PeerBook struct {
	mu sync.RWMutex

	connecting  map[string]struct{}
	connected   map[string]*Info
	disconnected map[string]*Info
}

// NewPeerBook returns an empty, ready-to-use PeerBook.
func NewPeerBook() *PeerBook {
	return &PeerBook{
		connecting:   make(map[string]struct{}),
		connected:    make(map[string]*Info),
		disconnected: make(map[string]*Info),
	}
}

func (b *PeerBook) updateMetrics() {
	metrics.ConnectingPeers.Update(int64(len(b.connecting)))
	metrics.ConnectedPeers.Update(int64(len(b.connected)))
	metrics.DisconnectedPeers.Update(int64(len(b.disconnected)))
}

// IsConnecting reports whether addr is mid-handshake.
func (b *PeerBook) IsConnecting(addr Address) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.connecting[addr.Key()]
	return ok
}

// IsConnected reports whether addr is a live peer.
func (b *PeerBook) IsConnected(addr Address) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.connected[addr.Key()]
	return ok
}

// IsDisconnected reports whether addr is a known, currently-disconnected peer.
func (b *PeerBook) IsDisconnected(addr Address) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.disconnected[addr.Key()]
	return ok
}

// NumberOfConnectingPeers returns the size of the connecting set.
func (b *PeerBook) NumberOfConnectingPeers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connecting)
}

// NumberOfConnectedPeers returns the size of the connected set.
func (b *PeerBook) NumberOfConnectedPeers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connected)
}

// NumberOfDisconnectedPeers returns the size of the disconnected set.
func (b *PeerBook) NumberOfDisconnectedPeers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.disconnected)
}

// ConnectedPeers returns a snapshot of the connected set's addresses.
func (b *PeerBook) ConnectedPeers() []Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Address, 0, len(b.connected))
	for _, info := range b.connected {
		out = append(out, info.Address)
	}
	return out
}

// DisconnectedPeers returns a snapshot of the disconnected set's addresses.
func (b *PeerBook) DisconnectedPeers() []Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Address, 0, len(b.disconnected))
	for _, info := range b.disconnected {
		out = append(out, info.Address)
	}
	return out
}

// SetConnecting marks addr as mid-handshake. Fails if addr is already
// connected.
func (b *PeerBook) SetConnecting(addr Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.connected[addr.Key()]; ok {
		return ErrAlreadyConnected
	}
	b.connecting[addr.Key()] = struct{}{}
	return nil
}

// SetConnected promotes addr (optionally recorded under a distinct listener
// address, for inbound connections whose dial-back port differs from the
// ephemeral source port) to connected, reusing prior history if the peer
// was previously known as disconnected.
func (b *PeerBook) SetConnected(addr Address, listener Address) *Info {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := listener.Key()
	info, known := b.disconnected[key]
	if known {
		delete(b.disconnected, key)
	} else {
		info = NewInfo(listener)
	}

	delete(b.connecting, addr.Key())

	now := time.Now()
	info.State = Connected
	info.LastConnected = now
	info.LastSeen = now
	info.Quality.Touch()
	info.ConnectionCount++

	b.connected[key] = info
	b.updateMetrics()
	return info
}

// SetDisconnected moves addr out of connecting/connected and into
// disconnected, recording it as newly discovered if it was unknown. A
// failed outbound dial (addr only ever in connecting) still stamps
// LastDisconnected on the address's disconnected Info, so DialCandidates
// can enforce the cooldown window spec §4.3 requires of a recently-failed
// target, even though the address was never actually connected.
func (b *PeerBook) SetDisconnected(addr Address) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := addr.Key()
	now := time.Now()

	if _, ok := b.connecting[key]; ok {
		delete(b.connecting, key)
		info, ok := b.disconnected[key]
		if !ok {
			info = NewInfo(addr)
			b.disconnected[key] = info
		}
		info.LastDisconnected = now
		info.DisconnectionCount++
		b.updateMetrics()
		return
	}

	if info, ok := b.connected[key]; ok {
		delete(b.connected, key)
		info.State = Disconnected
		info.LastDisconnected = now
		info.DisconnectionCount++
		b.disconnected[key] = info
		b.updateMetrics()
		return
	}

	if _, ok := b.disconnected[key]; !ok {
		b.disconnected[key] = NewInfo(addr)
		b.updateMetrics()
	}
}

// DialCandidates returns disconnected peers in decreasing last-seen order,
// skipping any currently mid-dial or still inside their cooldown window
// since the last failed attempt — the outbound dial selection spec §4.3's
// admission control calls for.
func (b *PeerBook) DialCandidates(cooldown time.Duration) []Address {
	b.mu.RLock()
	defer b.mu.RUnlock()

	now := time.Now()
	infos := make([]*Info, 0, len(b.disconnected))
	for key, info := range b.disconnected {
		if _, dialing := b.connecting[key]; dialing {
			continue
		}
		if !info.LastDisconnected.IsZero() && now.Sub(info.LastDisconnected) < cooldown {
			continue
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].LastSeen.After(infos[j].LastSeen) })

	out := make([]Address, len(infos))
	for i, info := range infos {
		out[i] = info.Address
	}
	return out
}

// AddPeer records addr as a known, disconnected peer if it is not already
// tracked in any of the three sets — the effect of a gossiped Peers entry.
func (b *PeerBook) AddPeer(addr Address) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := addr.Key()
	if _, ok := b.connecting[key]; ok {
		return
	}
	if _, ok := b.connected[key]; ok {
		return
	}
	if _, ok := b.disconnected[key]; ok {
		return
	}
	b.disconnected[key] = NewInfo(addr)
	b.updateMetrics()
}

// GetPeer returns the tracked Info for addr, if any.
func (b *PeerBook) GetPeer(addr Address) (*Info, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	key := addr.Key()
	if info, ok := b.connected[key]; ok {
		return info, true
	}
	if info, ok := b.disconnected[key]; ok {
		return info, true
	}
	return nil, false
}

// RemovePeer forgets addr entirely, across all three sets.
func (b *PeerBook) RemovePeer(addr Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := addr.Key()
	delete(b.connecting, key)
	delete(b.connected, key)
	delete(b.disconnected, key)
	b.updateMetrics()
}

// LastSeen returns the connected peer with the most recent last-seen
// timestamp, used to select the block-sync initiator's target peer.
func (b *PeerBook) LastSeen() (Address, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var best *Info
	for _, info := range b.connected {
		if best == nil || info.Quality.LastSeen().After(best.Quality.LastSeen()) {
			best = info
		}
	}
	if best == nil {
		return Address{}, false
	}
	return best.Address, true
}

// Touch updates a connected peer's last-seen timestamp, both on the shared
// Info and its Quality block.
func (b *PeerBook) Touch(addr Address) {
	b.mu.RLock()
	info, ok := b.connected[addr.Key()]
	b.mu.RUnlock()
	if !ok {
		return
	}
	info.Quality.Touch()
	info.LastSeen = time.Now()
}

// IsEmpty reports whether the book has no connected peers.
func (b *PeerBook) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connected) == 0
}
