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
// Persistence mirrors original_source/network/src/peers/peer_book.rs's
// storage.get_peer_book/bincode::deserialize round trip. Go's idiomatic
// analogue of an internal, schema-owned binary blob is encoding/gob rather
// than a general-purpose serialization crate.
package p2p

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/ground-x/kcore/log"
	"github.com/ground-x/kcore/storage"
)

// PeerBookKey is the reserved storage key the peer book is persisted under.
const PeerBookKey = "/net/peerbook"

var storeLog = log.NewModuleLogger(log.P2P)

// snapshotEntry is the exported, gob-friendly projection of an Info: the
// quality block is deliberately not persisted, since RTT/failure counters
// are only meaningful for the lifetime of a live connection.
type snapshotEntry struct {
	Address            Address
	State              State
	FirstSeen          time.Time
	LastSeen           time.Time
	LastConnected      time.Time
	LastDisconnected   time.Time
	ConnectionCount    uint64
	DisconnectionCount uint64
}

type snapshot struct {
	Connected    []snapshotEntry
	Disconnected []snapshotEntry
}

func toEntry(info *Info) snapshotEntry {
	return snapshotEntry{
		Address:            info.Address,
		State:               info.State,
		FirstSeen:           info.FirstSeen,
		LastSeen:            info.LastSeen,
		LastConnected:       info.LastConnected,
		LastDisconnected:    info.LastDisconnected,
		ConnectionCount:     info.ConnectionCount,
		DisconnectionCount:  info.DisconnectionCount,
	}
}

func fromEntry(e snapshotEntry) *Info {
	return &Info{
		Address:            e.Address,
		State:              e.State,
		FirstSeen:          e.FirstSeen,
		LastSeen:           e.LastSeen,
		LastConnected:      e.LastConnected,
		LastDisconnected:   e.LastDisconnected,
		ConnectionCount:    e.ConnectionCount,
		DisconnectionCount: e.DisconnectionCount,
		Quality:            NewQuality(),
	}
}

// MarshalBinary encodes the book's connected and disconnected peers (the
// connecting set is transient handshake state and is never persisted).
func (b *PeerBook) MarshalBinary() ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := snapshot{
		Connected:    make([]snapshotEntry, 0, len(b.connected)),
		Disconnected: make([]snapshotEntry, 0, len(b.disconnected)),
	}
	for _, info := range b.connected {
		snap.Connected = append(snap.Connected, toEntry(info))
	}
	for _, info := range b.disconnected {
		snap.Disconnected = append(snap.Disconnected, toEntry(info))
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary is the inverse of MarshalBinary. On boot, peers loaded
// from storage are placed into the disconnected set, regardless of which
// set held them when persisted: nothing survives a restart already
// connected.
func (b *PeerBook) UnmarshalBinary(data []byte) error {
	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range append(snap.Connected, snap.Disconnected...) {
		b.disconnected[e.Address.Key()] = fromEntry(e)
	}
	return nil
}

// LoadPeerBook reads and decodes the peer book from store. A missing key or
// a decode failure is logged and produces an empty book; the book's
// persistence is a convenience, never a boot precondition.
func LoadPeerBook(store storage.Store) *PeerBook {
	book := NewPeerBook()

	data, err := store.Get([]byte(PeerBookKey))
	if err != nil {
		storeLog.Debug("no persisted peer book found, starting empty", "err", err)
		return book
	}
	if err := book.UnmarshalBinary(data); err != nil {
		storeLog.Warn("failed to decode persisted peer book, starting empty", "err", err)
		return NewPeerBook()
	}
	return book
}

// Save encodes and writes the peer book to store under PeerBookKey.
func (b *PeerBook) Save(store storage.Store) error {
	data, err := b.MarshalBinary()
	if err != nil {
		return err
	}
	return store.Put([]byte(PeerBookKey), data)
}
