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

import "time"

// State is a peer's place in the connection lifecycle (spec §4.2).
type State int

const (
	NeverConnected State = iota
	Connecting
	Connected
	Disconnected
)

func (s State) String() string {
	switch s {
	case NeverConnected:
		return "never_connected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Info is everything the peer book tracks about one remote address: its
// lifecycle state, timestamps, connection counters, and its quality block.
// Quality is a pointer so it can be shared with the reader/writer/handler
// goroutines for that peer without going through the book's lock.
type Info struct {
	Address Address
	State   State

	FirstSeen        time.Time
	LastSeen         time.Time
	LastConnected    time.Time
	LastDisconnected time.Time

	ConnectionCount    uint64
	DisconnectionCount uint64

	Quality *Quality
}

// NewInfo returns a freshly seen, never-connected peer record.
func NewInfo(addr Address) *Info {
	now := time.Now()
	return &Info{
		Address:   addr,
		State:     NeverConnected,
		FirstSeen: now,
		LastSeen:  now,
		Quality:   NewQuality(),
	}
}
