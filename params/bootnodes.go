// Copyright 2018 The klaytn Authors
// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.
//
// This file is derived from params/bootnodes.go (2018/06/04), adapted to the
// bare host:port PeerAddress model: the wire protocol carries no node
// identity, so the kni://<nodeid>@host:port scheme the original bootnode
// list used no longer applies.

package params

// MainnetBootnodes are the host:port addresses of the P2P bootstrap nodes
// seeded into a fresh peer book on first start.
var MainnetBootnodes = []string{
	// TODO-Bootnode: real seed addresses should be set; empty for now so a
	// fresh node relies entirely on configured or discovered peers.
}
