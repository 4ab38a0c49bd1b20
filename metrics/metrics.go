// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

// Package metrics exposes the process-wide counters the networking core
// updates as peers connect, sync, and gossip. It is a thin wrapper over
// rcrowley/go-metrics, the module's metrics dependency.
package metrics

import "github.com/rcrowley/go-metrics"

var registry = metrics.NewRegistry()

var (
	ConnectedPeers    = metrics.NewRegisteredGauge("p2p/peers/connected", registry)
	ConnectingPeers   = metrics.NewRegisteredGauge("p2p/peers/connecting", registry)
	DisconnectedPeers = metrics.NewRegisteredGauge("p2p/peers/disconnected", registry)

	HandshakeFailures = metrics.NewRegisteredCounter("p2p/handshake/failures", registry)
	FramesDecoded     = metrics.NewRegisteredCounter("p2p/codec/frames_decoded", registry)
	FramesEncoded     = metrics.NewRegisteredCounter("p2p/codec/frames_encoded", registry)

	BlocksSynced       = metrics.NewRegisteredCounter("sync/blocks/synced", registry)
	BlocksPropagated   = metrics.NewRegisteredCounter("sync/blocks/propagated", registry)
	TransactionsGossip = metrics.NewRegisteredCounter("sync/tx/gossiped", registry)

	SlowPeerEvictions = metrics.NewRegisteredCounter("p2p/outbound/slow_peer_evictions", registry)
)

// Registry exposes the underlying rcrowley registry for an operator to wire
// into whatever reporter (log, statsd, ...) the deployment prefers; none is
// wired here since the RPC/metrics export surface is out of scope.
func Registry() metrics.Registry {
	return registry
}
