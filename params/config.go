// Copyright 2019 The klaytn Authors
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

// Package params holds the networking core's configuration surface: the
// defaults table of spec §6, and the bootnode seed list of params/bootnodes.go.
package params

import (
	"os"
	"time"

	"github.com/naoina/toml"
)

// Config mirrors spec.md §6's option table field for field.
type Config struct {
	ListenPort uint16   `toml:"listen_port"`
	Bootnodes  []string `toml:"bootnodes"`

	MinimumNumberOfConnectedPeers uint `toml:"minimum_number_of_connected_peers"`
	DesiredNumberOfConnectedPeers uint `toml:"desired_number_of_connected_peers"`
	MaximumNumberOfConnectedPeers uint `toml:"maximum_number_of_connected_peers"`

	PeerSyncInterval  time.Duration `toml:"peer_sync_interval"`
	BlockSyncInterval time.Duration `toml:"block_sync_interval"`
	TxSyncInterval    time.Duration `toml:"tx_sync_interval"`
	PingInterval      time.Duration `toml:"ping_interval"`
	HandshakeTimeout  time.Duration `toml:"handshake_timeout"`

	MaxBlockSize     int `toml:"max_block_size"`
	MaxBlockSyncSize int `toml:"max_block_sync_count"`

	// DataDir is the ambient addition: empty means an ephemeral, in-memory
	// peer-book store (storage.NewMemoryStore), matching the teacher's
	// ServiceContext.OpenDatabase ephemeral-node convention.
	DataDir string `toml:"data_dir"`
}

// Defaults per spec.md §6's table.
const (
	DefaultListenPort = 4131

	DefaultMinimumNumberOfConnectedPeers = 5
	DefaultDesiredNumberOfConnectedPeers = 25
	DefaultMaximumNumberOfConnectedPeers = 50

	DefaultPeerSyncInterval  = 5 * time.Second
	DefaultBlockSyncInterval = 10 * time.Second
	DefaultTxSyncInterval    = 5 * time.Second
	DefaultPingInterval      = 30 * time.Second
	DefaultHandshakeTimeout  = 10 * time.Second

	DefaultMaxBlockSize     = 2 * 1024 * 1024
	DefaultMaxFrameSize     = 16 * 1024 * 1024
	DefaultMaxBlockSyncSize = 64

	// PongTimeout and failure thresholds are part of §5's timeout table, not
	// the §6 config surface, but are exposed as tunables here since nothing
	// else in the tree owns them.
	DefaultPongTimeout       = 60 * time.Second
	DefaultPongFailureLimit  = 3
	DefaultBlockFetchTimeout = 30 * time.Second

	// DialCooldown is the "recently failed" window outbound dial selection
	// skips (spec §4.3's admission control).
	DefaultDialCooldown = 30 * time.Second

	// OutboundQueueSize bounds the per-peer outbound channel (spec §4.5).
	DefaultOutboundQueueSize = 256

	// PeerTimeout is how stale a connected peer's last_seen may get before
	// the peer-sync tick prunes it (spec §4.7).
	DefaultPeerTimeout = 90 * time.Second

	// GetPeersResponseLimit is K in spec §4.4's GetPeers handler.
	DefaultGetPeersResponseLimit = 30
)

// DefaultConfig returns a Config populated with spec.md §6's defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenPort:                    DefaultListenPort,
		Bootnodes:                     append([]string(nil), MainnetBootnodes...),
		MinimumNumberOfConnectedPeers: DefaultMinimumNumberOfConnectedPeers,
		DesiredNumberOfConnectedPeers: DefaultDesiredNumberOfConnectedPeers,
		MaximumNumberOfConnectedPeers: DefaultMaximumNumberOfConnectedPeers,
		PeerSyncInterval:              DefaultPeerSyncInterval,
		BlockSyncInterval:             DefaultBlockSyncInterval,
		TxSyncInterval:                DefaultTxSyncInterval,
		PingInterval:                  DefaultPingInterval,
		HandshakeTimeout:              DefaultHandshakeTimeout,
		MaxBlockSize:                  DefaultMaxBlockSize,
		MaxBlockSyncSize:              DefaultMaxBlockSyncSize,
	}
}

// LoadConfig reads a TOML configuration file into a Config seeded with
// defaults, the way cmd/utils/flags.go layers a config file's contents over
// a default config before applying CLI flag overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
