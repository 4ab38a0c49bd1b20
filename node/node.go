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
// Node plays the role node/service.go's ServiceContext plays for the
// teacher: it resolves the data directory into an opened store and owns the
// start/stop lifecycle, trimmed from a multi-service, reflection-based
// registry (ServiceContext.services, Service.Protocols/APIs) down to the
// single p2p.Core this module runs, since there are no sibling services to
// register here.
package node

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ground-x/kcore/log"
	"github.com/ground-x/kcore/networks/p2p"
	"github.com/ground-x/kcore/params"
	"github.com/ground-x/kcore/storage"
)

var nodeLog = log.NewModuleLogger(log.Node)

// Node owns the on-disk store and the networking core built on top of it.
type Node struct {
	config *params.Config
	store  storage.Store
	core   *p2p.Core
}

// New opens the configured store (or an in-memory one for an ephemeral
// node) and constructs the networking core against the given collaborators.
func New(cfg *params.Config, consensus p2p.Consensus, stor p2p.Storage, pool p2p.MemoryPool) (*Node, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "node: open store")
	}

	core := p2p.NewCore(cfg, store, consensus, stor, pool)
	return &Node{config: cfg, store: store, core: core}, nil
}

// openStore resolves the data directory into an opened LevelDB store, or
// returns an ephemeral in-memory store if the node has no DataDir, matching
// ServiceContext.OpenDatabase's ephemeral-node fallback.
func openStore(cfg *params.Config) (storage.Store, error) {
	if cfg.DataDir == "" {
		return storage.NewMemoryStore(), nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, err
	}
	return storage.NewLevelDBStore(filepath.Join(cfg.DataDir, "peers"), 16, storage.OpenFileLimit)
}

// Core exposes the running networking core, e.g. for reading its peer book.
func (n *Node) Core() *p2p.Core { return n.core }

// Start brings up the networking core.
func (n *Node) Start() error {
	nodeLog.Info("starting node", "data_dir", n.config.DataDir)
	return n.core.Start()
}

// Stop tears down the networking core and closes the store.
func (n *Node) Stop() {
	n.core.Stop()
	n.store.Close()
	nodeLog.Info("node stopped")
}
