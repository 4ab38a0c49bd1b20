// Copyright 2018 The klaytn Authors
// Copyright 2016 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.
//
// This file is derived from cmd/kcn/main.go, trimmed from the full klaytn
// consensus-node flag set (mining, accounts, RPC, light client, trie cache
// tuning, ...) down to the networking core's own surface.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/urfave/cli.v1"

	"github.com/ground-x/kcore/log"
	"github.com/ground-x/kcore/networks/p2p"
	"github.com/ground-x/kcore/node"
	"github.com/ground-x/kcore/params"
)

var logger = log.NewModuleLogger(log.Node)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the peer-book store (empty for in-memory)",
		Value: node.DefaultDataDir(),
	}
	listenPortFlag = cli.IntFlag{
		Name:  "port",
		Usage: "Network listening port",
		Value: params.DefaultListenPort,
	}
	bootnodesFlag = cli.StringFlag{
		Name:  "bootnodes",
		Usage: "Comma-separated host:port seed addresses",
	}
	maxPeersFlag = cli.UintFlag{
		Name:  "maxpeers",
		Usage: "Maximum number of connected peers",
		Value: params.DefaultMaximumNumberOfConnectedPeers,
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file (overrides defaults; flags override this)",
	}
)

var app = cli.NewApp()

func init() {
	app.Name = "kcnode"
	app.Usage = "peer-to-peer networking and block-synchronization node"
	app.Flags = []cli.Flag{
		dataDirFlag,
		listenPortFlag,
		bootnodesFlag,
		maxPeersFlag,
		configFlag,
	}
	app.Action = run
}

func buildConfig(ctx *cli.Context) (*params.Config, error) {
	var cfg *params.Config
	var err error
	if path := ctx.GlobalString(configFlag.Name); path != "" {
		cfg, err = params.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = params.DefaultConfig()
	}

	if ctx.GlobalIsSet(dataDirFlag.Name) || cfg.DataDir == "" {
		cfg.DataDir = ctx.GlobalString(dataDirFlag.Name)
	}
	if ctx.GlobalIsSet(listenPortFlag.Name) {
		cfg.ListenPort = uint16(ctx.GlobalInt(listenPortFlag.Name))
	}
	if ctx.GlobalIsSet(maxPeersFlag.Name) {
		cfg.MaximumNumberOfConnectedPeers = ctx.GlobalUint(maxPeersFlag.Name)
	}
	if raw := ctx.GlobalString(bootnodesFlag.Name); raw != "" {
		cfg.Bootnodes = splitAndTrim(raw)
	}
	return cfg, nil
}

func splitAndTrim(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if part := strings.TrimSpace(s[start:i]); part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}

func run(ctx *cli.Context) error {
	cfg, err := buildConfig(ctx)
	if err != nil {
		return err
	}

	// A standalone node has no ledger, consensus engine, or mempool wired
	// in; noopCollaborators satisfies the three collaborator interfaces
	// with inert stand-ins so the networking core can still be driven end
	// to end (handshakes, peer exchange) by an embedding application that
	// supplies the real implementations.
	collaborators := newNoopCollaborators()

	n, err := node.New(cfg, collaborators, collaborators, collaborators)
	if err != nil {
		return err
	}
	if err := n.Start(); err != nil {
		return err
	}
	logger.Info("kcnode running", "port", cfg.ListenPort)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	n.Stop()
	return nil
}

// noopCollaborators is a minimal Consensus+Storage+MemoryPool implementation
// for running the networking core standalone (e.g. smoke-testing peer
// exchange) without an embedding application's real ledger.
type noopCollaborators struct {
	start time.Time
}

func newNoopCollaborators() *noopCollaborators { return &noopCollaborators{start: time.Now()} }

func (n *noopCollaborators) VerifyTransaction([]byte) bool             { return false }
func (n *noopCollaborators) ReceiveBlock([]byte) (bool, error)         { return false, nil }
func (n *noopCollaborators) MaxBlockSize() int                         { return params.DefaultMaxBlockSize }
func (n *noopCollaborators) GetBlockDifficulty(p2p.Hash) (uint64, bool) { return 0, false }

func (n *noopCollaborators) GetLatestSharedHash([]p2p.Hash) (p2p.Hash, bool) {
	return p2p.Hash{}, false
}
func (n *noopCollaborators) GetBlockNumber(p2p.Hash) (uint64, bool)  { return 0, false }
func (n *noopCollaborators) GetCurrentBlockHeight() uint64           { return 0 }
func (n *noopCollaborators) GetBlockHash(uint64) (p2p.Hash, bool)    { return p2p.Hash{}, false }
func (n *noopCollaborators) GetBlock(p2p.Hash) ([]byte, bool)        { return nil, false }
func (n *noopCollaborators) BlockHashExists(p2p.Hash) bool           { return false }

func (n *noopCollaborators) Insert([]byte) bool        { return false }
func (n *noopCollaborators) Contains([]byte) bool      { return false }
func (n *noopCollaborators) GetCandidates() [][]byte   { return nil }

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
