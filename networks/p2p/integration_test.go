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
// Scenarios grounded on spec.md §8's numbered test list, driven over
// net.Pipe instead of real sockets so the handshake and dispatch logic run
// exactly as they would over TCP without binding a port.
package p2p

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/kcore/params"
)

type fakeConsensus struct {
	accept bool
}

func (c *fakeConsensus) VerifyTransaction([]byte) bool { return true }
func (c *fakeConsensus) ReceiveBlock(block []byte) (bool, error) {
	return c.accept, nil
}
func (c *fakeConsensus) MaxBlockSize() int { return params.DefaultMaxBlockSize }
func (c *fakeConsensus) GetBlockDifficulty(Hash) (uint64, bool) { return 0, false }

type fakeMemoryPool struct {
	mu   chan struct{}
	txs  [][]byte
}

func newFakeMemoryPool() *fakeMemoryPool {
	return &fakeMemoryPool{mu: make(chan struct{}, 1)}
}

func (p *fakeMemoryPool) Insert(tx []byte) bool {
	p.txs = append(p.txs, tx)
	return true
}
func (p *fakeMemoryPool) Contains(tx []byte) bool {
	for _, t := range p.txs {
		if string(t) == string(tx) {
			return true
		}
	}
	return false
}
func (p *fakeMemoryPool) GetCandidates() [][]byte { return p.txs }

func newTestCore(t *testing.T, port uint16, store *fakeStorage, consensus *fakeConsensus, pool *fakeMemoryPool) *Core {
	t.Helper()
	cfg := params.DefaultConfig()
	cfg.ListenPort = port
	cfg.MaxBlockSyncSize = params.DefaultMaxBlockSyncSize
	c := &Core{
		cfg:          cfg,
		book:         NewPeerBook(),
		nonces:       newNonceTracker(),
		consensus:    consensus,
		storage:      store,
		memoryPool:   pool,
		recentBlocks: make(map[Hash]struct{}),
	}
	c.server = newServer(cfg, c)
	return c
}

// handshakePair runs the Version/Verack exchange over an in-memory pipe and
// returns each side's live Peer, already registered with its Core's server.
func handshakePair(t *testing.T, initiator, responder *Core) (*Peer, *Peer) {
	t.Helper()
	connA, connB := net.Pipe()

	type result struct {
		peer *Peer
		err  error
	}
	initCh := make(chan result, 1)
	respCh := make(chan result, 1)

	initAddr := testAddr(t, "127.0.0.1:1")
	respAddr := testAddr(t, "127.0.0.1:2")

	go func() {
		p, err := initiator.server.handshakeInitiator(connA, respAddr)
		initCh <- result{p, err}
	}()
	go func() {
		p, err := responder.server.handshakeResponder(connB, initAddr)
		respCh <- result{p, err}
	}()

	ir := <-initCh
	rr := <-respCh
	require.NoError(t, ir.err)
	require.NoError(t, rr.err)

	initiator.server.register(ir.peer)
	responder.server.register(rr.peer)

	go ir.peer.run()
	go rr.peer.run()

	return ir.peer, rr.peer
}

func TestHandshakeCompletesBothSidesConnected(t *testing.T) {
	initiator := newTestCore(t, 4140, newFakeStorage(), &fakeConsensus{}, newFakeMemoryPool())
	responder := newTestCore(t, 4141, newFakeStorage(), &fakeConsensus{}, newFakeMemoryPool())

	initPeer, respPeer := handshakePair(t, initiator, responder)
	defer initPeer.Close()
	defer respPeer.Close()

	info, ok := initiator.book.GetPeer(initPeer.listener)
	require.True(t, ok)
	assert.Equal(t, Connected, info.State)

	info, ok = responder.book.GetPeer(respPeer.listener)
	require.True(t, ok)
	assert.Equal(t, Connected, info.State)
}

func TestHandshakeSelfConnectRejected(t *testing.T) {
	store := newFakeStorage()
	core := newTestCore(t, 4131, store, &fakeConsensus{}, newFakeMemoryPool())

	connA, connB := net.Pipe()
	nonce := core.nonces.Generate()

	go func() {
		EncodeFrame(connA, &Version{Version: 1, ListenerPort: 4131, Nonce: nonce, Height: 0})
		connA.Close()
	}()

	_, err := core.server.handshakeResponder(connB, testAddr(t, "127.0.0.1:1"))
	assert.Error(t, err)
}

// fakePeer builds a Peer over an in-memory pipe without starting its reader
// or writer, so its outbound channel keeps whatever handlers sent and
// handler-level tests can read it back with drainOne without round-tripping
// bytes over a socket.
func fakePeer(t *testing.T, core *Core, listener Address) *Peer {
	t.Helper()
	connA, connB := net.Pipe()
	t.Cleanup(func() { connA.Close(); connB.Close() })
	return newPeerFromHandshake(core, connA, newReader(connA), listener, listener)
}

func drainOne(t *testing.T, p *Peer) Payload {
	t.Helper()
	select {
	case payload := <-p.outbound:
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound message")
		return nil
	}
}

func TestBlockResponderScenario(t *testing.T) {
	// Node with only genesis height 0; insert block B1 at height 1.
	store := newFakeStorage()
	b1 := hashOf(1)
	store.addBlock(1, b1, []byte("block-1"))

	core := newTestCore(t, 4132, store, &fakeConsensus{}, newFakeMemoryPool())
	peer := fakePeer(t, core, testAddr(t, "127.0.0.1:9"))
	core.book.SetConnected(peer.listener, peer.listener)

	// Peer sends GetSync([]); node replies Sync([H(B1)]).
	core.handleGetSync(peer, &GetSync{})
	sync := drainOne(t, peer).(*Sync)
	assert.Equal(t, []Hash{b1}, sync.BlockHashes)

	// Peer sends GetBlocks([H(B1)]); node replies SyncBlock(bytes(B1)).
	core.handleGetBlocks(peer, &GetBlocks{Hashes: []Hash{b1}})
	syncBlock := drainOne(t, peer).(*SyncBlock)
	assert.Equal(t, []byte("block-1"), syncBlock.Bytes)
}

func TestBlockInitiatorScenario(t *testing.T) {
	// Node has height 0; fake peer claims height 2 via Ping.
	store := newFakeStorage()
	consensus := &fakeConsensus{accept: true}
	core := newTestCore(t, 4133, store, consensus, newFakeMemoryPool())
	peer := fakePeer(t, core, testAddr(t, "127.0.0.1:10"))
	core.book.SetConnected(peer.listener, peer.listener)

	core.handlePing(peer, &Ping{Height: 2})
	pong := drainOne(t, peer).(*Pong)
	_ = pong
	getSync := drainOne(t, peer).(*GetSync)
	assert.Empty(t, getSync.LocatorHashes)

	b1, b2 := hashOf(1), hashOf(2)
	core.handleSync(peer, &Sync{BlockHashes: []Hash{b1, b2}})
	getBlocks := drainOne(t, peer).(*GetBlocks)
	assert.ElementsMatch(t, []Hash{b1, b2}, getBlocks.Hashes)

	info, ok := core.book.GetPeer(peer.listener)
	require.True(t, ok)
	assert.Equal(t, int64(2), info.Quality.RemainingSyncBlocks())

	core.handleSyncBlock(peer, &SyncBlock{Bytes: []byte("b1-bytes")})
	assert.Equal(t, int64(1), info.Quality.RemainingSyncBlocks())
	core.handleSyncBlock(peer, &SyncBlock{Bytes: []byte("b2-bytes")})
	assert.Equal(t, int64(0), info.Quality.RemainingSyncBlocks())
	assert.False(t, info.Quality.IsSyncingBlocks())
}

func TestTransactionGossipResponderScenario(t *testing.T) {
	store := newFakeStorage()
	pool := newFakeMemoryPool()
	pool.Insert([]byte("tx1"))
	pool.Insert([]byte("tx2"))
	core := newTestCore(t, 4136, store, &fakeConsensus{}, pool)
	peer := fakePeer(t, core, testAddr(t, "127.0.0.1:11"))

	core.handleGetMemoryPool(peer, &GetMemoryPool{})
	reply := drainOne(t, peer).(*MemoryPool)
	assert.ElementsMatch(t, [][]byte{[]byte("tx1"), []byte("tx2")}, reply.Transactions)
}

func TestTransactionGossipIsRebroadcast(t *testing.T) {
	store := newFakeStorage()
	pool := newFakeMemoryPool()
	core := newTestCore(t, 4134, store, &fakeConsensus{}, pool)
	other := fakePeer(t, core, testAddr(t, "127.0.0.1:12"))
	core.server.register(other)

	// The transaction arrives with no sender Peer, so every registered peer
	// is a rebroadcast target.
	core.handleTransaction(nil, &Transaction{Bytes: []byte("tx-1")})
	assert.True(t, pool.Contains([]byte("tx-1")))
	rebroadcast := drainOne(t, other).(*Transaction)
	assert.Equal(t, []byte("tx-1"), rebroadcast.Bytes)

	core.handleTransaction(nil, &Transaction{Bytes: []byte("tx-1")})
	assert.Len(t, pool.txs, 1, "duplicate transaction must not be inserted twice")
}

func TestMemoryPoolRequestIsIdempotent(t *testing.T) {
	store := newFakeStorage()
	pool := newFakeMemoryPool()
	core := newTestCore(t, 4135, store, &fakeConsensus{}, pool)

	msg := &MemoryPool{Transactions: [][]byte{[]byte("tx1"), []byte("tx2")}}
	core.handleMemoryPool(nil, msg)
	core.handleMemoryPool(nil, msg)

	assert.Len(t, pool.txs, 2)
}
