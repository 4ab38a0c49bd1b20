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
// Peer's reader/writer/handler split follows node/cn/peer.go's basePeer:
// a dedicated goroutine drains inbound frames and one drains the outbound
// queue, both bound to a single cancellation signal. The per-message-type
// outbound backlogs basePeer keeps (queuedTxs/queuedProps/queuedAnns)
// collapse here into one bounded channel, since the custom protocol makes
// no such distinction.
package p2p

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/ground-x/kcore/metrics"
	"github.com/ground-x/kcore/params"
)

// Peer is one established, handshaked connection.
type Peer struct {
	core *Core

	conn     net.Conn
	reader   *bufio.Reader
	addr     Address // address as seen on the socket
	listener Address // address this peer says it listens on

	outbound chan Payload

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// newPeerFromHandshake wraps an already-handshaked connection, reusing the
// bufio.Reader the handshake read its frames from so no buffered bytes are
// dropped.
func newPeerFromHandshake(core *Core, conn net.Conn, reader *bufio.Reader, remote, listener Address) *Peer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Peer{
		core:     core,
		conn:     conn,
		reader:   reader,
		addr:     remote,
		listener: listener,
		outbound: make(chan Payload, params.DefaultOutboundQueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func newReader(conn net.Conn) *bufio.Reader {
	return bufio.NewReader(conn)
}

func expectPayload(r *bufio.Reader, want Tag) (Payload, error) {
	p, err := DecodeFrame(r)
	if err != nil {
		return nil, err
	}
	if p.Tag() != want {
		return nil, fmt.Errorf("p2p: expected %s, got %s", want, p.Tag())
	}
	return p, nil
}

// run launches the reader and writer goroutines and blocks until the
// connection is closed.
func (p *Peer) run() {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		p.readLoop()
	}()
	go func() {
		defer wg.Done()
		p.writeLoop()
	}()

	wg.Wait()
}

func (p *Peer) readLoop() {
	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		payload, err := DecodeFrame(p.reader)
		if err != nil {
			p.fail("decode error", err)
			return
		}
		p.core.dispatch(p, payload)
	}
}

func (p *Peer) writeLoop() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case payload := <-p.outbound:
			if err := EncodeFrame(p.conn, payload); err != nil {
				p.fail("encode error", err)
				return
			}
		}
	}
}

// Send enqueues payload for delivery to this peer. If the outbound queue is
// full, the peer is considered too slow to keep up and is evicted (spec
// §4.5's slow-peer eviction).
func (p *Peer) Send(payload Payload) {
	select {
	case p.outbound <- payload:
	default:
		metrics.SlowPeerEvictions.Inc(1)
		coreLog.Warn("evicting slow peer", "addr", p.addr.String(), "tag", payload.Tag())
		p.Close()
	}
}

func (p *Peer) fail(reason string, err error) {
	coreLog.Debug("peer connection failed", "addr", p.addr.String(), "reason", reason, "err", err)
	if info, ok := p.core.book.GetPeer(p.listener); ok {
		info.Quality.IncrementFailures()
	}
	p.Close()
}

// Close tears down the connection and marks the peer disconnected exactly
// once, however many goroutines observe the failure concurrently.
func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		p.cancel()
		p.conn.Close()
		p.core.book.SetDisconnected(p.listener)
		p.core.server.forget(p)
	})
}
