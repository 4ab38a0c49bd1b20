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
// Server plays the connection-manager role node/cn's use of go-ethereum's
// p2p.Server plays for the teacher: listen/accept, dial, and the handshake
// state machine, adapted from devp2p's RLPx handshake to the three-message
// Version/Verack exchange of spec §4.3.
package p2p

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ground-x/kcore/params"
)

const protocolVersion = 1

// Server owns the listening socket and the set of live peer connections.
type Server struct {
	cfg  *params.Config
	core *Core

	listener net.Listener

	mu    sync.Mutex
	peers map[*Peer]struct{}

	closed bool
}

func newServer(cfg *params.Config, core *Core) *Server {
	return &Server{
		cfg:   cfg,
		core:  core,
		peers: make(map[*Peer]struct{}),
	}
}

// Listen opens the TCP listening socket.
func (s *Server) Listen() error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.ListenPort))
	if err != nil {
		return err
	}
	s.listener = l
	return nil
}

// AcceptLoop accepts inbound connections until the listener is closed.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			coreLog.Debug("listener closed", "err", err)
			return
		}
		go s.handleInbound(conn)
	}
}

// Dial opens an outbound connection to addr and runs the handshake as the
// initiator.
func (s *Server) Dial(addr Address) error {
	if !s.admit() {
		return fmt.Errorf("p2p: at connection capacity, refusing to dial %s", addr)
	}
	if err := s.core.book.SetConnecting(addr); err != nil {
		return err
	}

	conn, err := net.DialTimeout("tcp", addr.String(), s.cfg.HandshakeTimeout)
	if err != nil {
		s.core.book.SetDisconnected(addr)
		return err
	}

	peer, err := s.handshakeInitiator(conn, addr)
	if err != nil {
		conn.Close()
		s.core.book.SetDisconnected(addr)
		return err
	}

	s.register(peer)
	go peer.run()
	return nil
}

func (s *Server) handleInbound(conn net.Conn) {
	remote, err := ResolveAddress(conn.RemoteAddr().String())
	if err != nil {
		conn.Close()
		return
	}

	if !s.admit() {
		conn.Close()
		return
	}
	if err := s.core.book.SetConnecting(remote); err != nil {
		conn.Close()
		return
	}

	peer, err := s.handshakeResponder(conn, remote)
	if err != nil {
		coreLog.Debug("inbound handshake failed", "addr", remote.String(), "err", err)
		conn.Close()
		s.core.book.SetDisconnected(remote)
		return
	}

	s.register(peer)
	go peer.run()
}

func (s *Server) admit() bool {
	total := s.core.book.NumberOfConnectedPeers() + s.core.book.NumberOfConnectingPeers()
	return uint(total) < s.cfg.MaximumNumberOfConnectedPeers
}

func (s *Server) register(p *Peer) {
	s.mu.Lock()
	s.peers[p] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) forget(p *Peer) {
	s.mu.Lock()
	delete(s.peers, p)
	s.mu.Unlock()
}

func (s *Server) connectedPeers() []*Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Peer, 0, len(s.peers))
	for p := range s.peers {
		out = append(out, p)
	}
	return out
}

// peerByAddress returns the live connection to listener, if any, for
// directing a sync session at a specific peer chosen by PeerBook.LastSeen.
func (s *Server) peerByAddress(listener Address) (*Peer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.peers {
		if p.listener.Key() == listener.Key() {
			return p, true
		}
	}
	return nil, false
}

// Close shuts down the listener and every live peer connection.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	peers := make([]*Peer, 0, len(s.peers))
	for p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	for _, p := range peers {
		p.Close()
	}
}

// --- handshake -------------------------------------------------------------
//
// Three-message exchange per spec §4.3:
//   1. Initiator sends Version{version, listener_port, nonce, height}.
//   2. Responder checks the nonce for self-connect, replies Version carrying
//      its own nonce, then Verack echoing the initiator's nonce.
//   3. Initiator replies Verack; each side reaches Connected only after
//      sending AND receiving a Verack tagged with the matching nonce.
// The whole exchange is bounded by handshake_timeout.

// sendAsync writes payload on its own goroutine and reports the result on
// the returned channel, so a handshake step's write never blocks the step's
// own read of the peer's concurrent write. Both sides of a handshake send
// this way, which is what lets the exchange complete over a fully
// synchronous transport (net.Pipe in tests, and in spirit an unbuffered
// socket) without either end stalling on a write the other hasn't read yet.
func sendAsync(conn net.Conn, payload Payload) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- EncodeFrame(conn, payload) }()
	return errc
}

func (s *Server) handshakeInitiator(conn net.Conn, remote Address) (*Peer, error) {
	conn.SetDeadline(time.Now().Add(s.cfg.HandshakeTimeout))
	defer conn.SetDeadline(time.Time{})

	nonce := s.core.nonces.Generate()
	defer s.core.nonces.Forget(nonce)
	reader := newReader(conn)

	sendVersion := sendAsync(conn, &Version{
		Version:      protocolVersion,
		ListenerPort: s.cfg.ListenPort,
		Nonce:        nonce,
		Height:       s.core.storage.GetCurrentBlockHeight(),
	})
	theirVersion, err := expectPayload(reader, TagVersion)
	if err != nil {
		return nil, err
	}
	if err := <-sendVersion; err != nil {
		return nil, err
	}
	remoteVersion := theirVersion.(*Version)

	sendVerack := sendAsync(conn, &Verack{Nonce: remoteVersion.Nonce})
	ack, err := expectPayload(reader, TagVerack)
	if err != nil {
		return nil, err
	}
	if err := <-sendVerack; err != nil {
		return nil, err
	}
	if ack.(*Verack).Nonce != nonce {
		return nil, fmt.Errorf("p2p: verack nonce mismatch from %s", remote)
	}

	listener := NewAddress(remote.IP, remoteVersion.ListenerPort)
	info := s.core.book.SetConnected(remote, listener)
	info.Quality.ExpectingSyncBlocks(0)

	return newPeerFromHandshake(s.core, conn, reader, remote, listener), nil
}

func (s *Server) handshakeResponder(conn net.Conn, remote Address) (*Peer, error) {
	conn.SetDeadline(time.Now().Add(s.cfg.HandshakeTimeout))
	defer conn.SetDeadline(time.Time{})

	reader := newReader(conn)
	theirVersion, err := expectPayload(reader, TagVersion)
	if err != nil {
		return nil, err
	}
	remoteVersion := theirVersion.(*Version)

	if s.core.nonces.IsSelfConnect(remoteVersion.Nonce) {
		return nil, fmt.Errorf("p2p: rejecting self-connect from %s", remote)
	}

	nonce := s.core.nonces.Generate()
	defer s.core.nonces.Forget(nonce)

	sendVersion := sendAsync(conn, &Version{
		Version:      protocolVersion,
		ListenerPort: s.cfg.ListenPort,
		Nonce:        nonce,
		Height:       s.core.storage.GetCurrentBlockHeight(),
	})
	if err := <-sendVersion; err != nil {
		return nil, err
	}

	sendVerack := sendAsync(conn, &Verack{Nonce: remoteVersion.Nonce})
	ack, err := expectPayload(reader, TagVerack)
	if err != nil {
		return nil, err
	}
	if err := <-sendVerack; err != nil {
		return nil, err
	}
	if ack.(*Verack).Nonce != nonce {
		return nil, fmt.Errorf("p2p: verack nonce mismatch from %s", remote)
	}

	listener := NewAddress(remote.IP, remoteVersion.ListenerPort)
	info := s.core.book.SetConnected(remote, listener)
	info.Quality.ExpectingSyncBlocks(0)

	return newPeerFromHandshake(s.core, conn, reader, remote, listener), nil
}
