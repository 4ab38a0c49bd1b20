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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/kcore/storage"
)

func testAddr(t *testing.T, hostport string) Address {
	t.Helper()
	a, err := ResolveAddress(hostport)
	require.NoError(t, err)
	return a
}

func TestPeerBookLifecycle(t *testing.T) {
	book := NewPeerBook()
	addr := testAddr(t, "127.0.0.1:4131")

	require.NoError(t, book.SetConnecting(addr))
	assert.True(t, book.IsConnecting(addr))
	assert.Equal(t, 1, book.NumberOfConnectingPeers())

	info := book.SetConnected(addr, addr)
	assert.True(t, book.IsConnected(addr))
	assert.False(t, book.IsConnecting(addr))
	assert.Equal(t, Connected, info.State)
	assert.Equal(t, uint64(1), info.ConnectionCount)

	book.SetDisconnected(addr)
	assert.True(t, book.IsDisconnected(addr))
	assert.False(t, book.IsConnected(addr))
}

func TestPeerBookAddressIsInAtMostOneSet(t *testing.T) {
	book := NewPeerBook()
	addr := testAddr(t, "127.0.0.1:4131")

	require.NoError(t, book.SetConnecting(addr))
	book.SetConnected(addr, addr)

	members := 0
	if book.IsConnecting(addr) {
		members++
	}
	if book.IsConnected(addr) {
		members++
	}
	if book.IsDisconnected(addr) {
		members++
	}
	assert.Equal(t, 1, members)
}

func TestPeerBookSetConnectingRejectsAlreadyConnected(t *testing.T) {
	book := NewPeerBook()
	addr := testAddr(t, "127.0.0.1:4131")

	book.SetConnected(addr, addr)
	err := book.SetConnecting(addr)
	assert.Equal(t, ErrAlreadyConnected, err)
}

func TestPeerBookAddPeerIgnoresKnownAddress(t *testing.T) {
	book := NewPeerBook()
	addr := testAddr(t, "127.0.0.1:4131")

	book.SetConnected(addr, addr)
	book.AddPeer(addr)
	assert.Equal(t, 0, book.NumberOfDisconnectedPeers())
}

func TestPeerBookSetDisconnectedDiscoversUnknownAddress(t *testing.T) {
	book := NewPeerBook()
	addr := testAddr(t, "127.0.0.1:4131")

	book.SetDisconnected(addr)
	assert.True(t, book.IsDisconnected(addr))
}

func TestPeerBookLastSeenPicksMostRecentlyTouched(t *testing.T) {
	book := NewPeerBook()
	a := testAddr(t, "127.0.0.1:4131")
	b := testAddr(t, "127.0.0.1:4132")

	book.SetConnected(a, a)
	book.SetConnected(b, b)
	book.Touch(b)

	last, ok := book.LastSeen()
	require.True(t, ok)
	assert.Equal(t, b.String(), last.String())
}

func TestPeerBookPersistenceRoundTrip(t *testing.T) {
	book := NewPeerBook()
	addr := testAddr(t, "127.0.0.1:4131")
	book.SetConnected(addr, addr)
	book.SetDisconnected(addr)

	store := storage.NewMemoryStore()
	require.NoError(t, book.Save(store))

	loaded := LoadPeerBook(store)
	assert.True(t, loaded.IsDisconnected(addr))
}

func TestPeerBookLoadWithNoPersistedDataStartsEmpty(t *testing.T) {
	store := storage.NewMemoryStore()
	book := LoadPeerBook(store)
	assert.Equal(t, 0, book.NumberOfConnectedPeers())
	assert.Equal(t, 0, book.NumberOfDisconnectedPeers())
}
