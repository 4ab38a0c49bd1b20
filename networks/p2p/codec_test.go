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
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, p Payload) Payload {
	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(&buf, p))

	got, err := DecodeFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, p.Tag(), got.Tag())
	return got
}

func TestCodecRoundTripVersion(t *testing.T) {
	v := &Version{Version: 1, ListenerPort: 4131, Nonce: 0xdeadbeef, Height: 42}
	got := roundTrip(t, v).(*Version)
	assert.Equal(t, v, got)
}

func TestCodecRoundTripPeers(t *testing.T) {
	p := &Peers{Addresses: []Address{
		NewAddress([]byte{127, 0, 0, 1}, 4131),
		NewAddress([]byte{10, 0, 0, 2}, 4132),
	}}
	got := roundTrip(t, p).(*Peers)
	require.Len(t, got.Addresses, 2)
	assert.Equal(t, p.Addresses[0].String(), got.Addresses[0].String())
	assert.Equal(t, p.Addresses[1].String(), got.Addresses[1].String())
}

func TestCodecRoundTripEmptyPayloads(t *testing.T) {
	roundTrip(t, &Verack{Nonce: 7})
	roundTrip(t, &Pong{})
	roundTrip(t, &GetPeers{})
	roundTrip(t, &GetMemoryPool{})
}

func TestCodecRoundTripHashLists(t *testing.T) {
	var h1, h2 Hash
	h1[0] = 0xAA
	h2[0] = 0xBB

	sync := &Sync{BlockHashes: []Hash{h1, h2}}
	got := roundTrip(t, sync).(*Sync)
	assert.Equal(t, sync.BlockHashes, got.BlockHashes)

	getBlocks := &GetBlocks{Hashes: []Hash{h1}}
	gotBlocks := roundTrip(t, getBlocks).(*GetBlocks)
	assert.Equal(t, getBlocks.Hashes, gotBlocks.Hashes)
}

func TestCodecRoundTripBytePayloads(t *testing.T) {
	tx := &Transaction{Bytes: []byte("serialized-tx")}
	got := roundTrip(t, tx).(*Transaction)
	assert.Equal(t, tx.Bytes, got.Bytes)

	block := &Block{Bytes: []byte("serialized-block")}
	gotBlock := roundTrip(t, block).(*Block)
	assert.Equal(t, block.Bytes, gotBlock.Bytes)
}

func TestCodecRejectsOversizeFrame(t *testing.T) {
	old := MaxFrameSize
	MaxFrameSize = 4
	defer func() { MaxFrameSize = old }()

	var buf bytes.Buffer
	err := EncodeFrame(&buf, &Transaction{Bytes: []byte("way too large for the limit")})
	assert.Error(t, err)
}

func TestCodecDecodeMalformedFrame(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0}) // zero-length frame
	_, err := DecodeFrame(bufio.NewReader(&buf))
	assert.Error(t, err)
}
